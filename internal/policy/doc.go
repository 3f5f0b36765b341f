// Package policy holds the per-entity import setting checks: sprites that no
// atlas packs, audio clips whose load type or compression does not fit their
// length, and textures above the size budget. FixAudio writes the expected
// audio settings back.
package policy
