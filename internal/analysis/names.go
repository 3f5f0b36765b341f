package analysis

import (
	"errors"
	"fmt"
)

// ErrUnknownAnalysis is returned for names outside Names().
var ErrUnknownAnalysis = errors.New("unknown analysis")

// Analysis names.
const (
	Ownership             = "ownership"
	AudioDuplicates       = "audio_duplicates"
	TexturesNotInAtlas    = "textures_not_in_atlas"
	AudioWrongCompression = "audio_wrong_compression"
	OversizedTextures     = "oversized_textures"
)

var descriptions = map[string]string{
	Ownership:             "dependencies per anchor, mis-owned entities and orphans",
	AudioDuplicates:       "audio clips with equal sample content",
	TexturesNotInAtlas:    "sprite textures no atlas packs",
	AudioWrongCompression: "audio clips whose load type or compression does not fit their length",
	OversizedTextures:     "textures above the configured size limit",
}

var ordered = []string{Ownership, AudioDuplicates, TexturesNotInAtlas, AudioWrongCompression, OversizedTextures}

// Names returns every analysis name in display order.
func Names() []string {
	return append([]string(nil), ordered...)
}

// Describe returns a one-line description of name.
func Describe(name string) string {
	return descriptions[name]
}

// CheckName returns ErrUnknownAnalysis when name is not a known analysis.
func CheckName(name string) error {
	if _, ok := descriptions[name]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownAnalysis, name)
	}
	return nil
}
