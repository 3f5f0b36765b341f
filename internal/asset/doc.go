// Package asset defines the content entities that every analysis operates on.
//
// An Entity is an opaque, stably identified content item (texture, audio clip,
// mesh, scene, ...) with a mutable current group and a free-form attribute bag
// carrying importer settings. Anchors are entities that form units of
// deployment; each anchor owns a canonical group derived from its name.
//
// The package holds no behavior beyond typed accessors, ordering helpers, and
// the raw PCM sample codec, so storage, classification, and deduplication can
// share one vocabulary.
package asset
