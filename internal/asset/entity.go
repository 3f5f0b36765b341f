package asset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ID is the stable identity of a content entity.
type ID string

// GroupID names a deployment group.
type GroupID string

// DefaultGroupPrefix is prepended to an anchor name to form its canonical group.
const DefaultGroupPrefix = "Group_"

// Kind enumerates the content types the analyses understand.
type Kind string

const (
	KindUnknown  Kind = ""
	KindTexture  Kind = "texture"
	KindAudio    Kind = "audio"
	KindMesh     Kind = "mesh"
	KindFont     Kind = "font"
	KindShader   Kind = "shader"
	KindMaterial Kind = "material"
	KindPrefab   Kind = "prefab"
	KindAtlas    Kind = "atlas"
	KindScene    Kind = "scene"
)

var knownKinds = []Kind{
	KindTexture,
	KindAudio,
	KindMesh,
	KindFont,
	KindShader,
	KindMaterial,
	KindPrefab,
	KindAtlas,
	KindScene,
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(knownKinds))
	copy(out, knownKinds)
	return out
}

// ParseKind converts a textual kind into a Kind, rejecting unknown values.
func ParseKind(value string) (Kind, error) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, k := range knownKinds {
		if k == normalized {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown asset kind %q", value)
}

// Attribute keys shared by importers and analyses.
const (
	AttrSampleCount       = "sample_count"
	AttrChannels          = "channels"
	AttrSampleRate        = "sample_rate"
	AttrDurationSeconds   = "duration_seconds"
	AttrLoadType          = "load_type"
	AttrCompressionFormat = "compression_format"
	AttrSprite            = "sprite"
	AttrMaxSize           = "max_size"
	AttrWidth             = "width"
	AttrHeight            = "height"
)

// Attributes is a free-form bag of importer settings and metadata.
type Attributes map[string]string

// String returns the trimmed value for key and whether it was present.
func (a Attributes) String(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	value, ok := a[key]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// Int parses the value for key as an integer.
func (a Attributes) Int(key string) (int64, bool) {
	raw, ok := a.String(key)
	if !ok || raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Float parses the value for key as a float.
func (a Attributes) Float(key string) (float64, bool) {
	raw, ok := a.String(key)
	if !ok || raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Bool parses the value for key as a boolean. Missing or malformed values are false.
func (a Attributes) Bool(key string) bool {
	raw, ok := a.String(key)
	if !ok {
		return false
	}
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

// Clone returns an independent copy.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Entity is a single content item in the repository.
type Entity struct {
	ID          ID
	Kind        Kind
	Name        string
	Path        string
	Group       GroupID
	SizeBytes   int64
	Attributes  Attributes
	Anchor      bool
	AnchorOrder int
}

// Label returns a human-readable identifier for logs and reports.
func (e Entity) Label() string {
	if e.Path != "" {
		return e.Path
	}
	if e.Name != "" {
		return e.Name
	}
	return string(e.ID)
}

// CanonicalGroup derives the deterministic group owned by an anchor.
func CanonicalGroup(prefix string, anchor Entity) GroupID {
	return GroupID(prefix + anchor.Name)
}

// SortAnchors orders anchors by their declared order, breaking ties by ID.
func SortAnchors(anchors []Entity) {
	sort.SliceStable(anchors, func(i, j int) bool {
		if anchors[i].AnchorOrder != anchors[j].AnchorOrder {
			return anchors[i].AnchorOrder < anchors[j].AnchorOrder
		}
		return anchors[i].ID < anchors[j].ID
	})
}

// IDs projects entities onto their identities, preserving order.
func IDs(entities []Entity) []ID {
	out := make([]ID, len(entities))
	for i, e := range entities {
		out[i] = e.ID
	}
	return out
}

// FilterKind returns the entities of the given kind, preserving order.
func FilterKind(entities []Entity, kind Kind) []Entity {
	var out []Entity
	for _, e := range entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
