package contentdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"sieve/internal/asset"
	"sieve/internal/logging"
)

// Manifest describes a project snapshot to import.
type Manifest struct {
	Entities []ManifestEntity `yaml:"entities"`

	baseDir string
}

// ManifestEntity is one entity in a manifest.
type ManifestEntity struct {
	ID          string         `yaml:"id"`
	Kind        string         `yaml:"kind"`
	Name        string         `yaml:"name"`
	Path        string         `yaml:"path"`
	Group       string         `yaml:"group"`
	SizeBytes   int64          `yaml:"size_bytes"`
	Anchor      bool           `yaml:"anchor"`
	AnchorOrder int            `yaml:"anchor_order"`
	References  []string       `yaml:"references"`
	Attributes  map[string]any `yaml:"attributes"`
	// Samples holds inline interleaved PCM; SamplesFile points at a raw
	// little-endian float32 file relative to the manifest.
	Samples     []float32 `yaml:"samples"`
	SamplesFile string    `yaml:"samples_file"`
}

// ImportResult reports what an import wrote.
type ImportResult struct {
	Entities   int
	References int
	Contents   int
}

// LoadManifest reads and validates a YAML manifest file.
func LoadManifest(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()

	m, err := DecodeManifest(file)
	if err != nil {
		return nil, err
	}
	m.baseDir = filepath.Dir(path)
	return m, nil
}

// DecodeManifest parses a YAML manifest. Unknown keys are rejected.
func DecodeManifest(r io.Reader) (*Manifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var m Manifest
	if err := decoder.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	seen := make(map[string]struct{}, len(m.Entities))
	for i, e := range m.Entities {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return fmt.Errorf("manifest entities[%d]: id is required", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("manifest entities[%d]: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}
		if _, err := asset.ParseKind(e.Kind); err != nil {
			return fmt.Errorf("manifest entities[%d] (%s): %w", i, id, err)
		}
		if e.Anchor && strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("manifest entities[%d] (%s): anchors need a name", i, id)
		}
		if len(e.Samples) > 0 && e.SamplesFile != "" {
			return fmt.Errorf("manifest entities[%d] (%s): samples and samples_file are exclusive", i, id)
		}
	}
	return nil
}

func (e ManifestEntity) toEntity() asset.Entity {
	kind, _ := asset.ParseKind(e.Kind)
	name := strings.TrimSpace(e.Name)
	if name == "" {
		name = strings.TrimSpace(e.ID)
	}
	var attrs asset.Attributes
	if len(e.Attributes) > 0 {
		attrs = make(asset.Attributes, len(e.Attributes))
		for k, v := range e.Attributes {
			attrs[k] = fmt.Sprint(v)
		}
	}
	return asset.Entity{
		ID:          asset.ID(strings.TrimSpace(e.ID)),
		Kind:        kind,
		Name:        name,
		Path:        strings.TrimSpace(e.Path),
		Group:       asset.GroupID(strings.TrimSpace(e.Group)),
		SizeBytes:   e.SizeBytes,
		Attributes:  attrs,
		Anchor:      e.Anchor,
		AnchorOrder: e.AnchorOrder,
	}
}

func (m *Manifest) content(e ManifestEntity) ([]byte, error) {
	if len(e.Samples) > 0 {
		return asset.EncodeSamples(e.Samples), nil
	}
	if e.SamplesFile == "" {
		return nil, nil
	}
	path := e.SamplesFile
	if !filepath.IsAbs(path) && m.baseDir != "" {
		path = filepath.Join(m.baseDir, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read samples for %s: %w", e.ID, err)
	}
	if _, err := asset.DecodeSamples(raw); err != nil {
		return nil, fmt.Errorf("samples for %s: %w", e.ID, err)
	}
	return raw, nil
}

// Import writes every manifest entity, its references, and its audio content
// in a single transaction. Existing entities with the same ID are replaced and
// their outgoing references rewritten.
func (s *Store) Import(ctx context.Context, m *Manifest) (ImportResult, error) {
	var result ImportResult
	if m == nil {
		return result, nil
	}

	err := s.inTx(ctx, "import", func(tx *sql.Tx) error {
		result = ImportResult{}
		for _, me := range m.Entities {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := importEntity(ctx, tx, m, me, &result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	s.logger.Info("manifest imported",
		logging.Int("entities", result.Entities),
		logging.Int("references", result.References),
		logging.Int("contents", result.Contents),
	)
	return result, nil
}

func importEntity(ctx context.Context, tx *sql.Tx, m *Manifest, me ManifestEntity, result *ImportResult) error {
	e := me.toEntity()
	if err := upsertEntity(ctx, tx, e); err != nil {
		return fmt.Errorf("import entity %s: %w", e.ID, err)
	}
	result.Entities++

	if _, err := tx.ExecContext(ctx, `DELETE FROM refs WHERE source_id = ?`, string(e.ID)); err != nil {
		return fmt.Errorf("reset references of %s: %w", e.ID, err)
	}
	for ordinal, target := range me.References {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO refs (source_id, target_id, ordinal) VALUES (?, ?, ?)`,
			string(e.ID), target, ordinal); err != nil {
			return fmt.Errorf("import reference %s -> %s: %w", e.ID, target, err)
		}
		result.References++
	}

	raw, err := m.content(me)
	if err != nil {
		return err
	}
	if raw != nil {
		if err := putContent(ctx, tx, e.ID, raw); err != nil {
			return fmt.Errorf("import content %s: %w", e.ID, err)
		}
		result.Contents++
	}
	return nil
}
