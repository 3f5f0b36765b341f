package policy

import (
	"context"
	"fmt"
	"strconv"

	"sieve/internal/asset"
)

// Graph resolves transitive dependencies.
type Graph interface {
	Dependencies(ctx context.Context, e asset.Entity) ([]asset.Entity, error)
}

// AtlasCoverage is the result of TexturesNotInAtlas.
type AtlasCoverage struct {
	// Loose lists the sprite textures no atlas reaches, in input order.
	Loose []asset.Entity

	// Scanned counts the atlases whose contents were resolved.
	Scanned int

	// Partial is set when cancellation stopped the scan. Loose is then
	// empty, since any texture might sit in an unscanned atlas.
	Partial bool
}

// TexturesNotInAtlas returns the sprite textures that no atlas reaches. A
// failing atlas lookup aborts the check since its contents are unknown.
func TexturesNotInAtlas(ctx context.Context, textures, atlases []asset.Entity, graph Graph) (*AtlasCoverage, error) {
	coverage := &AtlasCoverage{}
	packed := make(map[asset.ID]struct{})
	for _, atlas := range atlases {
		if ctx.Err() != nil {
			coverage.Partial = true
			return coverage, nil
		}
		deps, err := graph.Dependencies(ctx, atlas)
		if err != nil {
			if ctx.Err() != nil {
				coverage.Partial = true
				return coverage, nil
			}
			return nil, fmt.Errorf("resolve atlas %s: %w", atlas.ID, err)
		}
		for _, d := range deps {
			packed[d.ID] = struct{}{}
		}
		coverage.Scanned++
	}

	for _, tex := range textures {
		if tex.Kind != asset.KindTexture || !tex.Attributes.Bool(asset.AttrSprite) {
			continue
		}
		if _, ok := packed[tex.ID]; ok {
			continue
		}
		coverage.Loose = append(coverage.Loose, tex)
	}
	return coverage, nil
}

// OversizedTextures returns findings for textures whose max_size, width or
// height exceeds limit. A texture yields at most one finding per attribute.
func OversizedTextures(textures []asset.Entity, limit int64) []Finding {
	var out []Finding
	for _, tex := range textures {
		if tex.Kind != asset.KindTexture {
			continue
		}
		for _, attr := range []string{asset.AttrMaxSize, asset.AttrWidth, asset.AttrHeight} {
			value, ok := tex.Attributes.Int(attr)
			if !ok || value <= limit {
				continue
			}
			out = append(out, Finding{
				Entity:    tex,
				Attribute: attr,
				Current:   strconv.FormatInt(value, 10),
				Expected:  "<= " + strconv.FormatInt(limit, 10),
			})
		}
	}
	return out
}
