package asset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sieve/internal/asset"
)

func TestParseKind(t *testing.T) {
	kind, err := asset.ParseKind(" Audio ")
	require.NoError(t, err)
	assert.Equal(t, asset.KindAudio, kind)

	_, err = asset.ParseKind("hologram")
	assert.Error(t, err)
}

func TestAttributesAccessors(t *testing.T) {
	attrs := asset.Attributes{
		asset.AttrSampleCount:     "44100",
		asset.AttrDurationSeconds: "1.5",
		asset.AttrSprite:          "true",
		asset.AttrWidth:           "wide",
	}

	count, ok := attrs.Int(asset.AttrSampleCount)
	assert.True(t, ok)
	assert.EqualValues(t, 44100, count)

	duration, ok := attrs.Float(asset.AttrDurationSeconds)
	assert.True(t, ok)
	assert.InDelta(t, 1.5, duration, 1e-9)

	assert.True(t, attrs.Bool(asset.AttrSprite))
	assert.False(t, attrs.Bool(asset.AttrChannels))

	_, ok = attrs.Int(asset.AttrWidth)
	assert.False(t, ok, "malformed integers are treated as absent")

	var empty asset.Attributes
	_, ok = empty.String("anything")
	assert.False(t, ok)
}

func TestSortAnchorsOrdersByDeclaredOrderThenID(t *testing.T) {
	anchors := []asset.Entity{
		{ID: "scene/c", AnchorOrder: 1},
		{ID: "scene/b", AnchorOrder: 0},
		{ID: "scene/a", AnchorOrder: 1},
	}
	asset.SortAnchors(anchors)
	assert.Equal(t, []asset.ID{"scene/b", "scene/a", "scene/c"}, asset.IDs(anchors))
}

func TestCanonicalGroup(t *testing.T) {
	anchor := asset.Entity{ID: "scene/main", Name: "Main"}
	assert.Equal(t, asset.GroupID("Group_Main"), asset.CanonicalGroup(asset.DefaultGroupPrefix, anchor))
}

func TestSampleCodec(t *testing.T) {
	samples := []float32{0, 0.5, -1, 1e-6}
	decoded, err := asset.DecodeSamples(asset.EncodeSamples(samples))
	require.NoError(t, err)
	assert.Equal(t, samples, decoded)

	_, err = asset.DecodeSamples([]byte{1, 2, 3})
	assert.Error(t, err)
}
