package contentdb_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sieve/internal/asset"
	"sieve/internal/contentdb"
	"sieve/internal/logging"
	"sieve/internal/testsupport"
)

func openProject(t *testing.T) *contentdb.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.MustImport(t, store, testsupport.ProjectManifest)
	return store
}

func TestImportCountsAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	result := testsupport.MustImport(t, store, testsupport.ProjectManifest)
	assert.Equal(t, 15, result.Entities)
	assert.Equal(t, 3, result.Contents)
	assert.Equal(t, 11, result.References)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, stats.Entities())
	assert.Equal(t, 3, stats.Anchors)
	assert.Equal(t, 3, stats.EntitiesByKind[asset.KindAudio])
	assert.Equal(t, 2, stats.Groups)
	assert.Equal(t, 11, stats.References)
}

func TestFindEntitiesFiltersAndOrders(t *testing.T) {
	store := openProject(t)

	audio, err := store.FindEntities(context.Background(), asset.KindAudio)
	require.NoError(t, err)
	assert.Equal(t, []asset.ID{"audio/jump", "audio/jump_copy", "audio/music"}, asset.IDs(audio))

	count, ok := audio[0].Attributes.Int(asset.AttrSampleRate)
	assert.True(t, ok)
	assert.EqualValues(t, 44100, count)

	all, err := store.FindEntities(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 15)
}

func TestAnchorsOrdered(t *testing.T) {
	store := openProject(t)

	anchors, err := store.Anchors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []asset.ID{"scene/main", "scene/level", "scene/credits"}, asset.IDs(anchors))
	assert.True(t, anchors[0].Anchor)
}

func TestDependenciesAreTransitiveAndCycleSafe(t *testing.T) {
	store := openProject(t)
	ctx := context.Background()

	main, err := store.Entity(ctx, "scene/main")
	require.NoError(t, err)

	deps, err := store.Dependencies(ctx, main)
	require.NoError(t, err)
	assert.Equal(t,
		[]asset.ID{"prefab/hero", "mat/hero", "tex/hero", "audio/jump", "tex/shared"},
		asset.IDs(deps))
	assert.Equal(t, asset.GroupID("Group_Level"), deps[2].Group)
}

func TestDirectReferencesSkipDanglingTargets(t *testing.T) {
	store := openProject(t)

	refs, err := store.DirectReferences(context.Background(), "mat/rock")
	require.NoError(t, err)
	assert.Equal(t, []asset.ID{"tex/rock"}, refs)
}

func TestMoveToGroupAndCurrentGroup(t *testing.T) {
	store := openProject(t)
	ctx := context.Background()

	require.NoError(t, store.MoveToGroup(ctx, "tex/shared", "Group_Main"))
	group, err := store.CurrentGroup(ctx, "tex/shared")
	require.NoError(t, err)
	assert.Equal(t, asset.GroupID("Group_Main"), group)

	members, err := store.GroupMembers(ctx, "Group_Main")
	require.NoError(t, err)
	assert.Contains(t, asset.IDs(members), asset.ID("tex/shared"))

	err = store.MoveToGroup(ctx, "tex/nope", "Group_Main")
	assert.ErrorIs(t, err, contentdb.ErrEntityNotFound)
	_, err = store.CurrentGroup(ctx, "tex/nope")
	assert.ErrorIs(t, err, contentdb.ErrEntityNotFound)
}

func TestSetAttributesMerges(t *testing.T) {
	store := openProject(t)
	ctx := context.Background()

	require.NoError(t, store.SetAttributes(ctx, "audio/music", asset.Attributes{asset.AttrLoadType: "streaming"}))
	music, err := store.Entity(ctx, "audio/music")
	require.NoError(t, err)
	loadType, _ := music.Attributes.String(asset.AttrLoadType)
	assert.Equal(t, "streaming", loadType)
	format, _ := music.Attributes.String(asset.AttrCompressionFormat)
	assert.Equal(t, "vorbis", format, "untouched attributes are kept")
}

func TestRetargetAndDelete(t *testing.T) {
	store := openProject(t)
	ctx := context.Background()

	require.NoError(t, store.AddReference(ctx, "scene/credits", "audio/jump_copy", 0))
	require.NoError(t, store.AddReference(ctx, "scene/credits", "audio/jump", 1))

	updated, err := store.RetargetReferences(ctx, "audio/jump_copy", "audio/jump")
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	referrers, err := store.Referrers(ctx, "audio/jump")
	require.NoError(t, err)
	assert.Equal(t, []asset.ID{"prefab/hero", "scene/credits"}, referrers)

	stale, err := store.Referrers(ctx, "audio/jump_copy")
	require.NoError(t, err)
	assert.Empty(t, stale)

	require.NoError(t, store.DeleteEntity(ctx, "audio/jump_copy"))
	_, err = store.Entity(ctx, "audio/jump_copy")
	assert.ErrorIs(t, err, contentdb.ErrEntityNotFound)
	_, err = store.LoadContent(ctx, asset.Entity{ID: "audio/jump_copy"})
	assert.ErrorIs(t, err, contentdb.ErrEntityNotFound, "content is removed with its entity")
	assert.ErrorIs(t, store.DeleteEntity(ctx, "audio/jump_copy"), contentdb.ErrEntityNotFound)
}

func TestLoadContentRoundTripsSamples(t *testing.T) {
	store := openProject(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertEntity(ctx, asset.Entity{ID: "audio/new", Kind: asset.KindAudio, Name: "new"}))
	require.NoError(t, store.PutSamples(ctx, "audio/new", []float32{0.25, -0.25}))

	raw, err := store.LoadContent(ctx, asset.Entity{ID: "audio/new"})
	require.NoError(t, err)
	samples, err := asset.DecodeSamples(raw)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.25}, samples)
}

func TestApplyJournal(t *testing.T) {
	store := openProject(t)
	ctx := context.Background()

	require.NoError(t, store.RecordApply(ctx, []contentdb.ApplyRecord{
		{RunID: "run-1", Operation: "regroup", EntityID: "tex/shared", Outcome: contentdb.OutcomeApplied},
		{RunID: "run-1", Operation: "regroup", EntityID: "tex/hero", Outcome: contentdb.OutcomeFailed, Error: "locked"},
	}))
	require.NoError(t, store.RecordApply(ctx, []contentdb.ApplyRecord{
		{RunID: "run-2", Operation: "dedup", EntityID: "audio/jump_copy", Outcome: contentdb.OutcomeSkipped},
	}))

	runs, err := store.ApplyHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, 1, runs[0].Skipped)
	assert.Equal(t, "run-1", runs[1].RunID)
	assert.Equal(t, 1, runs[1].Applied)
	assert.Equal(t, 1, runs[1].Failed)
	assert.False(t, runs[1].StartedAt.IsZero())
}

func TestManifestSamplesFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dir := t.TempDir()
	testsupport.WriteSamplesFile(t, filepath.Join(dir, "pcm", "beep.f32"), []float32{0.1, 0.2})
	testsupport.WriteFile(t, filepath.Join(dir, "project.yaml"), `
entities:
  - id: audio/beep
    kind: audio
    samples_file: pcm/beep.f32
`)

	manifest, err := contentdb.LoadManifest(filepath.Join(dir, "project.yaml"))
	require.NoError(t, err)
	result, err := store.Import(context.Background(), manifest)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Contents)

	beep, err := store.Entity(context.Background(), "audio/beep")
	require.NoError(t, err)
	assert.Equal(t, "audio/beep", beep.Name, "name defaults to the id")
}

func TestDecodeManifestRejectsInvalidInput(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "entities:\n  - id: a\n    kind: texture\n    colour: red\n",
		"missing id":    "entities:\n  - kind: texture\n",
		"duplicate id":  "entities:\n  - id: a\n    kind: texture\n  - id: a\n    kind: mesh\n",
		"unknown kind":  "entities:\n  - id: a\n    kind: hologram\n",
		"nameless root": "entities:\n  - id: a\n    kind: scene\n    anchor: true\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := contentdb.DecodeManifest(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.db")
	store, err := contentdb.Open(path, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = contentdb.Open(path, logging.NewNop())
	assert.ErrorIs(t, err, contentdb.ErrSchemaMismatch)
}
