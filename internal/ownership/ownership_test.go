package ownership_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sieve/internal/apply"
	"sieve/internal/asset"
	"sieve/internal/contentdb"
	"sieve/internal/ownership"
	"sieve/internal/progress"
	"sieve/internal/testsupport"
)

type fakeGraph struct {
	deps      map[asset.ID][]asset.Entity
	members   map[asset.GroupID][]asset.Entity
	depsErr   map[asset.ID]error
	onDeps    func(asset.Entity)
	calls     []asset.ID
	memberErr map[asset.GroupID]error
}

func (g *fakeGraph) Dependencies(_ context.Context, e asset.Entity) ([]asset.Entity, error) {
	g.calls = append(g.calls, e.ID)
	if g.onDeps != nil {
		g.onDeps(e)
	}
	if err := g.depsErr[e.ID]; err != nil {
		return nil, err
	}
	return g.deps[e.ID], nil
}

func (g *fakeGraph) GroupMembers(_ context.Context, group asset.GroupID) ([]asset.Entity, error) {
	if err := g.memberErr[group]; err != nil {
		return nil, err
	}
	return g.members[group], nil
}

func entity(id string, group string) asset.Entity {
	return asset.Entity{ID: asset.ID(id), Name: id, Group: asset.GroupID(group)}
}

func anchor(id, name string) asset.Entity {
	return asset.Entity{ID: asset.ID(id), Name: name, Anchor: true}
}

func openProject(t *testing.T) *contentdb.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.MustImport(t, store, testsupport.ProjectManifest)
	return store
}

func claimedIDs(c *ownership.Classification) [][]asset.ID {
	out := make([][]asset.ID, len(c.Anchors))
	for i, r := range c.Anchors {
		if len(r.Claimed) > 0 {
			out[i] = asset.IDs(r.Claimed)
		}
	}
	return out
}

func TestClassifyProject(t *testing.T) {
	store := openProject(t)
	ctx := context.Background()

	anchors, err := store.Anchors(ctx)
	require.NoError(t, err)

	result, err := ownership.NewClassifier(store).Classify(ctx, anchors)
	require.NoError(t, err)
	require.False(t, result.Partial)
	require.Empty(t, result.Failures)
	require.Len(t, result.Anchors, 3)

	mainResult := result.Anchors[0]
	assert.Equal(t, asset.GroupID("Group_Main"), mainResult.Group)
	assert.Equal(t,
		[]asset.ID{"prefab/hero", "mat/hero", "tex/hero", "audio/jump", "tex/shared"},
		asset.IDs(mainResult.Claimed))
	assert.Equal(t, []asset.ID{"tex/hero", "tex/shared"}, asset.IDs(mainResult.MisOwned))

	level := result.Anchors[1]
	assert.Equal(t, []asset.ID{"mat/rock", "tex/rock"}, asset.IDs(level.Claimed))
	assert.Empty(t, level.MisOwned)

	assert.Empty(t, result.Anchors[2].Claimed)
	assert.Equal(t, []asset.ID{"tex/stale"}, asset.IDs(result.Orphans))

	owner, ok := result.Owner("tex/shared")
	require.True(t, ok)
	assert.Equal(t, asset.ID("scene/main"), owner.ID)

	summary := result.Summary()
	assert.Equal(t, ownership.Summary{Anchors: 3, Claimed: 7, MisOwned: 2, Orphans: 1}, summary)
}

func TestClassifyFirstClaimWinsAndIsDeterministic(t *testing.T) {
	shared := entity("tex/shared", "Group_B")
	graph := &fakeGraph{
		deps: map[asset.ID][]asset.Entity{
			"scene/a": {shared, entity("tex/a", "Group_A"), shared},
			"scene/b": {shared, entity("tex/b", "Group_B")},
		},
	}
	anchors := []asset.Entity{anchor("scene/a", "A"), anchor("scene/b", "B")}

	first, err := ownership.NewClassifier(graph).Classify(context.Background(), anchors)
	require.NoError(t, err)
	second, err := ownership.NewClassifier(graph).Classify(context.Background(), anchors)
	require.NoError(t, err)

	assert.Equal(t, [][]asset.ID{{"tex/shared", "tex/a"}, {"tex/b"}}, claimedIDs(first))
	assert.Equal(t, []asset.ID{"tex/shared"}, asset.IDs(first.Anchors[0].MisOwned))
	assert.Equal(t, first, second)
}

func TestClassifyExcludesAnchorsAndRootFromClaims(t *testing.T) {
	graph := &fakeGraph{
		deps: map[asset.ID][]asset.Entity{
			"scene/a": {anchor("scene/a", "A"), anchor("scene/b", "B"), entity("tex/a", "Group_A")},
		},
		members: map[asset.GroupID][]asset.Entity{
			"Group_A": {anchor("scene/b", "B"), entity("tex/a", "Group_A"), entity("tex/old", "Group_A")},
		},
	}
	anchors := []asset.Entity{anchor("scene/a", "A"), anchor("scene/b", "B")}

	result, err := ownership.NewClassifier(graph).Classify(context.Background(), anchors)
	require.NoError(t, err)
	assert.Equal(t, [][]asset.ID{{"tex/a"}, nil}, claimedIDs(result))
	assert.Equal(t, []asset.ID{"tex/old"}, asset.IDs(result.Orphans))
}

func TestClassifyRecordsDependencyFailure(t *testing.T) {
	boom := errors.New("host unavailable")
	graph := &fakeGraph{
		deps: map[asset.ID][]asset.Entity{
			"scene/b": {entity("tex/b", "Group_B")},
		},
		depsErr: map[asset.ID]error{"scene/a": boom},
		members: map[asset.GroupID][]asset.Entity{
			"Group_A": {entity("tex/unknown", "Group_A")},
			"Group_B": {entity("tex/b", "Group_B"), entity("tex/dead", "Group_B")},
		},
	}
	anchors := []asset.Entity{anchor("scene/a", "A"), anchor("scene/b", "B")}

	result, err := ownership.NewClassifier(graph).Classify(context.Background(), anchors)
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, ownership.StageDependencies, result.Failures[0].Stage)
	assert.ErrorIs(t, result.Failures[0].Err, boom)
	require.Len(t, result.Anchors, 1)
	assert.Equal(t, asset.ID("scene/b"), result.Anchors[0].Anchor.ID)
	assert.Equal(t, []asset.ID{"tex/dead"}, asset.IDs(result.Orphans))
}

func TestClassifyRecordsMembersFailure(t *testing.T) {
	graph := &fakeGraph{
		memberErr: map[asset.GroupID]error{"Group_A": errors.New("locked")},
	}
	result, err := ownership.NewClassifier(graph).Classify(context.Background(), []asset.Entity{anchor("scene/a", "A")})
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, ownership.StageMembers, result.Failures[0].Stage)
	assert.Contains(t, result.Failures[0].String(), "members")
}

func TestClassifyCancellationKeepsCompletedAnchors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	graph := &fakeGraph{
		deps: map[asset.ID][]asset.Entity{
			"scene/a": {entity("tex/a", "Group_A")},
			"scene/b": {entity("tex/b", "Group_B")},
			"scene/c": {entity("tex/c", "Group_C")},
		},
		members: map[asset.GroupID][]asset.Entity{
			"Group_A": {entity("tex/orphan", "Group_A")},
		},
	}
	graph.onDeps = func(e asset.Entity) {
		if e.ID == "scene/b" {
			cancel()
		}
	}
	anchors := []asset.Entity{anchor("scene/a", "A"), anchor("scene/b", "B"), anchor("scene/c", "C")}

	result, err := ownership.NewClassifier(graph).Classify(ctx, anchors)
	require.NoError(t, err)
	assert.True(t, result.Partial)
	assert.Equal(t, [][]asset.ID{{"tex/a"}}, claimedIDs(result))
	assert.Empty(t, result.Orphans)
	assert.Equal(t, []asset.ID{"scene/a", "scene/b"}, graph.calls)
}

func TestClassifyReportsProgress(t *testing.T) {
	var labels []string
	reporter := func(_ int, _ int, label string) { labels = append(labels, label) }
	graph := &fakeGraph{}

	_, err := ownership.NewClassifier(graph, ownership.WithProgress(progress.Func(reporter))).
		Classify(context.Background(), []asset.Entity{anchor("scene/a", "A")})
	require.NoError(t, err)
	assert.Equal(t, []string{"classifying A", "collecting orphans", "classification complete"}, labels)
}

func TestRegroupMovesEntitiesAndIsIdempotent(t *testing.T) {
	store := openProject(t)
	ctx := context.Background()
	classifier := ownership.NewClassifier(store)

	anchors, err := store.Anchors(ctx)
	require.NoError(t, err)
	before, err := classifier.Classify(ctx, anchors)
	require.NoError(t, err)

	manifest := ownership.Regroup(ctx, store, before, ownership.RegroupOptions{CatchAllGroup: "Default"})
	require.NoError(t, manifest.Err())
	assert.Equal(t, apply.Counts{Applied: 3}, manifest.Counts())
	assert.Equal(t, "Group_Level -> Group_Main", manifest.Items[0].Detail)

	for id, want := range map[asset.ID]asset.GroupID{
		"tex/hero":   "Group_Main",
		"tex/shared": "Group_Main",
		"tex/stale":  "Default",
	} {
		got, err := store.CurrentGroup(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}

	after, err := classifier.Classify(ctx, anchors)
	require.NoError(t, err)
	assert.Zero(t, after.Summary().MisOwned)
	assert.Empty(t, after.Orphans)

	again := ownership.Regroup(ctx, store, after, ownership.RegroupOptions{CatchAllGroup: "Default"})
	assert.Empty(t, again.Items)
}

func TestRegroupDryRunLeavesGroupsUntouched(t *testing.T) {
	store := openProject(t)
	ctx := context.Background()

	anchors, err := store.Anchors(ctx)
	require.NoError(t, err)
	result, err := ownership.NewClassifier(store).Classify(ctx, anchors)
	require.NoError(t, err)

	manifest := ownership.Regroup(ctx, store, result, ownership.RegroupOptions{CatchAllGroup: "Default", DryRun: true})
	assert.True(t, manifest.DryRun)
	assert.Equal(t, apply.Counts{Planned: 3}, manifest.Counts())

	group, err := store.CurrentGroup(ctx, "tex/hero")
	require.NoError(t, err)
	assert.Equal(t, asset.GroupID("Group_Level"), group)
}

type fakeMover struct {
	groups  map[asset.ID]asset.GroupID
	failOn  asset.ID
	cancel  context.CancelFunc
	movedTo map[asset.ID]asset.GroupID
}

func (m *fakeMover) CurrentGroup(_ context.Context, id asset.ID) (asset.GroupID, error) {
	return m.groups[id], nil
}

func (m *fakeMover) MoveToGroup(_ context.Context, id asset.ID, group asset.GroupID) error {
	if id == m.failOn {
		return errors.New("read-only")
	}
	if m.movedTo == nil {
		m.movedTo = map[asset.ID]asset.GroupID{}
	}
	m.movedTo[id] = group
	if m.cancel != nil {
		m.cancel()
	}
	return nil
}

func classification() *ownership.Classification {
	return &ownership.Classification{
		Anchors: []ownership.AnchorResult{{
			Anchor:   anchor("scene/a", "A"),
			Group:    "Group_A",
			MisOwned: []asset.Entity{entity("tex/1", "Group_B"), entity("tex/2", "Group_B"), entity("tex/3", "Group_A")},
		}},
		Orphans: []asset.Entity{entity("tex/4", "Group_A")},
	}
}

func TestRegroupContinuesPastFailures(t *testing.T) {
	mover := &fakeMover{
		groups: map[asset.ID]asset.GroupID{"tex/1": "Group_B", "tex/2": "Group_B", "tex/3": "Group_A", "tex/4": "Group_A"},
		failOn: "tex/1",
	}

	manifest := ownership.Regroup(context.Background(), mover, classification(), ownership.RegroupOptions{CatchAllGroup: "Default"})
	assert.Equal(t, apply.Counts{Applied: 2, Skipped: 1, Failed: 1}, manifest.Counts())
	assert.ErrorIs(t, manifest.Err(), apply.ErrPartialApply)
	assert.Equal(t, map[asset.ID]asset.GroupID{"tex/2": "Group_A", "tex/4": "Default"}, mover.movedTo)
	require.Len(t, manifest.Failures(), 1)
	assert.Equal(t, asset.ID("tex/1"), manifest.Failures()[0].EntityID)
}

func TestRegroupStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mover := &fakeMover{
		groups: map[asset.ID]asset.GroupID{"tex/1": "Group_B", "tex/2": "Group_B"},
		cancel: cancel,
	}

	manifest := ownership.Regroup(ctx, mover, classification(), ownership.RegroupOptions{CatchAllGroup: "Default"})
	assert.True(t, manifest.Cancelled)
	assert.Equal(t, apply.Counts{Applied: 1}, manifest.Counts())
	assert.False(t, manifest.FinishedAt.IsZero())
}

func TestClassifySharedDependencyAcrossThreeAnchors(t *testing.T) {
	x := entity("tex/x", "Group_C")
	graph := &fakeGraph{
		deps: map[asset.ID][]asset.Entity{
			"scene/1": {x},
			"scene/2": {x, entity("tex/two", "Group_2")},
			"scene/3": {x},
		},
	}
	anchors := []asset.Entity{anchor("scene/1", "1"), anchor("scene/2", "2"), anchor("scene/3", "3")}

	result, err := ownership.NewClassifier(graph).Classify(context.Background(), anchors)
	require.NoError(t, err)
	assert.Equal(t, [][]asset.ID{{"tex/x"}, {"tex/two"}, nil}, claimedIDs(result))
	assert.Equal(t, []asset.ID{"tex/x"}, asset.IDs(result.Anchors[0].MisOwned))
	assert.Empty(t, result.Anchors[1].MisOwned)
	assert.Empty(t, result.Anchors[2].MisOwned)
}

// randomGraph builds anchors a0..aN and entities e0..eM. Dependency lists
// repeat entries and mention the anchor itself and other anchors.
func randomGraph(seed uint64, anchorCount, entityCount int) ([]asset.Entity, *fakeGraph) {
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))
	groups := []string{"", "Shared"}
	anchors := make([]asset.Entity, anchorCount)
	for i := range anchors {
		anchors[i] = anchor("a"+strconv.Itoa(i), "Group"+strconv.Itoa(i))
		groups = append(groups, anchors[i].Name)
	}
	entities := make([]asset.Entity, entityCount)
	for i := range entities {
		entities[i] = entity("e"+strconv.Itoa(i), groups[rng.IntN(len(groups))])
	}

	graph := &fakeGraph{deps: make(map[asset.ID][]asset.Entity)}
	for _, a := range anchors {
		var deps []asset.Entity
		for range rng.IntN(entityCount + 1) {
			switch rng.IntN(8) {
			case 0:
				deps = append(deps, a)
			case 1:
				deps = append(deps, anchors[rng.IntN(anchorCount)])
			default:
				deps = append(deps, entities[rng.IntN(entityCount)])
			}
		}
		graph.deps[a.ID] = deps
	}
	return anchors, graph
}

type partitionCase struct {
	name     string
	seed     uint64
	anchors  int
	entities int
}

func TestClassifyPartitionsDependencies(t *testing.T) {
	tests := []partitionCase{
		{"single anchor", 1, 1, 6},
		{"dense overlap", 2, 4, 5},
		{"sparse", 3, 3, 30},
		{"many anchors", 4, 12, 20},
		{"tiny", 5, 2, 1},
	}
	for seed := uint64(100); seed < 140; seed++ {
		tests = append(tests, partitionCase{"seed " + strconv.FormatUint(seed, 10), seed, int(seed%6) + 1, int(seed%11) + 1})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anchors, graph := randomGraph(tt.seed, tt.anchors, tt.entities)
			anchorIDs := make(map[asset.ID]bool, len(anchors))
			for _, a := range anchors {
				anchorIDs[a.ID] = true
			}

			// The first anchor in order that lists an entity owns it.
			wantOwner := make(map[asset.ID]asset.ID)
			for _, a := range anchors {
				for _, d := range graph.deps[a.ID] {
					if anchorIDs[d.ID] {
						continue
					}
					if _, ok := wantOwner[d.ID]; !ok {
						wantOwner[d.ID] = a.ID
					}
				}
			}

			result, err := ownership.NewClassifier(graph, ownership.WithGroupPrefix("")).
				Classify(context.Background(), anchors)
			require.NoError(t, err)
			require.False(t, result.Partial)
			require.Len(t, result.Anchors, len(anchors))

			gotOwner := make(map[asset.ID]asset.ID)
			for _, r := range result.Anchors {
				misOwned := make(map[asset.ID]bool)
				for _, e := range r.MisOwned {
					misOwned[e.ID] = true
				}
				for _, e := range r.Claimed {
					prev, dup := gotOwner[e.ID]
					assert.False(t, dup, "%s claimed by %s and %s", e.ID, prev, r.Anchor.ID)
					assert.False(t, anchorIDs[e.ID], "anchor %s claimed by %s", e.ID, r.Anchor.ID)
					gotOwner[e.ID] = r.Anchor.ID
					assert.Equal(t, e.Group != r.Group, misOwned[e.ID], "mis-owned flag for %s", e.ID)
					delete(misOwned, e.ID)
				}
				assert.Empty(t, misOwned, "mis-owned entities outside the claim of %s", r.Anchor.ID)

				_, ok := result.Owner(r.Anchor.ID)
				assert.False(t, ok, "anchor %s has an owner", r.Anchor.ID)
			}
			assert.Equal(t, wantOwner, gotOwner)
			for id, owner := range gotOwner {
				got, ok := result.Owner(id)
				require.True(t, ok)
				assert.Equal(t, owner, got.ID)
			}
		})
	}
}
