package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sieve/internal/asset"
	"sieve/internal/dedup"
	"sieve/internal/ownership"
	"sieve/internal/policy"
)

func renderResult(name string, result any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", analysisTitle(name))

	switch v := result.(type) {
	case *ownership.Classification:
		renderClassification(&b, v)
	case *dedup.Report:
		renderDuplicates(&b, v)
	case *policy.AtlasCoverage:
		renderCoverage(&b, v)
	case []policy.Finding:
		renderFindings(&b, v)
	default:
		fmt.Fprintf(&b, "%v\n", v)
	}
	return b.String()
}

func renderClassification(b *strings.Builder, c *ownership.Classification) {
	if c.Partial {
		b.WriteString("Cancelled: showing anchors processed before cancellation.\n\n")
	}
	anchors := newTable(col("Anchor"), col("Group"), num("Dependencies"), num("Mis-owned"))
	moves := newTable(col("Entity"), col("Current group"), col("Owner group"))
	misOwned := 0
	for _, r := range c.Anchors {
		anchors.row(r.Anchor.Label(), string(r.Group), strconv.Itoa(len(r.Claimed)), strconv.Itoa(len(r.MisOwned)))
		for _, e := range r.MisOwned {
			moves.row(string(e.ID), groupLabel(e.Group), string(r.Group))
			misOwned++
		}
	}
	fmt.Fprintln(b, anchors)
	if misOwned > 0 {
		fmt.Fprintf(b, "\nMis-owned entities\n%s\n", moves)
	}

	if len(c.Orphans) > 0 {
		orphans := newTable(col("Entity"), col("Group"), num("Size"))
		for _, e := range c.Orphans {
			orphans.row(string(e.ID), groupLabel(e.Group), formatBytes(e.SizeBytes))
		}
		fmt.Fprintf(b, "\nOrphans\n%s\n", orphans)
	}

	for _, f := range c.Failures {
		fmt.Fprintf(b, "\nFailed: %s\n", f.String())
	}
}

func renderDuplicates(b *strings.Builder, r *dedup.Report) {
	if r.Partial {
		b.WriteString("Cancelled: showing buckets finished before cancellation.\n\n")
	}
	if len(r.Groups) == 0 {
		b.WriteString("No duplicates found.\n")
	} else {
		t := newTable(col("Keeper"), col("Removable"), num("Reclaimable"))
		for _, g := range r.Groups {
			removable := make([]string, len(g.Removable))
			for i, e := range g.Removable {
				removable[i] = string(e.ID)
			}
			t.row(string(g.Keeper.ID), strings.Join(removable, ", "), formatBytes(g.ReclaimableBytes()))
		}
		fmt.Fprintf(b, "%s\n%d groups, %s reclaimable\n", t, len(r.Groups), formatBytes(r.ReclaimableBytes()))
	}
	for _, w := range r.BucketWarnings {
		fmt.Fprintf(b, "Warning: %s bucket %s holds %d entities\n", w.Kind, w.Key, w.Size)
	}
	for _, f := range r.ReadFailures {
		fmt.Fprintf(b, "Unreadable: %s (%v)\n", f.Entity.ID, f.Err)
	}
}

func renderCoverage(b *strings.Builder, c *policy.AtlasCoverage) {
	if c.Partial {
		fmt.Fprintf(b, "Cancelled after %d atlases: loose sprites are unknown.\n", c.Scanned)
		return
	}
	if len(c.Loose) == 0 {
		b.WriteString("Nothing found.\n")
		return
	}
	t := newTable(col("Entity"), col("Path"), col("Group"), num("Size"))
	for _, e := range c.Loose {
		t.row(string(e.ID), e.Path, groupLabel(e.Group), formatBytes(e.SizeBytes))
	}
	fmt.Fprintln(b, t)
}

func renderFindings(b *strings.Builder, findings []policy.Finding) {
	if len(findings) == 0 {
		b.WriteString("Nothing found.\n")
		return
	}
	t := newTable(col("Entity"), col("Attribute"), col("Current"), col("Expected"))
	for _, f := range findings {
		current := f.Current
		if current == "" {
			current = "(unset)"
		}
		t.row(string(f.Entity.ID), f.Attribute, current, f.Expected)
	}
	fmt.Fprintln(b, t)
}

type entityView struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Name      string `json:"name,omitempty"`
	Path      string `json:"path,omitempty"`
	Group     string `json:"group,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

func viewEntity(e asset.Entity) entityView {
	return entityView{
		ID:        string(e.ID),
		Kind:      string(e.Kind),
		Name:      e.Name,
		Path:      e.Path,
		Group:     string(e.Group),
		SizeBytes: e.SizeBytes,
	}
}

func viewEntities(entities []asset.Entity) []entityView {
	out := make([]entityView, len(entities))
	for i, e := range entities {
		out[i] = viewEntity(e)
	}
	return out
}

type anchorView struct {
	Anchor   entityView   `json:"anchor"`
	Group    string       `json:"group"`
	Claimed  []entityView `json:"claimed"`
	MisOwned []entityView `json:"mis_owned"`
}

type failureView struct {
	Anchor string `json:"anchor"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

type ownershipView struct {
	Anchors  []anchorView  `json:"anchors"`
	Orphans  []entityView  `json:"orphans"`
	Failures []failureView `json:"failures,omitempty"`
	Partial  bool          `json:"partial"`
}

type groupView struct {
	Keeper           entityView   `json:"keeper"`
	Removable        []entityView `json:"removable"`
	ReclaimableBytes int64        `json:"reclaimable_bytes"`
}

type duplicatesView struct {
	Groups         []groupView `json:"groups"`
	ReadFailures   []string    `json:"read_failures,omitempty"`
	BucketWarnings []string    `json:"bucket_warnings,omitempty"`
	Compared       int         `json:"compared"`
	Partial        bool        `json:"partial"`
}

type findingView struct {
	Entity    entityView `json:"entity"`
	Attribute string     `json:"attribute"`
	Current   string     `json:"current"`
	Expected  string     `json:"expected"`
}

type coverageView struct {
	Loose   []entityView `json:"loose"`
	Scanned int          `json:"scanned_atlases"`
	Partial bool         `json:"partial"`
}

type resultView struct {
	Analysis string `json:"analysis"`
	Result   any    `json:"result"`
}

func toJSONView(name string, result any) resultView {
	view := resultView{Analysis: name}
	switch v := result.(type) {
	case *ownership.Classification:
		out := ownershipView{Anchors: []anchorView{}, Orphans: viewEntities(v.Orphans), Partial: v.Partial}
		for _, r := range v.Anchors {
			out.Anchors = append(out.Anchors, anchorView{
				Anchor:   viewEntity(r.Anchor),
				Group:    string(r.Group),
				Claimed:  viewEntities(r.Claimed),
				MisOwned: viewEntities(r.MisOwned),
			})
		}
		for _, f := range v.Failures {
			out.Failures = append(out.Failures, failureView{Anchor: string(f.Anchor.ID), Stage: f.Stage, Error: f.Err.Error()})
		}
		view.Result = out
	case *dedup.Report:
		out := duplicatesView{Groups: []groupView{}, Compared: v.Compared, Partial: v.Partial}
		for _, g := range v.Groups {
			out.Groups = append(out.Groups, groupView{
				Keeper:           viewEntity(g.Keeper),
				Removable:        viewEntities(g.Removable),
				ReclaimableBytes: g.ReclaimableBytes(),
			})
		}
		for _, f := range v.ReadFailures {
			out.ReadFailures = append(out.ReadFailures, f.Err.Error())
		}
		for _, w := range v.BucketWarnings {
			out.BucketWarnings = append(out.BucketWarnings, fmt.Sprintf("%s %s: %d", w.Kind, w.Key, w.Size))
		}
		view.Result = out
	case *policy.AtlasCoverage:
		view.Result = coverageView{Loose: viewEntities(v.Loose), Scanned: v.Scanned, Partial: v.Partial}
	case []policy.Finding:
		out := make([]findingView, len(v))
		for i, f := range v {
			out[i] = findingView{Entity: viewEntity(f.Entity), Attribute: f.Attribute, Current: f.Current, Expected: f.Expected}
		}
		view.Result = out
	default:
		view.Result = v
	}
	return view
}

// writeJSON prints v as indented JSON on the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
	return err
}
