// Package align reconciles two partition trees built at potentially
// different per-branch depths. A single linear merge walk over the sky-sorted
// leaves visits every overlapping pair exactly once, which keeps alignment
// O(|A|+|B|) even for catalogs with millions of partitions.
package align

import (
	"fmt"
	"strings"

	"github.com/starcat-lab/starcat/internal/core/pixel"
	"github.com/starcat-lab/starcat/internal/core/tree"
)

// Relation describes how an entry's primary pixel relates to its partner.
type Relation int

const (
	// Equal: the two pixels are the same cell.
	Equal Relation = iota
	// Ancestor: the primary pixel contains the partner.
	Ancestor
	// Descendant: the partner pixel contains the primary.
	Descendant
)

func (r Relation) String() string {
	switch r {
	case Equal:
		return "equal"
	case Ancestor:
		return "ancestor"
	case Descendant:
		return "descendant"
	}
	return fmt.Sprintf("relation(%d)", int(r))
}

// Entry records one overlapping pixel pair between the primary and partner
// trees.
type Entry struct {
	Primary  pixel.Pixel
	Partner  pixel.Pixel
	Relation Relation
}

// Plan is the full alignment of two trees, in sky order. A join/merge
// executor consumes it to know which partition pairs must be read together.
type Plan struct {
	Entries []Entry
}

// EmptyRegionError is returned when an alignment or filter yields zero
// covering pixels but the caller requires at least one. Downstream queries
// must be able to tell "no data here" apart from a malformed query.
type EmptyRegionError struct {
	Region string
}

func (e *EmptyRegionError) Error() string {
	return fmt.Sprintf("no catalog pixels cover %s", e.Region)
}

// Trees aligns primary against partner with a two-cursor merge walk. Both
// trees are individually disjoint, so at most one relation holds per pair
// and no overlap is ever visited twice.
func Trees(primary, partner *tree.Tree) Plan {
	a, b := primary.Leaves(), partner.Leaves()

	order := primary.MaxOrder()
	if partner.MaxOrder() > order {
		order = partner.MaxOrder()
	}

	var entries []Entry
	for i, j := 0, 0; i < len(a) && j < len(b); {
		p, q := a[i].Pixel, b[j].Pixel
		switch {
		case p == q:
			entries = append(entries, Entry{Primary: p, Partner: q, Relation: Equal})
			i++
			j++
		case p.Contains(q):
			// p may cover further partner pixels; keep its cursor.
			entries = append(entries, Entry{Primary: p, Partner: q, Relation: Ancestor})
			j++
		case q.Contains(p):
			entries = append(entries, Entry{Primary: p, Partner: q, Relation: Descendant})
			i++
		case p.SkyKey(order) < q.SkyKey(order):
			i++
		default:
			j++
		}
	}
	return Plan{Entries: entries}
}

// CoverageTree lifts a coverage set from a geometry provider into a filtered
// tree, so region filtering can reuse the tree merge walk.
func CoverageTree(coverage []pixel.Pixel) (*tree.Tree, error) {
	leaves := make([]tree.Leaf, len(coverage))
	for i, p := range coverage {
		leaves[i] = tree.Leaf{Pixel: p}
	}
	return tree.BuildFiltered(leaves)
}

// FilterTree returns the sub-tree of t whose leaves overlap the coverage
// set. An empty result is surfaced as EmptyRegionError, never returned as a
// silently empty tree.
func FilterTree(t *tree.Tree, coverage []pixel.Pixel, region string) (*tree.Tree, error) {
	cov, err := CoverageTree(coverage)
	if err != nil {
		return nil, err
	}

	plan := Trees(t, cov)
	if len(plan.Entries) == 0 {
		return nil, &EmptyRegionError{Region: region}
	}

	keep := make(map[pixel.Pixel]struct{}, len(plan.Entries))
	for _, e := range plan.Entries {
		keep[e.Primary] = struct{}{}
	}
	return t.Filter(func(p pixel.Pixel) bool {
		_, ok := keep[p]
		return ok
	}), nil
}

func (p Plan) String() string {
	var sb strings.Builder
	for i, e := range p.Entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "(%s) %s (%s)", e.Primary, e.Relation, e.Partner)
	}
	return sb.String()
}
