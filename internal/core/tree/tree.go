// Package tree holds the partition tree of one catalog: the ordered set of
// leaf pixels that disjointly (and, unless filtered, completely) covers the
// sphere. Trees are built once at catalog-load time and never mutated;
// filtering produces a fresh tree.
package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starcat-lab/starcat/internal/core/pixel"
)

// Leaf is one partition of a catalog: a pixel, the number of rows stored
// under it, and an opaque storage reference owned by the I/O layer.
type Leaf struct {
	Pixel      pixel.Pixel
	RowCount   int64
	StorageRef string
}

// InvalidTreeError reports a leaf list that violates disjointness or
// completeness. Pixels carries the offending identifiers.
type InvalidTreeError struct {
	Pixels []pixel.Pixel
	Reason string
}

func (e *InvalidTreeError) Error() string {
	if len(e.Pixels) == 0 {
		return fmt.Sprintf("invalid partition tree: %s", e.Reason)
	}
	parts := make([]string, len(e.Pixels))
	for i, p := range e.Pixels {
		parts[i] = p.String()
	}
	return fmt.Sprintf("invalid partition tree: %s [%s]", e.Reason, strings.Join(parts, "; "))
}

// Tree is an immutable partition tree. The zero value is not usable; build
// one with Build, BuildFiltered, or Empty.
type Tree struct {
	// leaves sorted in sky order (pixel.Compare).
	leaves   []Leaf
	maxOrder int
	filtered bool
}

// Empty returns the sentinel tree of a catalog with zero rows. It is valid
// but covers nothing.
func Empty() *Tree {
	return &Tree{}
}

// Build constructs a full-coverage tree from a catalog's leaf partitions.
// The leaves must tile the whole sphere exactly once. An empty leaf list
// yields the empty sentinel, since some catalogs legitimately contain zero
// rows.
func Build(leaves []Leaf) (*Tree, error) {
	return build(leaves, false)
}

// BuildFiltered constructs a sub-tree: disjointness is still enforced but
// the leaves need not cover the sphere.
func BuildFiltered(leaves []Leaf) (*Tree, error) {
	return build(leaves, true)
}

func build(leaves []Leaf, filtered bool) (*Tree, error) {
	if len(leaves) == 0 {
		t := Empty()
		t.filtered = filtered
		return t, nil
	}

	sorted := make([]Leaf, len(leaves))
	copy(sorted, leaves)

	maxOrder := 0
	for _, l := range sorted {
		if err := l.Pixel.Check(); err != nil {
			return nil, err
		}
		if l.RowCount < 0 {
			return nil, &InvalidTreeError{
				Pixels: []pixel.Pixel{l.Pixel},
				Reason: fmt.Sprintf("negative row count %d", l.RowCount),
			}
		}
		if l.Pixel.Order > maxOrder {
			maxOrder = l.Pixel.Order
		}
	}

	sort.Slice(sorted, func(i, j int) bool {
		return pixel.Compare(sorted[i].Pixel, sorted[j].Pixel) < 0
	})

	// In sky order an ancestor sorts immediately before its descendants, so
	// any overlap in the set shows up between consecutive leaves.
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1].Pixel, sorted[i].Pixel
		if prev == cur {
			return nil, &InvalidTreeError{
				Pixels: []pixel.Pixel{cur},
				Reason: "duplicate pixel",
			}
		}
		if prev.Contains(cur) {
			return nil, &InvalidTreeError{
				Pixels: []pixel.Pixel{prev, cur},
				Reason: "overlapping pixels",
			}
		}
	}

	if !filtered {
		// Disjointness holds, so full coverage is equivalent to the covered
		// areas summing to the whole sphere at the finest present order.
		var covered int64
		for _, l := range sorted {
			covered += int64(1) << (2 * uint(maxOrder-l.Pixel.Order))
		}
		if covered != pixel.NumAtOrder(maxOrder) {
			return nil, &InvalidTreeError{
				Reason: fmt.Sprintf("incomplete sky coverage: %d of %d pixels at order %d",
					covered, pixel.NumAtOrder(maxOrder), maxOrder),
			}
		}
	}

	return &Tree{leaves: sorted, maxOrder: maxOrder, filtered: filtered}, nil
}

// IsEmpty reports whether this is the zero-row sentinel tree.
func (t *Tree) IsEmpty() bool { return len(t.leaves) == 0 }

// IsFiltered reports whether this tree is a sub-tree that need not cover the
// whole sphere.
func (t *Tree) IsFiltered() bool { return t.filtered }

// Len returns the number of leaf partitions.
func (t *Tree) Len() int { return len(t.leaves) }

// MaxOrder returns the finest order present among the leaves.
func (t *Tree) MaxOrder() int { return t.maxOrder }

// Leaves returns the leaf partitions in sky order. The returned slice is the
// tree's backing storage and must not be modified.
func (t *Tree) Leaves() []Leaf { return t.leaves }

// TotalRows returns the sum of all leaf row counts.
func (t *Tree) TotalRows() int64 {
	var n int64
	for _, l := range t.leaves {
		n += l.RowCount
	}
	return n
}

// Contains reports whether p falls within a covered partition: p is a leaf
// itself or a descendant of one.
func (t *Tree) Contains(p pixel.Pixel) (bool, error) {
	_, ok, err := t.Locate(p)
	return ok, err
}

// Locate returns the leaf covering p: the leaf equal to p or the leaf that
// is p's ancestor. A pixel finer than the tree's coverage resolves to its
// owning leaf; a pixel coarser than every overlapping leaf is not covered by
// a single member and reports false.
func (t *Tree) Locate(p pixel.Pixel) (Leaf, bool, error) {
	if err := p.Check(); err != nil {
		return Leaf{}, false, err
	}
	if t.IsEmpty() {
		return Leaf{}, false, nil
	}

	order := t.searchOrder(p)
	key := p.SkyKey(order)

	// Rightmost leaf starting at or before p in sky order.
	i := sort.Search(len(t.leaves), func(i int) bool {
		return t.leaves[i].Pixel.SkyKey(order) > key
	})
	if i == 0 {
		return Leaf{}, false, nil
	}
	candidate := t.leaves[i-1]
	if candidate.Pixel.Contains(p) {
		return candidate, true, nil
	}
	return Leaf{}, false, nil
}

// Overlapping returns every leaf whose region intersects p: the single leaf
// covering p, or all leaves descending from p when p is coarser than the
// local partitioning. Used by margin computation, where a same-order
// neighbor of one leaf may subdivide into several members of the tree.
func (t *Tree) Overlapping(p pixel.Pixel) ([]Leaf, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}
	if t.IsEmpty() {
		return nil, nil
	}

	if leaf, ok, err := t.Locate(p); err != nil {
		return nil, err
	} else if ok {
		return []Leaf{leaf}, nil
	}

	order := t.searchOrder(p)
	start, end := p.SkyKey(order), p.SkyKeyEnd(order)
	i := sort.Search(len(t.leaves), func(i int) bool {
		return t.leaves[i].Pixel.SkyKey(order) >= start
	})
	var out []Leaf
	for ; i < len(t.leaves) && t.leaves[i].Pixel.SkyKey(order) < end; i++ {
		out = append(out, t.leaves[i])
	}
	return out, nil
}

// Filter returns the sub-tree of leaves satisfying keep. The result is a
// filtered tree; the receiver is left untouched.
func (t *Tree) Filter(keep func(pixel.Pixel) bool) *Tree {
	var kept []Leaf
	for _, l := range t.leaves {
		if keep(l.Pixel) {
			kept = append(kept, l)
		}
	}
	// Leaves are already sorted and mutually disjoint; no re-validation
	// needed for a subset.
	sub := &Tree{leaves: kept, filtered: true}
	for _, l := range kept {
		if l.Pixel.Order > sub.maxOrder {
			sub.maxOrder = l.Pixel.Order
		}
	}
	return sub
}

// searchOrder returns a common order for sky-key comparisons involving p.
func (t *Tree) searchOrder(p pixel.Pixel) int {
	if p.Order > t.maxOrder {
		return p.Order
	}
	return t.maxOrder
}
