// Package stats rolls per-partition column statistics up the pixel
// hierarchy and answers range queries restricted to a pixel subset. Column
// values are decimals so min/max merging stays exact across integer and
// floating column types.
package stats

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/starcat-lab/starcat/internal/core/pixel"
	"github.com/starcat-lab/starcat/internal/core/tree"
)

// ColumnStat summarizes one column within one pixel. Min/Max are unset when
// every row is null; nulls are treated as absent for min/max and only
// counted.
type ColumnStat struct {
	Min       decimal.NullDecimal
	Max       decimal.NullDecimal
	NullCount int64
}

// Statistic summarizes one pixel: its row count plus per-column summaries.
type Statistic struct {
	Pixel    pixel.Pixel
	RowCount int64
	Columns  map[string]ColumnStat
}

// MissingStatisticError reports a tree leaf with no supplied statistics.
type MissingStatisticError struct {
	Pixel pixel.Pixel
}

func (e *MissingStatisticError) Error() string {
	return fmt.Sprintf("no statistics supplied for leaf pixel %s", e.Pixel)
}

// MergeColumn folds two column summaries: min/max with null as identity,
// null counts summed.
func MergeColumn(a, b ColumnStat) ColumnStat {
	out := ColumnStat{NullCount: a.NullCount + b.NullCount}

	out.Min = a.Min
	if b.Min.Valid && (!out.Min.Valid || b.Min.Decimal.LessThan(out.Min.Decimal)) {
		out.Min = b.Min
	}
	out.Max = a.Max
	if b.Max.Valid && (!out.Max.Valid || b.Max.Decimal.GreaterThan(out.Max.Decimal)) {
		out.Max = b.Max
	}
	return out
}

// Merge folds child into parent, keeping parent.Pixel.
func Merge(parent, child Statistic) Statistic {
	out := Statistic{
		Pixel:    parent.Pixel,
		RowCount: parent.RowCount + child.RowCount,
		Columns:  make(map[string]ColumnStat, len(parent.Columns)),
	}
	for name, cs := range parent.Columns {
		out.Columns[name] = cs
	}
	for name, cs := range child.Columns {
		out.Columns[name] = MergeColumn(out.Columns[name], cs)
	}
	return out
}

// Aggregate computes a statistic for every tree member and every ancestor up
// to the base pixels, bottom-up. Leaf statistics are supplied externally;
// a tree leaf without an entry fails the whole aggregation.
func Aggregate(t *tree.Tree, leafStats map[pixel.Pixel]Statistic) (map[pixel.Pixel]Statistic, error) {
	result := make(map[pixel.Pixel]Statistic)
	if t.IsEmpty() {
		return result, nil
	}

	perOrder := make(map[int][]pixel.Pixel)
	for _, leaf := range t.Leaves() {
		stat, ok := leafStats[leaf.Pixel]
		if !ok {
			return nil, &MissingStatisticError{Pixel: leaf.Pixel}
		}
		stat.Pixel = leaf.Pixel
		result[leaf.Pixel] = stat
		perOrder[leaf.Pixel.Order] = append(perOrder[leaf.Pixel.Order], leaf.Pixel)
	}

	// Decreasing order: each pixel folds into its parent's accumulator, and
	// freshly created parents continue upward on the next pass.
	for order := t.MaxOrder(); order > 0; order-- {
		pixels := perOrder[order]
		sort.Slice(pixels, func(i, j int) bool { return pixels[i].Index < pixels[j].Index })
		for _, p := range pixels {
			parent := p.Parent()
			acc, ok := result[parent]
			if !ok {
				acc = Statistic{Pixel: parent, Columns: map[string]ColumnStat{}}
				perOrder[parent.Order] = append(perOrder[parent.Order], parent)
			}
			result[parent] = Merge(acc, result[p])
		}
	}
	return result, nil
}

// Restrict aggregates only the given subset of tree members, answering
// "statistics within this query region" without re-deriving from raw data.
// Ancestors in the result reflect the subset alone. Subset pixels that are
// not tree members are reported as missing.
func Restrict(t *tree.Tree, subset []pixel.Pixel, leafStats map[pixel.Pixel]Statistic) (map[pixel.Pixel]Statistic, error) {
	keep := make(map[pixel.Pixel]struct{}, len(subset))
	for _, p := range subset {
		if err := p.Check(); err != nil {
			return nil, err
		}
		keep[p] = struct{}{}
	}

	members := make(map[pixel.Pixel]struct{}, t.Len())
	for _, leaf := range t.Leaves() {
		members[leaf.Pixel] = struct{}{}
	}
	for p := range keep {
		if _, ok := members[p]; !ok {
			return nil, &MissingStatisticError{Pixel: p}
		}
	}

	sub := t.Filter(func(p pixel.Pixel) bool {
		_, ok := keep[p]
		return ok
	})
	return Aggregate(sub, leafStats)
}

// Combine merges every statistic of the given pixels into one summary, e.g.
// the grand total of a restricted region. The result carries no pixel of its
// own.
func Combine(stats map[pixel.Pixel]Statistic, pixels []pixel.Pixel) (Statistic, error) {
	total := Statistic{Columns: map[string]ColumnStat{}}
	for _, p := range pixels {
		s, ok := stats[p]
		if !ok {
			return Statistic{}, &MissingStatisticError{Pixel: p}
		}
		total = Merge(total, s)
	}
	return total, nil
}
