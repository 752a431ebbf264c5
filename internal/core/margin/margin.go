// Package margin decides which partitions must replicate boundary rows into
// their neighbors so distributed queries near partition edges stay correct.
package margin

import (
	"fmt"
	"sort"

	"github.com/starcat-lab/starcat/internal/core/pixel"
	"github.com/starcat-lab/starcat/internal/core/sphere"
	"github.com/starcat-lab/starcat/internal/core/tree"
)

// Mapping states that rows stored under Source must also be considered when
// querying Target's neighborhood, because Source's region lies within the
// margin threshold of Target's boundary.
type Mapping struct {
	Source pixel.Pixel
	Target pixel.Pixel
}

// InvalidThresholdError reports a negative margin threshold.
type InvalidThresholdError struct {
	ThresholdArcsec float64
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("margin threshold must be non-negative, got %g arcsec", e.ThresholdArcsec)
}

// Compute returns every deduplicated Source→Target mapping for the tree at
// the given threshold. The neighbor provider decides how many rings the
// threshold demands at each leaf's angular size; the calculator never
// assumes a single ring. Mappings come back sorted by (Source, Target) sky
// order so output is deterministic.
func Compute(t *tree.Tree, thresholdArcsec float64, neighbors sphere.NeighborProvider) ([]Mapping, error) {
	if thresholdArcsec < 0 {
		return nil, &InvalidThresholdError{ThresholdArcsec: thresholdArcsec}
	}
	if thresholdArcsec == 0 || t.IsEmpty() {
		return nil, nil
	}

	seen := make(map[Mapping]struct{})
	for _, leaf := range t.Leaves() {
		ring, err := neighbors.Neighbors(leaf.Pixel, thresholdArcsec)
		if err != nil {
			return nil, fmt.Errorf("neighbor search for %s: %w", leaf.Pixel, err)
		}
		for _, n := range ring {
			// A same-order neighbor may resolve to one coarser member or
			// subdivide into several finer ones.
			owners, err := t.Overlapping(n)
			if err != nil {
				return nil, err
			}
			for _, owner := range owners {
				if owner.Pixel == leaf.Pixel {
					continue
				}
				seen[Mapping{Source: leaf.Pixel, Target: owner.Pixel}] = struct{}{}
			}
		}
	}

	out := make([]Mapping, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := pixel.Compare(out[i].Source, out[j].Source); c != 0 {
			return c < 0
		}
		return pixel.Compare(out[i].Target, out[j].Target) < 0
	})
	return out, nil
}
