// Package sphere defines the region descriptors and the spherical-geometry
// collaborator interfaces the core depends on. The trigonometry behind cone,
// box, and polygon coverage lives in external providers; only the pure
// index-arithmetic order coverage is implemented here.
package sphere

import (
	"fmt"

	"github.com/starcat-lab/starcat/internal/core/pixel"
)

// Region is a sky-region descriptor. Implementations are the fixed set
// below; providers switch on the concrete type.
type Region interface {
	// Describe returns a short human-readable form for logs and errors.
	Describe() string
}

// Cone is a circular region around a center point.
type Cone struct {
	RA, Dec      float64 // center, degrees
	RadiusArcsec float64
}

func (c Cone) Describe() string {
	return fmt.Sprintf("cone ra=%g dec=%g radius=%g\"", c.RA, c.Dec, c.RadiusArcsec)
}

// Box is a coordinate-range region. RA ranges may wrap through 0.
type Box struct {
	RAMin, RAMax   float64 // degrees
	DecMin, DecMax float64 // degrees
}

func (b Box) Describe() string {
	return fmt.Sprintf("box ra=[%g, %g] dec=[%g, %g]", b.RAMin, b.RAMax, b.DecMin, b.DecMax)
}

// Polygon is a closed region given by its ordered vertices.
type Polygon struct {
	Vertices [][2]float64 // (ra, dec) pairs, degrees
}

func (p Polygon) Describe() string {
	return fmt.Sprintf("polygon with %d vertices", len(p.Vertices))
}

// OrderSlice selects an index range of pixels at a single order. The
// zero-value Max of -1 means "through the last pixel".
type OrderSlice struct {
	Order    int
	MinIndex int64
	MaxIndex int64 // inclusive; -1 for the end of the order
}

func (o OrderSlice) Describe() string {
	return fmt.Sprintf("order %d pixels [%d, %d]", o.Order, o.MinIndex, o.MaxIndex)
}

// CoverageProvider approximates a region by a disjoint set of pixels at (or
// coarser than) maxOrder. Implementations for cone/box/polygon are external
// collaborators.
type CoverageProvider interface {
	Coverage(region Region, maxOrder int) ([]pixel.Pixel, error)
}

// NeighborProvider returns the same-order pixels whose shared boundary with
// p lies within thresholdArcsec. Implementations must widen the search to as
// many rings as the threshold demands at p's angular size; a fixed one-ring
// search under-covers when the threshold exceeds one pixel's width.
type NeighborProvider interface {
	Neighbors(p pixel.Pixel, thresholdArcsec float64) ([]pixel.Pixel, error)
}

// OrderCoverage serves OrderSlice regions with plain index arithmetic. Other
// region kinds are rejected so callers can fall back to a trigonometric
// provider.
type OrderCoverage struct{}

// Coverage returns the requested index range at the slice's own order.
// maxOrder only bounds the slice order; the result is never refined.
func (OrderCoverage) Coverage(region Region, maxOrder int) ([]pixel.Pixel, error) {
	slice, ok := region.(OrderSlice)
	if !ok {
		return nil, fmt.Errorf("order coverage cannot serve %s", region.Describe())
	}
	if slice.Order < 0 || slice.Order > maxOrder {
		return nil, fmt.Errorf("order %d outside [0, %d]", slice.Order, maxOrder)
	}

	last := pixel.NumAtOrder(slice.Order) - 1
	max := slice.MaxIndex
	if max < 0 || max > last {
		max = last
	}
	if slice.MinIndex < 0 || slice.MinIndex > max {
		return nil, fmt.Errorf("empty index range [%d, %d] at order %d", slice.MinIndex, max, slice.Order)
	}

	out := make([]pixel.Pixel, 0, max-slice.MinIndex+1)
	for i := slice.MinIndex; i <= max; i++ {
		out = append(out, pixel.Pixel{Order: slice.Order, Index: i})
	}
	return out, nil
}
