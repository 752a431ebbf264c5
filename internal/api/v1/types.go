// Package v1 holds the wire types of the catalog query API.
package v1

import (
	"fmt"

	"github.com/starcat-lab/starcat/internal/core/pixel"
	"github.com/starcat-lab/starcat/internal/core/sphere"
)

// PixelRef is the wire form of a pixel identifier.
type PixelRef struct {
	Order int   `json:"order"`
	Index int64 `json:"index"`
}

// ToPixel converts and validates the reference.
func (r PixelRef) ToPixel() (pixel.Pixel, error) {
	return pixel.New(r.Order, r.Index)
}

// RefOf converts a core pixel to its wire form.
func RefOf(p pixel.Pixel) PixelRef {
	return PixelRef{Order: p.Order, Index: p.Index}
}

// CatalogInfo describes one registered catalog.
type CatalogInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Partitions int    `json:"partitions"`
	TotalRows  int64  `json:"total_rows"`
}

// PartitionInfo is one leaf partition of a catalog.
type PartitionInfo struct {
	Pixel      PixelRef `json:"pixel"`
	RowCount   int64    `json:"row_count"`
	StorageRef string   `json:"storage_ref,omitempty"`
}

// AlignmentEntry is one overlapping partition pair of an alignment plan.
type AlignmentEntry struct {
	Primary  PixelRef `json:"primary"`
	Partner  PixelRef `json:"partner"`
	Relation string   `json:"relation"`
}

// MarginMapping says rows under Source must also be read when querying near
// Target's boundary.
type MarginMapping struct {
	Source PixelRef `json:"source"`
	Target PixelRef `json:"target"`
}

// RegisterRequest names a catalog the loader should materialize.
type RegisterRequest struct {
	Name string `json:"name"`
}

// Validate ensures the request is usable.
func (r *RegisterRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// RegionRequest describes a sky region to filter by. Type selects which of
// the optional blocks applies.
type RegionRequest struct {
	Type string `json:"type"` // order_slice | cone | box | polygon

	// order_slice
	Order    int    `json:"order,omitempty"`
	MinIndex int64  `json:"min_index,omitempty"`
	MaxIndex *int64 `json:"max_index,omitempty"` // inclusive; omit for the rest of the order

	// cone
	RA           float64 `json:"ra,omitempty"`
	Dec          float64 `json:"dec,omitempty"`
	RadiusArcsec float64 `json:"radius_arcsec,omitempty"`

	// box
	RAMin  float64 `json:"ra_min,omitempty"`
	RAMax  float64 `json:"ra_max,omitempty"`
	DecMin float64 `json:"dec_min,omitempty"`
	DecMax float64 `json:"dec_max,omitempty"`

	// polygon
	Vertices [][2]float64 `json:"vertices,omitempty"`
}

// ToRegion converts the request to its core region form.
func (r *RegionRequest) ToRegion() (sphere.Region, error) {
	switch r.Type {
	case "order_slice":
		max := int64(-1)
		if r.MaxIndex != nil {
			max = *r.MaxIndex
		}
		return sphere.OrderSlice{Order: r.Order, MinIndex: r.MinIndex, MaxIndex: max}, nil
	case "cone":
		if r.RadiusArcsec <= 0 {
			return nil, fmt.Errorf("cone radius must be positive")
		}
		return sphere.Cone{RA: r.RA, Dec: r.Dec, RadiusArcsec: r.RadiusArcsec}, nil
	case "box":
		return sphere.Box{RAMin: r.RAMin, RAMax: r.RAMax, DecMin: r.DecMin, DecMax: r.DecMax}, nil
	case "polygon":
		if len(r.Vertices) < 3 {
			return nil, fmt.Errorf("polygon needs at least 3 vertices")
		}
		return sphere.Polygon{Vertices: r.Vertices}, nil
	default:
		return nil, fmt.Errorf("unknown region type %q", r.Type)
	}
}

// MarginRequest asks for boundary pixel mappings at a threshold. A nil
// threshold means "use the service default"; an explicit 0 is honored and
// yields no mappings.
type MarginRequest struct {
	ThresholdArcsec *float64 `json:"threshold_arcsec,omitempty"`
}

// StatisticsRequest restricts aggregation to a pixel subset. An empty
// subset aggregates the whole catalog.
type StatisticsRequest struct {
	Pixels []PixelRef `json:"pixels,omitempty"`
}

// ColumnSummary is the wire form of one column's statistics.
type ColumnSummary struct {
	Min       *string `json:"min,omitempty"`
	Max       *string `json:"max,omitempty"`
	NullCount int64   `json:"null_count"`
}

// PixelStatistics summarizes one pixel of the aggregation result.
type PixelStatistics struct {
	Pixel    PixelRef                 `json:"pixel"`
	RowCount int64                    `json:"row_count"`
	Columns  map[string]ColumnSummary `json:"columns,omitempty"`
}
