// Package query implements the catalog query API: registration, partition
// inspection, alignment, region filtering, margin computation, and
// statistics. It consumes the core packages and owns no catalog state of
// its own; everything lives behind the injected registry.
package query

import (
	"context"
	"errors"
	"fmt"
	"sort"

	v1 "github.com/starcat-lab/starcat/internal/api/v1"
	"github.com/starcat-lab/starcat/internal/catalog"
	"github.com/starcat-lab/starcat/internal/core/align"
	"github.com/starcat-lab/starcat/internal/core/margin"
	"github.com/starcat-lab/starcat/internal/core/pixel"
	"github.com/starcat-lab/starcat/internal/core/sphere"
	"github.com/starcat-lab/starcat/internal/core/stats"
	"github.com/starcat-lab/starcat/internal/core/tree"
)

var (
	// ErrNoCoverageProvider is returned for cone, box, and polygon regions
	// when no trigonometric coverage provider was configured.
	ErrNoCoverageProvider = errors.New("no coverage provider configured")
	// ErrNoNeighborProvider is returned for margin requests when no
	// neighbor provider was configured.
	ErrNoNeighborProvider = errors.New("no neighbor provider configured")
)

// Service wires the core algorithms to the HTTP layer. Coverage and
// neighbor providers are optional: without a trigonometric coverage
// provider only order_slice regions work, and without a neighbor provider
// margin computation is unavailable.
type Service struct {
	registry         *catalog.Registry
	coverage         sphere.CoverageProvider
	neighbors        sphere.NeighborProvider
	maxOrder         int
	defaultMarginSec float64
}

// NewService creates the query service. coverage and neighbors may be nil.
// defaultMarginArcsec is used for margin requests that leave the threshold
// unset.
func NewService(registry *catalog.Registry, coverage sphere.CoverageProvider, neighbors sphere.NeighborProvider, maxOrder int, defaultMarginArcsec float64) *Service {
	if maxOrder <= 0 || maxOrder > pixel.MaxOrder {
		maxOrder = pixel.MaxOrder
	}
	return &Service{
		registry:         registry,
		coverage:         coverage,
		neighbors:        neighbors,
		maxOrder:         maxOrder,
		defaultMarginSec: defaultMarginArcsec,
	}
}

// Register loads a catalog by name and returns its description.
func (s *Service) Register(ctx context.Context, name string) (v1.CatalogInfo, error) {
	reg, err := s.registry.Describe(ctx, name)
	if err != nil {
		return v1.CatalogInfo{}, err
	}
	return infoOf(reg), nil
}

// List describes every known catalog.
func (s *Service) List(ctx context.Context) ([]v1.CatalogInfo, error) {
	regs, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]v1.CatalogInfo, len(regs))
	for i, reg := range regs {
		out[i] = infoOf(reg)
	}
	return out, nil
}

// Partitions returns the leaf partition list of one catalog in sky order.
func (s *Service) Partitions(ctx context.Context, name string) ([]v1.PartitionInfo, error) {
	cat, err := s.registry.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return partitionInfos(cat.Tree.Leaves()), nil
}

// Locate resolves a pixel to the partition that owns it.
func (s *Service) Locate(ctx context.Context, name string, ref v1.PixelRef) (v1.PartitionInfo, error) {
	cat, err := s.registry.Get(ctx, name)
	if err != nil {
		return v1.PartitionInfo{}, err
	}

	p, err := ref.ToPixel()
	if err != nil {
		return v1.PartitionInfo{}, err
	}
	leaf, err := cat.Partition(p)
	if err != nil {
		return v1.PartitionInfo{}, err
	}
	return partitionInfo(leaf), nil
}

// Align produces the join plan between two registered catalogs.
func (s *Service) Align(ctx context.Context, name, other string) ([]v1.AlignmentEntry, error) {
	primary, err := s.registry.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	partner, err := s.registry.Get(ctx, other)
	if err != nil {
		return nil, err
	}

	plan := align.Trees(primary.Tree, partner.Tree)
	out := make([]v1.AlignmentEntry, len(plan.Entries))
	for i, e := range plan.Entries {
		out[i] = v1.AlignmentEntry{
			Primary:  v1.RefOf(e.Primary),
			Partner:  v1.RefOf(e.Partner),
			Relation: e.Relation.String(),
		}
	}
	return out, nil
}

// Filter returns the partitions of a catalog overlapping the given region.
func (s *Service) Filter(ctx context.Context, name string, region sphere.Region) ([]v1.PartitionInfo, error) {
	cat, err := s.registry.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	coverage, err := s.coverageFor(region)
	if err != nil {
		return nil, err
	}
	sub, err := align.FilterTree(cat.Tree, coverage, region.Describe())
	if err != nil {
		return nil, err
	}
	return partitionInfos(sub.Leaves()), nil
}

// Margins computes the deduplicated boundary mappings for a catalog. A nil
// threshold falls back to the service default; an explicit zero is passed
// through and produces no mappings.
func (s *Service) Margins(ctx context.Context, name string, thresholdArcsec *float64) ([]v1.MarginMapping, error) {
	if s.neighbors == nil {
		return nil, ErrNoNeighborProvider
	}
	threshold := s.defaultMarginSec
	if thresholdArcsec != nil {
		threshold = *thresholdArcsec
	}
	cat, err := s.registry.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	mappings, err := margin.Compute(cat.Tree, threshold, s.neighbors)
	if err != nil {
		return nil, err
	}
	out := make([]v1.MarginMapping, len(mappings))
	for i, m := range mappings {
		out[i] = v1.MarginMapping{Source: v1.RefOf(m.Source), Target: v1.RefOf(m.Target)}
	}
	return out, nil
}

// Statistics aggregates a catalog's column statistics, optionally restricted
// to a pixel subset. The response covers every requested member and every
// derived ancestor.
func (s *Service) Statistics(ctx context.Context, name string, subset []v1.PixelRef) ([]v1.PixelStatistics, error) {
	cat, err := s.registry.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	var result map[pixel.Pixel]stats.Statistic
	if len(subset) == 0 {
		result, err = stats.Aggregate(cat.Tree, cat.LeafStats)
	} else {
		pixels := make([]pixel.Pixel, len(subset))
		for i, ref := range subset {
			if pixels[i], err = ref.ToPixel(); err != nil {
				return nil, err
			}
		}
		result, err = stats.Restrict(cat.Tree, pixels, cat.LeafStats)
	}
	if err != nil {
		return nil, err
	}
	return statisticsList(result), nil
}

// coverageFor resolves a region to its covering pixel set, trying the plain
// order-slice arithmetic first and the injected trigonometric provider for
// everything else.
func (s *Service) coverageFor(region sphere.Region) ([]pixel.Pixel, error) {
	if _, ok := region.(sphere.OrderSlice); ok {
		return sphere.OrderCoverage{}.Coverage(region, s.maxOrder)
	}
	if s.coverage == nil {
		return nil, ErrNoCoverageProvider
	}
	coverage, err := s.coverage.Coverage(region, s.maxOrder)
	if err != nil {
		return nil, fmt.Errorf("coverage for %s: %w", region.Describe(), err)
	}
	return coverage, nil
}

func infoOf(reg catalog.Registration) v1.CatalogInfo {
	return v1.CatalogInfo{
		ID:         reg.ID,
		Name:       reg.Name,
		Kind:       string(reg.Kind),
		Partitions: reg.Partitions,
		TotalRows:  reg.TotalRows,
	}
}

func partitionInfo(leaf tree.Leaf) v1.PartitionInfo {
	return v1.PartitionInfo{
		Pixel:      v1.RefOf(leaf.Pixel),
		RowCount:   leaf.RowCount,
		StorageRef: leaf.StorageRef,
	}
}

func partitionInfos(leaves []tree.Leaf) []v1.PartitionInfo {
	out := make([]v1.PartitionInfo, len(leaves))
	for i, leaf := range leaves {
		out[i] = partitionInfo(leaf)
	}
	return out
}

func statisticsList(result map[pixel.Pixel]stats.Statistic) []v1.PixelStatistics {
	pixels := make([]pixel.Pixel, 0, len(result))
	for p := range result {
		pixels = append(pixels, p)
	}
	sortPixels(pixels)

	out := make([]v1.PixelStatistics, 0, len(pixels))
	for _, p := range pixels {
		stat := result[p]
		entry := v1.PixelStatistics{
			Pixel:    v1.RefOf(p),
			RowCount: stat.RowCount,
			Columns:  make(map[string]v1.ColumnSummary, len(stat.Columns)),
		}
		for column, cs := range stat.Columns {
			summary := v1.ColumnSummary{NullCount: cs.NullCount}
			if cs.Min.Valid {
				v := cs.Min.Decimal.String()
				summary.Min = &v
			}
			if cs.Max.Valid {
				v := cs.Max.Decimal.String()
				summary.Max = &v
			}
			entry.Columns[column] = summary
		}
		out = append(out, entry)
	}
	return out
}

func sortPixels(pixels []pixel.Pixel) {
	// Coarse-to-fine, then index within an order: stable for clients.
	sort.Slice(pixels, func(i, j int) bool {
		if pixels[i].Order != pixels[j].Order {
			return pixels[i].Order < pixels[j].Order
		}
		return pixels[i].Index < pixels[j].Index
	})
}
