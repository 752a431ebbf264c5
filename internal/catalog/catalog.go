// Package catalog models a loaded sky catalog: its partition tree plus the
// metadata that varies by catalog kind. Catalogs are immutable after
// loading; the Registry caches them for reuse.
package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/starcat-lab/starcat/internal/core/pixel"
	"github.com/starcat-lab/starcat/internal/core/stats"
	"github.com/starcat-lab/starcat/internal/core/tree"
)

// Common errors
var (
	// ErrNotFound is returned when a catalog is not known to the loader.
	ErrNotFound = errors.New("catalog not found")
)

// Kind is the fixed enumeration of catalog kinds. Operations switch on it;
// there is no open-ended subclassing.
type Kind string

const (
	KindObject      Kind = "object"
	KindSource      Kind = "source"
	KindAssociation Kind = "association"
	KindMap         Kind = "map"
	KindMargin      Kind = "margin"
)

// Valid reports whether k is a known catalog kind.
func (k Kind) Valid() bool {
	switch k {
	case KindObject, KindSource, KindAssociation, KindMap, KindMargin:
		return true
	}
	return false
}

// JoinEntry maps one primary partition to one partition of the joined
// catalog. Association catalogs store these instead of raw rows.
type JoinEntry struct {
	Primary pixel.Pixel
	Join    pixel.Pixel
}

// Catalog is one loaded catalog: its identity, partition tree, and
// kind-specific metadata.
type Catalog struct {
	// Name is the catalog's unique name within a loader.
	Name string

	// Kind selects which of the optional fields below are meaningful.
	Kind Kind

	// Tree is the partition tree. Never nil; zero-row catalogs carry the
	// empty sentinel.
	Tree *tree.Tree

	// LeafStats holds externally supplied per-partition column statistics,
	// keyed by leaf pixel. May be empty for catalogs without summaries.
	LeafStats map[pixel.Pixel]stats.Statistic

	// JoinInfo is the primary→join partition mapping. Association kind only.
	JoinInfo []JoinEntry

	// PrimaryCatalog names the catalog this margin cache was derived from.
	// Margin kind only.
	PrimaryCatalog string

	// MarginThresholdArcsec is the boundary distance this margin cache was
	// built with. Margin kind only.
	MarginThresholdArcsec float64

	// LoadedAt is when the catalog was constructed in this process.
	LoadedAt time.Time
}

// Validate checks the kind-specific structural rules.
func (c *Catalog) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("catalog name is required")
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("unknown catalog kind %q", c.Kind)
	}
	if c.Tree == nil {
		return fmt.Errorf("catalog %q has no partition tree", c.Name)
	}

	switch c.Kind {
	case KindAssociation:
		if len(c.JoinInfo) == 0 && !c.Tree.IsEmpty() {
			return fmt.Errorf("association catalog %q has no join info", c.Name)
		}
		for _, e := range c.JoinInfo {
			if err := e.Primary.Check(); err != nil {
				return fmt.Errorf("association catalog %q: %w", c.Name, err)
			}
			if err := e.Join.Check(); err != nil {
				return fmt.Errorf("association catalog %q: %w", c.Name, err)
			}
		}
	case KindMargin:
		if c.PrimaryCatalog == "" {
			return fmt.Errorf("margin catalog %q names no primary catalog", c.Name)
		}
		if c.MarginThresholdArcsec < 0 {
			return fmt.Errorf("margin catalog %q has negative threshold %g", c.Name, c.MarginThresholdArcsec)
		}
	default:
		if len(c.JoinInfo) > 0 {
			return fmt.Errorf("%s catalog %q must not carry join info", c.Kind, c.Name)
		}
	}
	return nil
}

// MissingPixelError reports a lookup of a pixel outside the catalog's
// partition list.
type MissingPixelError struct {
	Catalog string
	Pixel   pixel.Pixel
}

func (e *MissingPixelError) Error() string {
	return fmt.Sprintf("catalog %q has no partition covering pixel %s", e.Catalog, e.Pixel)
}

// Partition resolves p to the leaf partition that owns it. A pixel outside
// the partition list, including one coarser than the local coverage, is a
// MissingPixelError.
func (c *Catalog) Partition(p pixel.Pixel) (tree.Leaf, error) {
	leaf, ok, err := c.Tree.Locate(p)
	if err != nil {
		return tree.Leaf{}, err
	}
	if !ok {
		return tree.Leaf{}, &MissingPixelError{Catalog: c.Name, Pixel: p}
	}
	return leaf, nil
}

// BuildTree builds the partition tree appropriate for kind. Margin and
// association catalogs list only the partitions near boundaries or with
// matches, so they are valid sub-trees; every other kind must tile the full
// sphere.
func BuildTree(kind Kind, leaves []tree.Leaf) (*tree.Tree, error) {
	if kind == KindMargin || kind == KindAssociation {
		return tree.BuildFiltered(leaves)
	}
	return tree.Build(leaves)
}

// HasStatistics reports whether every tree leaf has supplied statistics, so
// aggregation can run without a MissingStatisticError.
func (c *Catalog) HasStatistics() bool {
	for _, leaf := range c.Tree.Leaves() {
		if _, ok := c.LeafStats[leaf.Pixel]; !ok {
			return false
		}
	}
	return true
}
