// Package metadata implements the metadata-loader collaborator: it turns
// partition manifests into loaded catalogs. The core packages never read
// files; everything file-shaped stays here.
package metadata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/starcat-lab/starcat/internal/catalog"
	"github.com/starcat-lab/starcat/internal/core/pixel"
	"github.com/starcat-lab/starcat/internal/core/stats"
	"github.com/starcat-lab/starcat/internal/core/tree"
)

// Manifest is the on-disk description of one catalog: identity plus the flat
// leaf partition list the tree is built from.
type Manifest struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	// Margin catalogs only.
	PrimaryCatalog        string  `yaml:"primary_catalog,omitempty"`
	MarginThresholdArcsec float64 `yaml:"margin_threshold_arcsec,omitempty"`

	Partitions []Partition `yaml:"partitions"`

	// Association catalogs only.
	Join []JoinRow `yaml:"join,omitempty"`
}

// Partition is one leaf pixel entry of a manifest.
type Partition struct {
	Order int    `yaml:"order"`
	Index int64  `yaml:"index"`
	Rows  int64  `yaml:"rows"`
	Path  string `yaml:"path,omitempty"`

	Columns map[string]ColumnSummary `yaml:"columns,omitempty"`
}

// ColumnSummary carries one column's min/max/null-count for one partition.
// Min/Max are strings so decimal values survive the YAML round trip exactly.
type ColumnSummary struct {
	Min   *string `yaml:"min,omitempty"`
	Max   *string `yaml:"max,omitempty"`
	Nulls int64   `yaml:"nulls"`
}

// JoinRow maps a primary partition to a joined catalog's partition.
type JoinRow struct {
	Order     int   `yaml:"order"`
	Index     int64 `yaml:"index"`
	JoinOrder int   `yaml:"join_order"`
	JoinIndex int64 `yaml:"join_index"`
}

// Parse decodes and materializes a manifest into a catalog.
func Parse(raw []byte) (*catalog.Catalog, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m.Build()
}

// Build validates the manifest and constructs the catalog, including its
// partition tree and per-leaf statistics.
func (m *Manifest) Build() (*catalog.Catalog, error) {
	kind := catalog.Kind(m.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("manifest %q: unknown kind %q", m.Name, m.Kind)
	}

	leaves := make([]tree.Leaf, len(m.Partitions))
	leafStats := make(map[pixel.Pixel]stats.Statistic, len(m.Partitions))
	for i, part := range m.Partitions {
		p, err := pixel.New(part.Order, part.Index)
		if err != nil {
			return nil, fmt.Errorf("manifest %q: %w", m.Name, err)
		}
		leaves[i] = tree.Leaf{Pixel: p, RowCount: part.Rows, StorageRef: part.Path}

		stat := stats.Statistic{Pixel: p, RowCount: part.Rows, Columns: make(map[string]stats.ColumnStat, len(part.Columns))}
		for column, cs := range part.Columns {
			converted, err := cs.toColumnStat()
			if err != nil {
				return nil, fmt.Errorf("manifest %q, pixel %s, column %q: %w", m.Name, p, column, err)
			}
			stat.Columns[column] = converted
		}
		leafStats[p] = stat
	}

	built, err := catalog.BuildTree(kind, leaves)
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", m.Name, err)
	}

	cat := &catalog.Catalog{
		Name:                  m.Name,
		Kind:                  kind,
		Tree:                  built,
		LeafStats:             leafStats,
		PrimaryCatalog:        m.PrimaryCatalog,
		MarginThresholdArcsec: m.MarginThresholdArcsec,
		LoadedAt:              time.Now(),
	}
	for _, row := range m.Join {
		cat.JoinInfo = append(cat.JoinInfo, catalog.JoinEntry{
			Primary: pixel.Pixel{Order: row.Order, Index: row.Index},
			Join:    pixel.Pixel{Order: row.JoinOrder, Index: row.JoinIndex},
		})
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func (cs ColumnSummary) toColumnStat() (stats.ColumnStat, error) {
	out := stats.ColumnStat{NullCount: cs.Nulls}
	if cs.Min != nil {
		d, err := decimal.NewFromString(*cs.Min)
		if err != nil {
			return stats.ColumnStat{}, fmt.Errorf("bad min %q: %w", *cs.Min, err)
		}
		out.Min = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	if cs.Max != nil {
		d, err := decimal.NewFromString(*cs.Max)
		if err != nil {
			return stats.ColumnStat{}, fmt.Errorf("bad max %q: %w", *cs.Max, err)
		}
		out.Max = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	return out, nil
}

// DirLoader implements catalog.Loader over a directory of manifest files,
// one {name}.yaml per catalog.
type DirLoader struct {
	rootDir string
}

// NewDirLoader creates a loader rooted at rootDir.
func NewDirLoader(rootDir string) *DirLoader {
	return &DirLoader{rootDir: rootDir}
}

// Load reads and materializes root/{name}.yaml.
func (l *DirLoader) Load(_ context.Context, name string) (*catalog.Catalog, error) {
	raw, err := os.ReadFile(filepath.Join(l.rootDir, name+".yaml"))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%q: %w", name, catalog.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest for %q: %w", name, err)
	}

	cat, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if cat.Name != name {
		return nil, fmt.Errorf("manifest file %q declares catalog name %q", name, cat.Name)
	}
	return cat, nil
}

// Names lists every manifest in the root directory.
func (l *DirLoader) Names(context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list manifest dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return names, nil
}
