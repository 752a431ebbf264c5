package metadata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/starcat-lab/starcat/internal/catalog"
	"github.com/starcat-lab/starcat/internal/core/pixel"
	"github.com/stretchr/testify/require"
)

const objectManifest = `
name: small_sky
kind: object
partitions:
  - order: 1
    index: 0
    rows: 10
    path: Norder=1/Npix=0/part0.parquet
    columns:
      mag_r: {min: "10.5", max: "21.2", nulls: 3}
  - order: 1
    index: 1
    rows: 20
  - order: 1
    index: 2
    rows: 30
  - order: 1
    index: 3
    rows: 40
  - order: 0
    index: 1
    rows: 1
  - {order: 0, index: 2, rows: 1}
  - {order: 0, index: 3, rows: 1}
  - {order: 0, index: 4, rows: 1}
  - {order: 0, index: 5, rows: 1}
  - {order: 0, index: 6, rows: 1}
  - {order: 0, index: 7, rows: 1}
  - {order: 0, index: 8, rows: 1}
  - {order: 0, index: 9, rows: 1}
  - {order: 0, index: 10, rows: 1}
  - {order: 0, index: 11, rows: 1}
`

const marginManifest = `
name: small_sky_margin
kind: margin
primary_catalog: small_sky
margin_threshold_arcsec: 7200
partitions:
  - {order: 1, index: 0, rows: 4}
  - {order: 1, index: 3, rows: 2}
`

const associationManifest = `
name: small_sky_to_big
kind: association
partitions:
  - {order: 1, index: 0, rows: 7}
join:
  - {order: 1, index: 0, join_order: 2, join_index: 3}
  - {order: 1, index: 0, join_order: 2, join_index: 4}
`

func TestParseObjectManifest(t *testing.T) {
	cat, err := Parse([]byte(objectManifest))
	require.NoError(t, err)

	require.Equal(t, "small_sky", cat.Name)
	require.Equal(t, catalog.KindObject, cat.Kind)
	require.False(t, cat.Tree.IsFiltered())
	require.Equal(t, 15, cat.Tree.Len())
	require.Equal(t, int64(111), cat.Tree.TotalRows())
	require.False(t, cat.LoadedAt.IsZero())

	leaf, ok, err := cat.Tree.Locate(pixel.Pixel{Order: 1, Index: 0})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Norder=1/Npix=0/part0.parquet", leaf.StorageRef)

	stat := cat.LeafStats[pixel.Pixel{Order: 1, Index: 0}]
	require.Equal(t, int64(10), stat.RowCount)
	require.Equal(t, "10.5", stat.Columns["mag_r"].Min.Decimal.String())
	require.Equal(t, "21.2", stat.Columns["mag_r"].Max.Decimal.String())
	require.Equal(t, int64(3), stat.Columns["mag_r"].NullCount)
}

func TestParseMarginManifest(t *testing.T) {
	cat, err := Parse([]byte(marginManifest))
	require.NoError(t, err)

	require.Equal(t, catalog.KindMargin, cat.Kind)
	require.True(t, cat.Tree.IsFiltered())
	require.Equal(t, "small_sky", cat.PrimaryCatalog)
	require.Equal(t, float64(7200), cat.MarginThresholdArcsec)
}

func TestParseAssociationManifest(t *testing.T) {
	cat, err := Parse([]byte(associationManifest))
	require.NoError(t, err)

	require.Equal(t, catalog.KindAssociation, cat.Kind)
	require.Len(t, cat.JoinInfo, 2)
	require.Equal(t, pixel.Pixel{Order: 1, Index: 0}, cat.JoinInfo[0].Primary)
	require.Equal(t, pixel.Pixel{Order: 2, Index: 3}, cat.JoinInfo[0].Join)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		want     string
	}{
		{
			name:     "bad yaml",
			manifest: "name: [unclosed",
			want:     "parse",
		},
		{
			name:     "unknown kind",
			manifest: "name: x\nkind: nebula\npartitions: []",
			want:     "unknown kind",
		},
		{
			name:     "bad pixel",
			manifest: "name: x\nkind: object\npartitions:\n  - {order: 0, index: 99, rows: 1}",
			want:     "invalid pixel",
		},
		{
			name:     "incomplete object sky",
			manifest: "name: x\nkind: object\npartitions:\n  - {order: 0, index: 0, rows: 1}",
			want:     "incomplete",
		},
		{
			name:     "bad decimal",
			manifest: "name: x\nkind: margin\nprimary_catalog: y\npartitions:\n  - order: 0\n    index: 0\n    rows: 1\n    columns:\n      m: {min: \"abc\"}",
			want:     "bad min",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.manifest))
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "small_sky.yaml"), []byte(objectManifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "small_sky_margin.yaml"), []byte(marginManifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	loader := NewDirLoader(dir)

	names, err := loader.Names(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"small_sky", "small_sky_margin"}, names)

	cat, err := loader.Load(context.Background(), "small_sky")
	require.NoError(t, err)
	require.Equal(t, "small_sky", cat.Name)

	_, err = loader.Load(context.Background(), "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestDirLoaderNameMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "renamed.yaml"), []byte(objectManifest), 0o644))

	_, err := NewDirLoader(dir).Load(context.Background(), "renamed")
	require.ErrorContains(t, err, "declares catalog name")
}
