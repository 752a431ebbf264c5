package catalog

import (
	"testing"

	"github.com/starcat-lab/starcat/internal/core/pixel"
	"github.com/starcat-lab/starcat/internal/core/stats"
	"github.com/starcat-lab/starcat/internal/core/tree"
	"github.com/stretchr/testify/require"
)

func baseTree(t *testing.T) *tree.Tree {
	t.Helper()
	leaves := make([]tree.Leaf, 12)
	for i := range leaves {
		leaves[i] = tree.Leaf{Pixel: pixel.Pixel{Order: 0, Index: int64(i)}, RowCount: 10}
	}
	built, err := tree.Build(leaves)
	require.NoError(t, err)
	return built
}

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{KindObject, KindSource, KindAssociation, KindMap, KindMargin} {
		require.True(t, k.Valid(), string(k))
	}
	require.False(t, Kind("galaxy").Valid())
	require.False(t, Kind("").Valid())
}

func TestCatalogValidate(t *testing.T) {
	valid := func(t *testing.T) *Catalog {
		return &Catalog{Name: "small_sky", Kind: KindObject, Tree: baseTree(t)}
	}

	t.Run("object ok", func(t *testing.T) {
		require.NoError(t, valid(t).Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		c := valid(t)
		c.Name = ""
		require.ErrorContains(t, c.Validate(), "name is required")
	})

	t.Run("unknown kind", func(t *testing.T) {
		c := valid(t)
		c.Kind = "nebula"
		require.ErrorContains(t, c.Validate(), "unknown catalog kind")
	})

	t.Run("nil tree", func(t *testing.T) {
		c := valid(t)
		c.Tree = nil
		require.ErrorContains(t, c.Validate(), "no partition tree")
	})

	t.Run("association requires join info", func(t *testing.T) {
		c := valid(t)
		c.Kind = KindAssociation
		require.ErrorContains(t, c.Validate(), "no join info")

		c.JoinInfo = []JoinEntry{{
			Primary: pixel.Pixel{Order: 0, Index: 0},
			Join:    pixel.Pixel{Order: 1, Index: 2},
		}}
		require.NoError(t, c.Validate())
	})

	t.Run("association rejects malformed join pixel", func(t *testing.T) {
		c := valid(t)
		c.Kind = KindAssociation
		c.JoinInfo = []JoinEntry{{
			Primary: pixel.Pixel{Order: 0, Index: 0},
			Join:    pixel.Pixel{Order: 0, Index: 50},
		}}
		require.Error(t, c.Validate())
	})

	t.Run("object must not carry join info", func(t *testing.T) {
		c := valid(t)
		c.JoinInfo = []JoinEntry{{}}
		require.ErrorContains(t, c.Validate(), "must not carry join info")
	})

	t.Run("margin requires primary", func(t *testing.T) {
		c := valid(t)
		c.Kind = KindMargin
		require.ErrorContains(t, c.Validate(), "names no primary")

		c.PrimaryCatalog = "small_sky"
		c.MarginThresholdArcsec = 7200
		require.NoError(t, c.Validate())

		c.MarginThresholdArcsec = -1
		require.ErrorContains(t, c.Validate(), "negative threshold")
	})

	t.Run("empty association sentinel ok", func(t *testing.T) {
		empty, err := tree.Build(nil)
		require.NoError(t, err)
		c := &Catalog{Name: "empty_assoc", Kind: KindAssociation, Tree: empty}
		require.NoError(t, c.Validate())
	})
}

func TestCatalogPartition(t *testing.T) {
	c := &Catalog{Name: "small_sky", Kind: KindObject, Tree: baseTree(t)}

	leaf, err := c.Partition(pixel.Pixel{Order: 2, Index: 100})
	require.NoError(t, err)
	require.Equal(t, pixel.Pixel{Order: 0, Index: 6}, leaf.Pixel)

	_, err = c.Partition(pixel.Pixel{Order: 0, Index: 40})
	require.Error(t, err)

	var missing *MissingPixelError
	empty, buildErr := tree.BuildFiltered([]tree.Leaf{{Pixel: pixel.Pixel{Order: 1, Index: 3}}})
	require.NoError(t, buildErr)
	c2 := &Catalog{Name: "patch", Kind: KindMargin, PrimaryCatalog: "small_sky", Tree: empty}
	_, err = c2.Partition(pixel.Pixel{Order: 1, Index: 9})
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "patch", missing.Catalog)
}

func TestHasStatistics(t *testing.T) {
	c := &Catalog{Name: "s", Kind: KindObject, Tree: baseTree(t)}
	require.False(t, c.HasStatistics())

	c.LeafStats = make(map[pixel.Pixel]stats.Statistic)
	for _, leaf := range c.Tree.Leaves() {
		c.LeafStats[leaf.Pixel] = stats.Statistic{Pixel: leaf.Pixel, RowCount: leaf.RowCount}
	}
	require.True(t, c.HasStatistics())

	delete(c.LeafStats, pixel.Pixel{Order: 0, Index: 7})
	require.False(t, c.HasStatistics())
}
