package tree

import (
	"testing"

	"github.com/starcat-lab/starcat/internal/core/pixel"
	"github.com/stretchr/testify/require"
)

func TestBuildFromHistogram(t *testing.T) {
	// Order-1 histogram (48 bins). Base pixel 0 is dense enough to stay
	// split; everything else collapses to order 0.
	hist := make([]int64, 48)
	hist[0], hist[1], hist[2], hist[3] = 60, 60, 60, 60
	for i := 4; i < 48; i++ {
		hist[i] = 10
	}

	tr, err := BuildFromHistogram(hist, 1, 0, 100)
	require.NoError(t, err)
	require.False(t, tr.IsFiltered())

	// 4 order-1 leaves for base pixel 0, 11 order-0 leaves for the rest.
	require.Equal(t, 15, tr.Len())
	leaf, ok, err := tr.Locate(pixel.Pixel{Order: 1, Index: 2})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pixel.Pixel{Order: 1, Index: 2}, leaf.Pixel)
	require.Equal(t, int64(60), leaf.RowCount)

	leaf, ok, err = tr.Locate(pixel.Pixel{Order: 0, Index: 7})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(40), leaf.RowCount)

	// Empty regions are kept so the tree still covers the sphere.
	require.Equal(t, int64(240+440), tr.TotalRows())
}

func TestBuildFromHistogramLowestOrderFloor(t *testing.T) {
	// Everything fits under threshold, but lowestOrder forbids collapsing
	// past order 1.
	hist := make([]int64, 192)
	for i := range hist {
		hist[i] = 1
	}

	tr, err := BuildFromHistogram(hist, 2, 1, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, 48, tr.Len())
	require.Equal(t, 1, tr.MaxOrder())
}

func TestBuildFromHistogramErrors(t *testing.T) {
	hist := make([]int64, 12)

	_, err := BuildFromHistogram(hist, 1, 0, 100)
	require.ErrorContains(t, err, "48 bins")

	_, err = BuildFromHistogram(hist, 0, 0, 0)
	require.ErrorContains(t, err, "threshold")

	_, err = BuildFromHistogram(hist, 0, 1, 100)
	require.ErrorContains(t, err, "lowest order")

	// A single bin over threshold at the highest order cannot be split.
	hist[3] = 500
	_, err = BuildFromHistogram(hist, 0, 0, 100)
	var invalid *InvalidTreeError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, []pixel.Pixel{{Order: 0, Index: 3}}, invalid.Pixels)
}

func TestBuildFromHistogramEmptySky(t *testing.T) {
	// An all-zero histogram still produces a complete tree of empty
	// partitions at lowestOrder.
	tr, err := BuildFromHistogram(make([]int64, 48), 1, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 12, tr.Len())
	require.Equal(t, int64(0), tr.TotalRows())
}
