package sphere

import (
	"testing"

	"github.com/starcat-lab/starcat/internal/core/pixel"
	"github.com/stretchr/testify/require"
)

func TestOrderCoverage(t *testing.T) {
	var oc OrderCoverage

	pixels, err := oc.Coverage(OrderSlice{Order: 0, MinIndex: 0, MaxIndex: -1}, 2)
	require.NoError(t, err)
	require.Len(t, pixels, 12)
	require.Equal(t, pixel.Pixel{Order: 0, Index: 0}, pixels[0])
	require.Equal(t, pixel.Pixel{Order: 0, Index: 11}, pixels[11])

	pixels, err = oc.Coverage(OrderSlice{Order: 1, MinIndex: 4, MaxIndex: 7}, 1)
	require.NoError(t, err)
	require.Len(t, pixels, 4)
	require.Equal(t, int64(4), pixels[0].Index)
	require.Equal(t, int64(7), pixels[3].Index)

	// MaxIndex past the end is clamped.
	pixels, err = oc.Coverage(OrderSlice{Order: 0, MinIndex: 10, MaxIndex: 500}, 0)
	require.NoError(t, err)
	require.Len(t, pixels, 2)
}

func TestOrderCoverageErrors(t *testing.T) {
	var oc OrderCoverage

	_, err := oc.Coverage(Cone{RA: 10, Dec: 20, RadiusArcsec: 30}, 5)
	require.ErrorContains(t, err, "cannot serve")

	_, err = oc.Coverage(OrderSlice{Order: 3}, 2)
	require.ErrorContains(t, err, "outside")

	_, err = oc.Coverage(OrderSlice{Order: 0, MinIndex: 8, MaxIndex: 3}, 0)
	require.ErrorContains(t, err, "empty index range")
}

func TestRegionDescribe(t *testing.T) {
	require.Contains(t, Cone{RA: 1, Dec: 2, RadiusArcsec: 3}.Describe(), "cone")
	require.Contains(t, Box{RAMin: 0, RAMax: 10}.Describe(), "box")
	require.Contains(t, Polygon{Vertices: [][2]float64{{0, 0}, {1, 0}, {0, 1}}}.Describe(), "3 vertices")
	require.Contains(t, OrderSlice{Order: 2}.Describe(), "order 2")
}
