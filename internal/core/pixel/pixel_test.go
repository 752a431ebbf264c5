package pixel

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumAtOrder(t *testing.T) {
	require.Equal(t, int64(12), NumAtOrder(0))
	require.Equal(t, int64(48), NumAtOrder(1))
	require.Equal(t, int64(192), NumAtOrder(2))
	require.Equal(t, int64(12288), NumAtOrder(5))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		order     int
		index     int64
		wantError bool
	}{
		{name: "base pixel", order: 0, index: 0},
		{name: "last base pixel", order: 0, index: 11},
		{name: "order 1", order: 1, index: 47},
		{name: "deepest order", order: MaxOrder, index: 0},
		{name: "negative order invalid", order: -1, index: 0, wantError: true},
		{name: "order too deep invalid", order: MaxOrder + 1, index: 0, wantError: true},
		{name: "negative index invalid", order: 0, index: -1, wantError: true},
		{name: "index out of range invalid", order: 0, index: 12, wantError: true},
		{name: "index out of range at order 1 invalid", order: 1, index: 48, wantError: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := New(tc.order, tc.index)
			if tc.wantError {
				require.Error(t, err)
				var invalid *InvalidPixelError
				require.ErrorAs(t, err, &invalid)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.order, p.Order)
			require.Equal(t, tc.index, p.Index)
		})
	}
}

func TestContains(t *testing.T) {
	base := Pixel{Order: 0, Index: 2}

	require.True(t, base.Contains(base))
	require.True(t, base.Contains(Pixel{Order: 1, Index: 8}))
	require.True(t, base.Contains(Pixel{Order: 1, Index: 11}))
	require.True(t, base.Contains(Pixel{Order: 3, Index: 2 << 6}))

	require.False(t, base.Contains(Pixel{Order: 1, Index: 7}))
	require.False(t, base.Contains(Pixel{Order: 1, Index: 12}))
	require.False(t, base.Contains(Pixel{Order: 0, Index: 1}))
	// A descendant never contains its ancestor.
	require.False(t, Pixel{Order: 1, Index: 8}.Contains(base))
}

func TestParentChildrenRoundTrip(t *testing.T) {
	p := Pixel{Order: 2, Index: 37}
	for _, c := range p.Children() {
		require.Equal(t, p, c.Parent())
		require.True(t, p.Contains(c))
	}

	require.Equal(t, Pixel{Order: 1, Index: 9}, p.Parent())

	// Base pixels are their own parents.
	require.Equal(t, Pixel{Order: 0, Index: 5}, Pixel{Order: 0, Index: 5}.Parent())
}

func TestParentAt(t *testing.T) {
	p := Pixel{Order: 3, Index: 200}

	got, err := p.ParentAt(1)
	require.NoError(t, err)
	require.Equal(t, Pixel{Order: 1, Index: 12}, got)

	same, err := p.ParentAt(3)
	require.NoError(t, err)
	require.Equal(t, p, same)

	_, err = p.ParentAt(4)
	require.Error(t, err)
	_, err = p.ParentAt(-1)
	require.Error(t, err)
}

func TestCompareSkyOrder(t *testing.T) {
	// Sorting mixed orders by Compare puts pixels in sky order with
	// ancestors ahead of their descendants.
	pixels := []Pixel{
		{Order: 0, Index: 1},
		{Order: 1, Index: 0},
		{Order: 1, Index: 3},
		{Order: 0, Index: 0},
		{Order: 2, Index: 2},
	}
	sort.Slice(pixels, func(i, j int) bool { return Compare(pixels[i], pixels[j]) < 0 })

	require.Equal(t, []Pixel{
		{Order: 0, Index: 0},
		{Order: 1, Index: 0},
		{Order: 2, Index: 2},
		{Order: 1, Index: 3},
		{Order: 0, Index: 1},
	}, pixels)

	require.Equal(t, 0, Compare(Pixel{Order: 1, Index: 4}, Pixel{Order: 1, Index: 4}))
	require.Equal(t, -1, Compare(Pixel{Order: 0, Index: 1}, Pixel{Order: 1, Index: 5}))
	require.Equal(t, 1, Compare(Pixel{Order: 1, Index: 5}, Pixel{Order: 0, Index: 1}))
}
