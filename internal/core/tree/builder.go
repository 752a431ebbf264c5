package tree

import (
	"fmt"

	"github.com/starcat-lab/starcat/internal/core/pixel"
)

// BuildFromHistogram derives a partition tree from a full row-count histogram
// at highestOrder. Sibling quads are collapsed into their parent wherever the
// combined count fits under threshold, but never above lowestOrder, which
// caps how spatially large a single partition may grow. Every sky region is
// kept, including empty ones, so the resulting tree covers the full sphere.
//
// The histogram must have exactly 12*4^highestOrder bins, and no single bin
// may exceed threshold: a bin that does cannot be split any further.
func BuildFromHistogram(hist []int64, highestOrder, lowestOrder int, threshold int64) (*Tree, error) {
	if highestOrder < 0 || highestOrder > pixel.MaxOrder {
		return nil, fmt.Errorf("highest order %d out of range [0, %d]", highestOrder, pixel.MaxOrder)
	}
	if lowestOrder < 0 || lowestOrder > highestOrder {
		return nil, fmt.Errorf("lowest order %d out of range [0, %d]", lowestOrder, highestOrder)
	}
	if threshold <= 0 {
		return nil, fmt.Errorf("row threshold must be positive, got %d", threshold)
	}
	if int64(len(hist)) != pixel.NumAtOrder(highestOrder) {
		return nil, fmt.Errorf("histogram has %d bins, want %d for order %d",
			len(hist), pixel.NumAtOrder(highestOrder), highestOrder)
	}

	var leaves []Leaf
	for base := int64(0); base < 12; base++ {
		root := pixel.Pixel{Order: 0, Index: base}
		var err error
		leaves, err = appendPartitions(leaves, root, hist, highestOrder, lowestOrder, threshold)
		if err != nil {
			return nil, err
		}
	}
	return Build(leaves)
}

// appendPartitions recursively splits p until its row count fits threshold,
// honoring the lowestOrder floor before thresholding may apply.
func appendPartitions(leaves []Leaf, p pixel.Pixel, hist []int64, highestOrder, lowestOrder int, threshold int64) ([]Leaf, error) {
	count := rangeSum(hist, p, highestOrder)

	if p.Order >= lowestOrder && count <= threshold {
		return append(leaves, Leaf{Pixel: p, RowCount: count}), nil
	}
	if p.Order == highestOrder {
		return nil, &InvalidTreeError{
			Pixels: []pixel.Pixel{p},
			Reason: fmt.Sprintf("%d rows exceed threshold %d at the highest order", count, threshold),
		}
	}

	for _, c := range p.Children() {
		var err error
		leaves, err = appendPartitions(leaves, c, hist, highestOrder, lowestOrder, threshold)
		if err != nil {
			return nil, err
		}
	}
	return leaves, nil
}

func rangeSum(hist []int64, p pixel.Pixel, highestOrder int) int64 {
	var sum int64
	for i, end := p.SkyKey(highestOrder), p.SkyKeyEnd(highestOrder); i < end; i++ {
		sum += hist[i]
	}
	return sum
}
