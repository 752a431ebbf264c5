package pixel

import "fmt"

// MaxOrder is the deepest subdivision order representable with 64-bit nested
// indices (12 * 4^29 still fits in an int64).
const MaxOrder = 29

// NumAtOrder returns the total number of pixels covering the sphere at the
// given order: 12 * 4^order.
func NumAtOrder(order int) int64 {
	return 12 << (2 * uint(order))
}

// Pixel identifies one equal-area cell of the hierarchical sky subdivision
// by its subdivision depth (Order) and nested index within that depth.
type Pixel struct {
	Order int
	Index int64
}

// InvalidPixelError reports a malformed pixel identifier, e.g. an index
// outside [0, 12*4^order).
type InvalidPixelError struct {
	Pixel  Pixel
	Reason string
}

func (e *InvalidPixelError) Error() string {
	return fmt.Sprintf("invalid pixel %s: %s", e.Pixel, e.Reason)
}

// New builds a validated pixel identifier.
func New(order int, index int64) (Pixel, error) {
	p := Pixel{Order: order, Index: index}
	if err := p.Check(); err != nil {
		return Pixel{}, err
	}
	return p, nil
}

// Check verifies the identifier is well-formed.
func (p Pixel) Check() error {
	if p.Order < 0 || p.Order > MaxOrder {
		return &InvalidPixelError{Pixel: p, Reason: fmt.Sprintf("order must be in [0, %d]", MaxOrder)}
	}
	if p.Index < 0 || p.Index >= NumAtOrder(p.Order) {
		return &InvalidPixelError{Pixel: p, Reason: fmt.Sprintf("index must be in [0, %d)", NumAtOrder(p.Order))}
	}
	return nil
}

func (p Pixel) String() string {
	return fmt.Sprintf("Order: %d, Pixel: %d", p.Order, p.Index)
}

// Contains reports whether q lies inside p, i.e. p == q or p is an ancestor
// of q under quad-tree subdivision.
func (p Pixel) Contains(q Pixel) bool {
	if q.Order < p.Order {
		return false
	}
	return q.Index>>(2*uint(q.Order-p.Order)) == p.Index
}

// ParentAt returns the ancestor of p at the given (coarser or equal) order.
func (p Pixel) ParentAt(order int) (Pixel, error) {
	if order < 0 || order > p.Order {
		return Pixel{}, &InvalidPixelError{
			Pixel:  p,
			Reason: fmt.Sprintf("no ancestor at order %d", order),
		}
	}
	return Pixel{Order: order, Index: p.Index >> (2 * uint(p.Order-order))}, nil
}

// Parent returns the immediate ancestor. The 12 base pixels at order 0 are
// their own parents.
func (p Pixel) Parent() Pixel {
	if p.Order == 0 {
		return p
	}
	return Pixel{Order: p.Order - 1, Index: p.Index >> 2}
}

// Children returns the four pixels p subdivides into at the next order.
func (p Pixel) Children() [4]Pixel {
	var out [4]Pixel
	for i := int64(0); i < 4; i++ {
		out[i] = Pixel{Order: p.Order + 1, Index: p.Index<<2 + i}
	}
	return out
}

// SkyKey returns the nested index of p's first descendant at atOrder. Sorting
// pixels of mixed orders by this key orders them by sky position, which is
// what the tree walk algorithms rely on: an ancestor always sorts immediately
// before its descendants.
func (p Pixel) SkyKey(atOrder int) int64 {
	return p.Index << (2 * uint(atOrder-p.Order))
}

// SkyKeyEnd returns the exclusive end of p's descendant index range at atOrder.
func (p Pixel) SkyKeyEnd(atOrder int) int64 {
	return (p.Index + 1) << (2 * uint(atOrder-p.Order))
}

// Compare orders two pixels by sky position, with ancestors before their
// descendants. Returns -1, 0, or +1.
func Compare(a, b Pixel) int {
	maxOrder := a.Order
	if b.Order > maxOrder {
		maxOrder = b.Order
	}
	ka, kb := a.SkyKey(maxOrder), b.SkyKey(maxOrder)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	}
	// Same sky position: the coarser pixel contains the finer one and
	// sorts first.
	switch {
	case a.Order < b.Order:
		return -1
	case a.Order > b.Order:
		return 1
	}
	return 0
}
