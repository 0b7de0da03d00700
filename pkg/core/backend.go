package core

import "github.com/nikolaydubina/fpdecimal"

// BookBackend defines the storage interface for resting orders. The
// matching algorithm only ever touches a side through its best-priority
// order, so the surface stays narrow: insertion, best lookup, and
// quantity mutation with removal on exhaustion.
//
// Implementations store the order object itself as the ordered element;
// the (price, timestamp) priority is the implementation's comparator, not
// a separate sort key carried next to the payload.
type BookBackend interface {
	// GetOrder returns the resting order with the given ID, or nil.
	GetOrder(orderID string) *Order

	// Insert adds an order to its side, preserving priority order.
	Insert(order *Order) error

	// PeekBest returns the highest-priority resting order on the given
	// side without mutating it, or nil if the side is empty.
	PeekBest(side Side) *Order

	// DecrementOrRemove reduces the order's quantity by the filled
	// amount and removes the order from its side when it reaches zero.
	DecrementOrRemove(order *Order, quantity fpdecimal.Decimal) error

	// Depth returns the number of resting orders on the given side.
	Depth(side Side) int

	// OrdersBySide returns the side's resting orders in priority order.
	// Read-only projection for tooling; not used by the match loop.
	OrdersBySide(side Side) []*Order
}
