package memory

import (
	"container/heap"
	"sort"
	"sync"

	"github.com/nikolaydubina/fpdecimal"

	"github.com/tradevine/matchcore/pkg/core"
)

// restingOrder wraps an order with its current heap position so removal
// stays O(log n) regardless of where the order sits.
type restingOrder struct {
	order *core.Order
	index int
}

// priorityFunc orders two resting orders; truth means a has strictly
// higher priority than b.
type priorityFunc func(a, b *core.Order) bool

// bidPriority ranks bids by price descending, earliest arrival first at
// equal price.
func bidPriority(a, b *core.Order) bool {
	if a.Price().Equal(b.Price()) {
		return a.Timestamp() < b.Timestamp()
	}
	return a.Price().GreaterThan(b.Price())
}

// askPriority ranks asks by price ascending, earliest arrival first at
// equal price.
func askPriority(a, b *core.Order) bool {
	if a.Price().Equal(b.Price()) {
		return a.Timestamp() < b.Timestamp()
	}
	return a.Price().LessThan(b.Price())
}

// sideHeap is a binary heap of resting orders. The comparator is
// supplied externally so the ordered element is the order itself, never
// a detached sort key.
type sideHeap struct {
	entries []*restingOrder
	less    priorityFunc
}

func newSideHeap(less priorityFunc) *sideHeap {
	return &sideHeap{less: less}
}

func (h *sideHeap) Len() int { return len(h.entries) }

func (h *sideHeap) Less(i, j int) bool {
	return h.less(h.entries[i].order, h.entries[j].order)
}

func (h *sideHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.entries[i].index = i
	h.entries[j].index = j
}

func (h *sideHeap) Push(x any) {
	entry := x.(*restingOrder)
	entry.index = len(h.entries)
	h.entries = append(h.entries, entry)
}

func (h *sideHeap) Pop() any {
	old := h.entries
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	h.entries = old[:n-1]
	return entry
}

// peek returns the highest-priority order without removing it
func (h *sideHeap) peek() *core.Order {
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[0].order
}

// ordered returns the side's orders sorted by priority
func (h *sideHeap) ordered() []*core.Order {
	orders := make([]*core.Order, len(h.entries))
	for i, entry := range h.entries {
		orders[i] = entry.order
	}

	sort.Slice(orders, func(i, j int) bool {
		return h.less(orders[i], orders[j])
	})

	return orders
}

// MemoryBackend implements core.BookBackend with indexed binary heaps,
// one per side.
type MemoryBackend struct {
	sync.RWMutex
	orders map[string]*restingOrder
	bids   *sideHeap
	asks   *sideHeap
}

// NewMemoryBackend creates new instance of MemoryBackend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		orders: make(map[string]*restingOrder),
		bids:   newSideHeap(bidPriority),
		asks:   newSideHeap(askPriority),
	}
}

func (b *MemoryBackend) sideFor(side core.Side) *sideHeap {
	if side == core.Buy {
		return b.bids
	}
	return b.asks
}

// GetOrder retrieves a resting order by ID
func (b *MemoryBackend) GetOrder(orderID string) *core.Order {
	b.RLock()
	defer b.RUnlock()

	entry, ok := b.orders[orderID]
	if !ok {
		return nil
	}
	return entry.order
}

// Insert adds an order to its side's heap
func (b *MemoryBackend) Insert(order *core.Order) error {
	b.Lock()
	defer b.Unlock()

	if _, exists := b.orders[order.ID()]; exists {
		return core.ErrOrderExists
	}

	entry := &restingOrder{order: order}
	heap.Push(b.sideFor(order.Side()), entry)
	b.orders[order.ID()] = entry

	return nil
}

// PeekBest returns the best resting order on the given side, or nil
func (b *MemoryBackend) PeekBest(side core.Side) *core.Order {
	b.RLock()
	defer b.RUnlock()

	return b.sideFor(side).peek()
}

// DecrementOrRemove reduces the order's quantity in place and drops the
// heap entry once the order is exhausted.
func (b *MemoryBackend) DecrementOrRemove(order *core.Order, quantity fpdecimal.Decimal) error {
	b.Lock()
	defer b.Unlock()

	entry, ok := b.orders[order.ID()]
	if !ok {
		return core.ErrNonexistentOrder
	}

	if quantity.GreaterThan(entry.order.Quantity()) {
		return core.ErrInsufficientQuantity
	}

	entry.order.DecreaseQuantity(quantity)

	if entry.order.Quantity().Equal(fpdecimal.Zero) {
		heap.Remove(b.sideFor(entry.order.Side()), entry.index)
		delete(b.orders, order.ID())
	}

	return nil
}

// Depth returns the number of resting orders on the given side
func (b *MemoryBackend) Depth(side core.Side) int {
	b.RLock()
	defer b.RUnlock()

	return b.sideFor(side).Len()
}

// OrdersBySide returns the side's resting orders in priority order
func (b *MemoryBackend) OrdersBySide(side core.Side) []*core.Order {
	b.RLock()
	defer b.RUnlock()

	return b.sideFor(side).ordered()
}

// Ensure MemoryBackend implements BookBackend
var _ core.BookBackend = (*MemoryBackend)(nil)
