package core

import (
	"container/list"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
	"github.com/nikolaydubina/fpdecimal"
)

// priceLevel holds the orders resting at one price in strict arrival
// order. The list is never reordered; list.Element handles stay valid
// across unrelated insertions and removals, which is what makes an
// O(log n) cancel possible.
type priceLevel struct {
	price  fpdecimal.Decimal
	orders *list.List // of *Order
}

func newPriceLevel(price fpdecimal.Decimal) *priceLevel {
	return &priceLevel{
		price:  price,
		orders: list.New(),
	}
}

// front returns the earliest-arrived order at this level
func (pl *priceLevel) front() *Order {
	return pl.orders.Front().Value.(*Order)
}

// totalQuantity sums remaining quantities across the level's orders
func (pl *priceLevel) totalQuantity() fpdecimal.Decimal {
	total := fpdecimal.Zero
	for e := pl.orders.Front(); e != nil; e = e.Next() {
		total = total.Add(e.Value.(*Order).RemainingQuantity())
	}
	return total
}

// bookSide maps price to price level, iterated in priority order. The
// tree comparator is reversed for bids so Left() is always the best
// level and Right() the worst on either side.
type bookSide struct {
	side   Side
	levels *rbt.Tree[fpdecimal.Decimal, *priceLevel]
}

func newBookSide(side Side) *bookSide {
	ascending := func(a, b fpdecimal.Decimal) int {
		switch {
		case a.LessThan(b):
			return -1
		case a.GreaterThan(b):
			return 1
		default:
			return 0
		}
	}
	descending := func(a, b fpdecimal.Decimal) int {
		return -ascending(a, b)
	}

	comparator := ascending
	if side == Buy {
		comparator = descending
	}

	return &bookSide{
		side:   side,
		levels: rbt.NewWith[fpdecimal.Decimal, *priceLevel](comparator),
	}
}

func (s *bookSide) empty() bool {
	return s.levels.Empty()
}

// best returns the highest-priority level, or nil when the side is empty
func (s *bookSide) best() *priceLevel {
	node := s.levels.Left()
	if node == nil {
		return nil
	}
	return node.Value
}

// worstPrice returns the lowest-priority resting price. Callers must
// check empty() first.
func (s *bookSide) worstPrice() fpdecimal.Decimal {
	return s.levels.Right().Key
}

// bestPrice returns the highest-priority resting price. Callers must
// check empty() first.
func (s *bookSide) bestPrice() fpdecimal.Decimal {
	return s.levels.Left().Key
}

// append adds an order to the back of its price level's queue, creating
// the level on first use, and returns the level and the order's stable
// position within it.
func (s *bookSide) append(order *Order) (*priceLevel, *list.Element) {
	level, ok := s.levels.Get(order.Price())
	if !ok {
		level = newPriceLevel(order.Price())
		s.levels.Put(order.Price(), level)
	}
	return level, level.orders.PushBack(order)
}

// remove erases an order from its level via the stored position and
// evicts the level when it becomes empty.
func (s *bookSide) remove(level *priceLevel, elem *list.Element) {
	level.orders.Remove(elem)
	if level.orders.Len() == 0 {
		s.levels.Remove(level.price)
	}
}

// snapshot returns one Level per populated price in priority order,
// summing remaining quantities at call time.
func (s *bookSide) snapshot() []Level {
	infos := make([]Level, 0, s.levels.Size())
	it := s.levels.Iterator()
	for it.Next() {
		infos = append(infos, Level{
			Price:    it.Key(),
			Quantity: it.Value().totalQuantity(),
		})
	}
	return infos
}
