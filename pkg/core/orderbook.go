package core

import (
	"container/list"
	"sync"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/rs/zerolog"
)

// orderEntry is the locator record for one resting order: the order
// itself plus the stable position of the order inside its price level.
type orderEntry struct {
	order *Order
	level *priceLevel
	elem  *list.Element
}

// levelAction describes how an aggregate level entry is adjusted
type levelAction int

const (
	levelActionAdd levelAction = iota
	levelActionRemove
	levelActionMatch
)

// levelData is the running aggregate for one price: summed remaining
// quantity and resting order count. It exists only to answer the
// FillOrKill feasibility question without scanning orders.
type levelData struct {
	quantity fpdecimal.Decimal
	count    int
}

// OrderBook is a single-instrument limit order book matching under
// price-time priority. One mutex guards all of its state; every public
// operation is atomic, and matching runs inside the Add that triggers
// it. A background worker prunes GoodForDay orders at the daily cutoff.
type OrderBook struct {
	mu     sync.Mutex
	bids   *bookSide
	asks   *bookSide
	orders map[string]*orderEntry
	data   map[fpdecimal.Decimal]*levelData

	logger     zerolog.Logger
	clock      Clock
	cutoffHour int

	shutdown  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option configures an OrderBook at construction
type Option func(*OrderBook)

// WithClock injects the clock used to schedule GoodForDay expiration
func WithClock(clock Clock) Option {
	return func(ob *OrderBook) {
		ob.clock = clock
	}
}

// WithCutoffHour sets the local hour at which GoodForDay orders expire
func WithCutoffHour(hour int) Option {
	return func(ob *OrderBook) {
		ob.cutoffHour = hour
	}
}

// WithLogger sets the logger for lifecycle and expiration events
func WithLogger(logger zerolog.Logger) Option {
	return func(ob *OrderBook) {
		ob.logger = logger
	}
}

// NewOrderBook creates an empty book and starts its expiration worker.
// Callers must Close the book to stop the worker.
func NewOrderBook(opts ...Option) *OrderBook {
	ob := &OrderBook{
		bids:       newBookSide(Buy),
		asks:       newBookSide(Sell),
		orders:     make(map[string]*orderEntry),
		data:       make(map[fpdecimal.Decimal]*levelData),
		logger:     zerolog.Nop(),
		clock:      systemClock{},
		cutoffHour: DefaultCutoffHour,
		shutdown:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ob)
	}

	ob.wg.Add(1)
	go ob.pruneGoodForDayOrders()

	return ob
}

// Close signals the expiration worker and waits for it to terminate.
// Safe to call more than once.
func (ob *OrderBook) Close() {
	ob.closeOnce.Do(func() {
		close(ob.shutdown)
	})
	ob.wg.Wait()
}

// Add admits an order and runs the matching loop, returning the
// resulting trades. Business rejections (duplicate id, a Market order
// with no opposing liquidity, a FillAndKill that cannot cross, a
// FillOrKill that cannot be fully filled) return an empty result and
// leave the book untouched.
func (ob *OrderBook) Add(order *Order) Trades {
	if order == nil {
		return nil
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	return ob.addLocked(order)
}

func (ob *OrderBook) addLocked(order *Order) Trades {
	if _, exists := ob.orders[order.ID()]; exists {
		return nil
	}

	opposite := ob.sideOf(order.Side().Opposite())

	switch order.OrderType() {
	case Market:
		// A market order crosses everything available, so it becomes a
		// limit at the opposing side's worst price.
		if opposite.empty() {
			return nil
		}
		order.toGoodTillCancel(opposite.worstPrice())

	case FillAndKill:
		if !ob.canMatch(order.Side(), order.Price()) {
			if opposite.empty() {
				return nil
			}
			order.reprice(opposite.worstPrice())
			if !ob.canMatch(order.Side(), order.Price()) {
				return nil
			}
		}

	case FillOrKill:
		if !ob.canFullyFill(order.Side(), order.Price(), order.InitialQuantity()) {
			return nil
		}
	}

	level, elem := ob.sideOf(order.Side()).append(order)
	ob.orders[order.ID()] = &orderEntry{order: order, level: level, elem: elem}
	ob.updateLevelData(order.Price(), order.RemainingQuantity(), levelActionAdd)

	return ob.matchLocked()
}

// Cancel removes a resting order. Unknown ids are a no-op.
func (ob *OrderBook) Cancel(orderID string) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.cancelLocked(orderID)
}

// CancelBulk cancels every given id under a single lock acquisition
func (ob *OrderBook) CancelBulk(orderIDs []string) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	for _, orderID := range orderIDs {
		ob.cancelLocked(orderID)
	}
}

func (ob *OrderBook) cancelLocked(orderID string) {
	entry, ok := ob.orders[orderID]
	if !ok {
		return
	}

	delete(ob.orders, orderID)
	ob.sideOf(entry.order.Side()).remove(entry.level, entry.elem)
	ob.updateLevelData(entry.order.Price(), entry.order.RemainingQuantity(), levelActionRemove)
}

// Modify replaces a resting order with a new side, price and quantity,
// keeping the original order's type. It is cancel plus re-add, so the
// order forfeits its time priority and joins the back of its new level.
// Unknown ids and invalid replacement parameters return an empty result
// with the book unchanged.
func (ob *OrderBook) Modify(orderID string, side Side, price, quantity fpdecimal.Decimal) Trades {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	entry, ok := ob.orders[orderID]
	if !ok {
		return nil
	}

	// Only GTC and GFD orders ever rest, so the replacement is always a
	// plain limit of the original type.
	replacement, err := NewLimitOrder(orderID, side, quantity, price, entry.order.OrderType())
	if err != nil {
		return nil
	}

	ob.cancelLocked(orderID)
	return ob.addLocked(replacement)
}

// Size returns the number of currently resting orders
func (ob *OrderBook) Size() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return len(ob.orders)
}

// Levels returns per-price totals for both sides in priority order
// (bids descending, asks ascending), summed from the resting orders at
// call time.
func (ob *OrderBook) Levels() (bids, asks []Level) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return ob.bids.snapshot(), ob.asks.snapshot()
}

// matchLocked drives the book to quiescence: while the best bid and
// best ask cross, the earliest orders at those levels fill against each
// other at min(remaining). Each trade leg reports the resting order's
// own price. Afterwards a FillAndKill order left at the head of either
// side is cancelled, since FAK orders must never rest.
func (ob *OrderBook) matchLocked() Trades {
	var trades Trades

	for {
		if ob.bids.empty() || ob.asks.empty() {
			break
		}

		bidLevel := ob.bids.best()
		askLevel := ob.asks.best()

		if bidLevel.price.LessThan(askLevel.price) {
			break
		}

		for bidLevel.orders.Len() > 0 && askLevel.orders.Len() > 0 {
			bid := bidLevel.front()
			ask := askLevel.front()

			quantity := minDecimal(bid.RemainingQuantity(), ask.RemainingQuantity())
			bid.Fill(quantity)
			ask.Fill(quantity)

			trades = append(trades, Trade{
				Bid: TradeLeg{OrderID: bid.ID(), Price: bid.Price(), Quantity: quantity},
				Ask: TradeLeg{OrderID: ask.ID(), Price: ask.Price(), Quantity: quantity},
			})

			ob.onOrderMatched(bid)
			ob.onOrderMatched(ask)

			if bid.IsFilled() {
				ob.evictLocked(bid)
			}
			if ask.IsFilled() {
				ob.evictLocked(ask)
			}

			ob.updateLevelData(bid.Price(), quantity, matchAction(bid))
			ob.updateLevelData(ask.Price(), quantity, matchAction(ask))
		}
	}

	if !ob.bids.empty() {
		if order := ob.bids.best().front(); order.OrderType() == FillAndKill {
			ob.cancelLocked(order.ID())
		}
	}
	if !ob.asks.empty() {
		if order := ob.asks.best().front(); order.OrderType() == FillAndKill {
			ob.cancelLocked(order.ID())
		}
	}

	return trades
}

// evictLocked removes a fully filled order from its level and the
// locator. Level eviction happens inside bookSide.remove.
func (ob *OrderBook) evictLocked(order *Order) {
	entry := ob.orders[order.ID()]
	delete(ob.orders, order.ID())
	ob.sideOf(order.Side()).remove(entry.level, entry.elem)
}

func matchAction(order *Order) levelAction {
	if order.IsFilled() {
		return levelActionRemove
	}
	return levelActionMatch
}

// canMatch reports whether an order at the given price would cross the
// opposing side's best level.
func (ob *OrderBook) canMatch(side Side, price fpdecimal.Decimal) bool {
	if side == Buy {
		return !ob.asks.empty() && price.GreaterThanOrEqual(ob.asks.bestPrice())
	}
	return !ob.bids.empty() && price.LessThanOrEqual(ob.bids.bestPrice())
}

// canFullyFill is the FillOrKill feasibility check. It walks the level
// aggregates between the opposing best price and the requested bound,
// accumulating available quantity. It deliberately does not simulate
// order-by-order consumption; the aggregate totals define the observable
// accept/reject behavior.
func (ob *OrderBook) canFullyFill(side Side, price, quantity fpdecimal.Decimal) bool {
	if !ob.canMatch(side, price) {
		return false
	}

	var threshold fpdecimal.Decimal
	if side == Buy {
		threshold = ob.asks.bestPrice()
	} else {
		threshold = ob.bids.bestPrice()
	}

	remaining := quantity
	for levelPrice, data := range ob.data {
		if side == Buy && (threshold.GreaterThan(levelPrice) || levelPrice.GreaterThan(price)) {
			continue
		}
		if side == Sell && (threshold.LessThan(levelPrice) || levelPrice.LessThan(price)) {
			continue
		}
		if remaining.LessThanOrEqual(data.quantity) {
			return true
		}
		remaining = remaining.Sub(data.quantity)
	}

	return false
}

// onOrderMatched is a hook point for per-fill bookkeeping
func (ob *OrderBook) onOrderMatched(order *Order) {
	if e := ob.logger.Trace(); e.Enabled() {
		e.Str("order_id", order.ID()).
			Str("remaining", order.RemainingQuantity().String()).
			Msg("order matched")
	}
}

// updateLevelData adjusts the aggregate entry for a price and drops it
// once no orders rest there.
func (ob *OrderBook) updateLevelData(price, quantity fpdecimal.Decimal, action levelAction) {
	data, ok := ob.data[price]
	if !ok {
		data = &levelData{}
		ob.data[price] = data
	}

	switch action {
	case levelActionAdd:
		data.count++
		data.quantity = data.quantity.Add(quantity)
	case levelActionRemove:
		data.count--
		data.quantity = data.quantity.Sub(quantity)
	case levelActionMatch:
		data.quantity = data.quantity.Sub(quantity)
	}

	if data.count == 0 {
		delete(ob.data, price)
	}
}

func (ob *OrderBook) sideOf(side Side) *bookSide {
	if side == Buy {
		return ob.bids
	}
	return ob.asks
}

func minDecimal(a, b fpdecimal.Decimal) fpdecimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
