package core

import (
	"time"
)

// Clock supplies the current time to the expiration worker. Injecting
// it keeps cutoff scheduling testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// untilNextCutoff computes the wait until the next daily cutoff
// instant. Past today's cutoff, the target is the same hour tomorrow.
// The extra 100ms keeps the wake strictly after the cutoff.
func (ob *OrderBook) untilNextCutoff(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), ob.cutoffHour, 0, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now) + 100*time.Millisecond
}

// pruneGoodForDayOrders is the expiration worker loop: sleep until the
// next cutoff or shutdown, whichever first, then bulk-cancel every
// resting GoodForDay order.
func (ob *OrderBook) pruneGoodForDayOrders() {
	defer ob.wg.Done()

	for {
		timer := time.NewTimer(ob.untilNextCutoff(ob.clock.Now()))

		select {
		case <-ob.shutdown:
			timer.Stop()
			return
		case <-timer.C:
		}

		orderIDs := ob.collectGoodForDay()
		if len(orderIDs) == 0 {
			continue
		}

		ob.logger.Info().
			Int("orders", len(orderIDs)).
			Int("cutoff_hour", ob.cutoffHour).
			Msg("pruning good-for-day orders")
		ob.CancelBulk(orderIDs)
	}
}

func (ob *OrderBook) collectGoodForDay() []string {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	var orderIDs []string
	for orderID, entry := range ob.orders {
		if entry.order.OrderType() != GoodForDay {
			continue
		}
		orderIDs = append(orderIDs, orderID)
	}
	return orderIDs
}
