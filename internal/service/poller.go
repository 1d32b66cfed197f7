package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"avalon/internal/domain"
	"avalon/pkg/gateway"

	"gorm.io/gorm"
)

// StatusQuerier is the slice of the gateway the poller needs.
type StatusQuerier interface {
	QueryStatus(ctx context.Context, orderID string) (gateway.Status, error)
}

// Poller is the fallback reconciliation trigger: a bounded per-order loop
// that asks the gateway for payment status until the order leaves Pending
// or the attempt budget runs out. The webhook remains the primary, durable
// path; exhausting the budget is not a failure.
type Poller struct {
	orders      OrderStore
	gw          StatusQuerier
	rec         *Reconciler
	interval    time.Duration
	maxAttempts int
	wg          sync.WaitGroup
}

func NewPoller(orders OrderStore, gw StatusQuerier, rec *Reconciler, interval time.Duration, maxAttempts int) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	return &Poller{orders: orders, gw: gw, rec: rec, interval: interval, maxAttempts: maxAttempts}
}

// Watch starts polling for one order. It returns immediately; the loop
// stops when ctx is cancelled, the order leaves Pending, or the budget is
// exhausted. Poll schedules are not persisted: after a restart the webhook
// is the recovery path.
func (p *Poller) Watch(ctx context.Context, orderID string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx, orderID)
	}()
}

func (p *Poller) run(ctx context.Context, orderID string) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		t, err := p.orders.GetByID(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return
			}
			log.Printf("[poller] %s: load failed: %v", orderID, err)
			continue
		}
		if t.Status != domain.StatusPending {
			return
		}

		status, err := p.gw.QueryStatus(ctx, orderID)
		if err != nil {
			// Transient; the next tick retries.
			log.Printf("[poller] %s: status query failed: %v", orderID, err)
			continue
		}
		if status == gateway.StatusPaid || status == gateway.StatusFailed {
			if err := p.rec.Apply(ctx, orderID, status, SourcePoller); err != nil {
				log.Printf("[poller] %s: apply failed: %v", orderID, err)
			}
			return
		}
	}
	log.Printf("[poller] %s: budget exhausted, leaving order to webhook", orderID)
}

// Wait blocks until every active poll loop has returned.
func (p *Poller) Wait() {
	p.wg.Wait()
}
