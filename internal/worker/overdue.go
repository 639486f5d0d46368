// Package worker runs the optional periodic overdue sweep. Lazy expiry on
// registry reads is the primary mechanism; the sweep keeps idle records
// from sitting in PENDING past their due date.
package worker

import (
	"context"
	"time"

	"github.com/vidaplan/paycode/internal/service"
)

type OverdueSweeper struct {
	payments *service.PaymentService
	interval time.Duration
}

func NewOverdueSweeper(payments *service.PaymentService, interval time.Duration) *OverdueSweeper {
	return &OverdueSweeper{payments: payments, interval: interval}
}

// Run blocks until ctx is done, sweeping on every tick.
func (w *OverdueSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.payments.SweepOverdue(ctx)
		}
	}
}
