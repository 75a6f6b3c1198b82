package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/office562/campbaraisa-sub000/internal/clock"
	invoicedomain "github.com/office562/campbaraisa-sub000/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	InvoiceSvc invoicedomain.Service
	Config     Config `optional:"true"`
}

// Worker walks unpaid invoices whose next reminder date has arrived and
// marks each reminder sent, advancing the invoice to its next slot in the
// schedule. Delivery itself rides on the outbox events the invoice service
// writes.
type Worker struct {
	log        *zap.Logger
	clock      clock.Clock
	invoiceSvc invoicedomain.Service
	cfg        Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:        p.Log.Named("reminder.worker"),
		clock:      p.Clock,
		invoiceSvc: p.InvoiceSvc,
		cfg:        p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("reminder run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(ctx context.Context) error {
	_, err := w.ProcessBatch(ctx, w.cfg.BatchSize)
	return err
}

// ProcessBatch sends one batch of due reminders and reports how many were
// marked. An invoice that fails does not block the rest of the batch.
func (w *Worker) ProcessBatch(ctx context.Context, limit int) (int, error) {
	if w.invoiceSvc == nil {
		return 0, errors.New("reminder_worker_unavailable")
	}
	if limit <= 0 {
		limit = w.cfg.BatchSize
	}

	now := w.clock.Now()
	due, err := w.invoiceSvc.DueForReminder(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	var lastErr error
	for _, invoice := range due {
		if _, err := w.invoiceSvc.MarkReminderSent(ctx, invoice.ID, now); err != nil {
			w.log.Warn("mark reminder failed",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		processed++
	}
	if processed > 0 {
		w.log.Info("reminders sent", zap.Int("count", processed))
	}
	return processed, lastErr
}
