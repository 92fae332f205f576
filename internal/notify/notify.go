// Package notify delivers allocation events: to the log, to Kafka, or
// both, and periodically sweeps for low stock and overdue checkouts.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/erazemk/izposoja/internal/alloc"
	"github.com/erazemk/izposoja/internal/model"
)

// LogNotifier writes each event as a structured log line.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs the event.
func (n LogNotifier) Notify(ctx context.Context, e model.Event) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{"type", e.Type, "subject", e.Subject()}
	if e.UserID != "" {
		attrs = append(attrs, "user", e.UserID)
	}
	if e.ItemID != "" {
		attrs = append(attrs, "item", e.ItemID)
	}
	if e.Quantity != 0 {
		attrs = append(attrs, "quantity", e.Quantity)
	}
	if e.Status != "" {
		attrs = append(attrs, "status", e.Status)
	}

	level := slog.LevelInfo
	if e.Type == model.EventLowStock || e.Type == model.EventOverdue {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "allocation event", attrs...)
	return nil
}

// Multi fans an event out to several notifiers. Every notifier is called
// even if an earlier one fails.
type Multi []alloc.Notifier

// Notify forwards the event to every notifier.
func (m Multi) Notify(ctx context.Context, e model.Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
