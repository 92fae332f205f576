package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/izposoja/internal/alloc"
	"github.com/erazemk/izposoja/internal/model"
)

const (
	// DefaultSweepInterval is how often the sweeper looks for low stock and
	// overdue checkouts.
	DefaultSweepInterval = 5 * time.Minute

	// DedupeWindow is how long a subject stays quiet after being reported.
	DedupeWindow = 24 * time.Hour
)

// Source answers the sweeper's queries. *alloc.Gateway implements it.
type Source interface {
	GetLowStockItems(ctx context.Context) ([]model.Item, error)
	GetOverdueTransactions(ctx context.Context, caller alloc.Caller) ([]model.Transaction, error)
	Now() time.Time
}

// sweepCaller sees every user's transactions.
var sweepCaller = alloc.Caller{UserID: "system", Role: model.RoleAdmin}

// Sweeper periodically reports low stock items and overdue transactions.
// Each subject is reported at most once per DedupeWindow.
type Sweeper struct {
	source   Source
	notifier alloc.Notifier
	interval time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	sent map[string]time.Time
}

// NewSweeper creates a sweeper. A non-positive interval uses
// DefaultSweepInterval.
func NewSweeper(source Source, notifier alloc.Notifier, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		source:   source,
		notifier: notifier,
		interval: interval,
		logger:   logger,
		sent:     make(map[string]time.Time),
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if n, err := s.Sweep(ctx); err != nil {
			s.logger.Warn("notification sweep failed", "error", err)
		} else if n > 0 {
			s.logger.Info("notification sweep", "sent", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep runs one pass and returns the number of events sent.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.source.Now()
	s.forget(now)

	var events []model.Event

	items, err := s.source.GetLowStockItems(ctx)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		events = append(events, model.Event{
			Type:        model.EventLowStock,
			OccurredAt:  now,
			ItemID:      item.ID,
			Quantity:    item.Quantity,
			MinQuantity: item.MinQuantity,
		})
	}

	overdue, err := s.source.GetOverdueTransactions(ctx, sweepCaller)
	if err != nil {
		return 0, err
	}
	for _, t := range overdue {
		events = append(events, model.Event{
			Type:          model.EventOverdue,
			OccurredAt:    now,
			UserID:        t.UserID,
			ItemID:        t.ItemID,
			TransactionID: t.ID,
			Quantity:      t.Quantity,
		})
	}

	sent := 0
	for _, e := range events {
		if !s.claim(e, now) {
			continue
		}
		if err := s.notifier.Notify(ctx, e); err != nil {
			s.logger.Warn("notifying event", "type", e.Type, "subject", e.Subject(), "error", err)
			s.release(e)
			continue
		}
		sent++
	}
	return sent, nil
}

func dedupeKey(e model.Event) string {
	return e.Type + ":" + e.Subject()
}

// claim reports whether e has not been sent within the window and marks
// it as sent.
func (s *Sweeper) claim(e model.Event, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dedupeKey(e)
	if last, ok := s.sent[key]; ok && now.Sub(last) < DedupeWindow {
		return false
	}
	s.sent[key] = now
	return true
}

func (s *Sweeper) release(e model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sent, dedupeKey(e))
}

func (s *Sweeper) forget(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, last := range s.sent {
		if now.Sub(last) >= DedupeWindow {
			delete(s.sent, key)
		}
	}
}
