// Package alloc is the allocation engine: the stock ledger with its
// checkout log, and the resource reservation scheduler. Every mutating
// operation runs as one atomic unit of work against the store.
package alloc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

const tracerName = "github.com/erazemk/izposoja/internal/alloc"

// Notifier receives allocation events after the unit of work that caused
// them has committed. Failures are logged and otherwise ignored.
type Notifier interface {
	Notify(ctx context.Context, event model.Event) error
}

// Caller is the identity and role on whose behalf an operation runs.
type Caller struct {
	UserID string
	Role   string
}

// Privileged reports whether the caller may act on other users' records
// and edit items and resources.
func (c Caller) Privileged() bool {
	return model.Privileged(c.Role)
}

func (c Caller) owns(userID string) bool {
	return c.UserID != "" && c.UserID == userID
}

// Gateway is the single entry point for allocation operations.
type Gateway struct {
	db       *sqlx.DB
	notifier Notifier
	now      func() time.Time
	retry    retryConfig
	tracer   trace.Tracer
	logger   *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway) error

// WithNotifier sets the event receiver.
func WithNotifier(n Notifier) Option {
	return func(g *Gateway) error {
		g.notifier = n
		return nil
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) error {
		g.now = now
		return nil
	}
}

// WithRetry configures conflict retries.
func WithRetry(opts ...RetryOption) Option {
	return func(g *Gateway) error {
		for _, opt := range opts {
			if err := opt(&g.retry); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithTracerProvider sets the provider spans are created from. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Gateway) error {
		g.tracer = tp.Tracer(tracerName)
		return nil
	}
}

// WithLogger sets the logger used for notifier failures.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) error {
		g.logger = l
		return nil
	}
}

// NewGateway creates a Gateway over db.
func NewGateway(db *sqlx.DB, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		db:     db,
		now:    time.Now,
		retry:  defaultRetryConfig(),
		tracer: otel.Tracer(tracerName),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, fmt.Errorf("configuring gateway: %w", err)
		}
	}
	return g, nil
}

func (g *Gateway) clock() time.Time {
	return store.Timestamp(g.now())
}

// unit runs fn as one atomic unit of work, retrying it while the store
// reports conflicts. fn may run more than once and must not have effects
// outside the transaction.
func (g *Gateway) unit(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	err := retryWithExponentialBackoff(ctx, g.retry, func(ctx context.Context) error {
		return store.RunInTx(ctx, g.db, func(tx *sqlx.Tx) error {
			return fn(ctx, tx)
		})
	})
	if errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("%w: %w", ErrTransientStoreConflict, err)
	}
	return err
}

func (g *Gateway) startSpan(ctx context.Context, op string, caller Caller, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("alloc.caller.user_id", caller.UserID),
		attribute.String("alloc.caller.role", caller.Role),
	)
	return g.tracer.Start(ctx, "alloc."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// emit hands committed events to the notifier.
func (g *Gateway) emit(ctx context.Context, events ...model.Event) {
	if g.notifier == nil {
		return
	}
	for _, e := range events {
		if err := g.notifier.Notify(ctx, e); err != nil {
			g.logger.Warn("notifying event", "type", e.Type, "subject", e.Subject(), "error", err)
		}
	}
}

func requirePrivileged(caller Caller, action string) error {
	if !caller.Privileged() {
		return fmt.Errorf("%w: %s requires staff role", ErrPermissionDenied, action)
	}
	return nil
}
