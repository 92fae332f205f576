package alloc

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

// TransactionQuery narrows ListTransactions.
type TransactionQuery struct {
	UserID string
	ItemID string
	From   *time.Time
	To     *time.Time
}

// GetLowStockItems returns the items at or below their reorder threshold.
func (g *Gateway) GetLowStockItems(ctx context.Context) (_ []model.Item, err error) {
	ctx, span := g.startSpan(ctx, "low_stock_items", Caller{})
	defer func() { endSpan(span, err) }()

	return store.ListLowStockItems(ctx, g.db)
}

// GetOverdueTransactions returns checked out transactions past their
// expected return date. Non-privileged callers see only their own.
func (g *Gateway) GetOverdueTransactions(ctx context.Context, caller Caller) (_ []model.Transaction, err error) {
	ctx, span := g.startSpan(ctx, "overdue_transactions", caller)
	defer func() { endSpan(span, err) }()

	return store.ListOverdueTransactions(ctx, g.db, scope(caller, ""), g.clock())
}

// ListTransactions returns the checkout history, newest first.
// Non-privileged callers see only their own transactions.
func (g *Gateway) ListTransactions(ctx context.Context, caller Caller, q TransactionQuery) (_ []model.Transaction, err error) {
	ctx, span := g.startSpan(ctx, "list_transactions", caller)
	defer func() { endSpan(span, err) }()

	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, fmt.Errorf("%w: range ends before it starts", ErrInvalidInterval)
	}

	return store.ListTransactions(ctx, g.db, store.TransactionFilter{
		UserID: scope(caller, q.UserID),
		ItemID: q.ItemID,
		From:   q.From,
		To:     q.To,
	})
}

// GetTransaction returns one transaction.
func (g *Gateway) GetTransaction(ctx context.Context, caller Caller, id string) (_ *model.Transaction, err error) {
	ctx, span := g.startSpan(ctx, "get_transaction", caller)
	defer func() { endSpan(span, err) }()

	t, err := store.GetTransaction(ctx, g.db, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, id)
	}
	if !caller.owns(t.UserID) && !caller.Privileged() {
		return nil, fmt.Errorf("%w: transaction belongs to another user", ErrPermissionDenied)
	}
	return t, nil
}

// Now returns the gateway's current time.
func (g *Gateway) Now() time.Time {
	return g.clock()
}

// scope returns the user a listing is limited to.
func scope(caller Caller, requested string) string {
	if caller.Privileged() {
		return requested
	}
	return caller.UserID
}
