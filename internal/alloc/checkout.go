package alloc

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

// CheckoutRequest asks for Quantity units of an item. UserID defaults to
// the caller.
type CheckoutRequest struct {
	ItemID             string
	UserID             string
	Quantity           int
	ExpectedReturnDate *time.Time
	Notes              string
}

// ReturnRequest closes a checkout. ReturnedQuantity defaults to the
// checked out quantity; a smaller value closes the transaction and writes
// off the units that did not come back. ActualReturnDate defaults to now.
type ReturnRequest struct {
	TransactionID    string
	ActualReturnDate *time.Time
	ReturnedQuantity *int
	Notes            *string
}

// Checkout takes stock from an item and records the transaction.
func (g *Gateway) Checkout(ctx context.Context, caller Caller, req CheckoutRequest) (_ *model.Transaction, err error) {
	ctx, span := g.startSpan(ctx, "checkout", caller,
		attribute.String("alloc.item_id", req.ItemID),
		attribute.Int("alloc.quantity", req.Quantity))
	defer func() { endSpan(span, err) }()

	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidQuantity)
	}
	if req.UserID == "" {
		req.UserID = caller.UserID
	}
	if !caller.owns(req.UserID) && !caller.Privileged() {
		return nil, fmt.Errorf("%w: checkout on behalf of another user", ErrPermissionDenied)
	}

	var (
		t     *model.Transaction
		delta CommittedDelta
	)
	err = g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		now := g.clock()

		var err error
		delta, err = reserveStock(ctx, tx, req.ItemID, req.Quantity, now)
		if err != nil {
			return err
		}

		t, err = store.CreateTransaction(ctx, tx, model.Transaction{
			ItemID:             req.ItemID,
			UserID:             req.UserID,
			Quantity:           req.Quantity,
			CheckoutDate:       now,
			ExpectedReturnDate: req.ExpectedReturnDate,
			Notes:              req.Notes,
			CreatedAt:          now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	events := []model.Event{{
		Type:          model.EventCheckedOut,
		OccurredAt:    t.CheckoutDate,
		UserID:        t.UserID,
		ItemID:        t.ItemID,
		TransactionID: t.ID,
		Quantity:      t.Quantity,
	}}
	if delta.LowStock {
		events = append(events, model.Event{
			Type:        model.EventLowStock,
			OccurredAt:  t.CheckoutDate,
			ItemID:      delta.ItemID,
			Quantity:    delta.Quantity,
			MinQuantity: delta.MinQuantity,
		})
	}
	g.emit(ctx, events...)

	return t, nil
}

// activeTransaction reads a transaction the caller may close.
func activeTransaction(ctx context.Context, tx sqlx.ExtContext, caller Caller, id string) (*model.Transaction, error) {
	t, err := store.GetTransaction(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, id)
	}
	if !caller.owns(t.UserID) && !caller.Privileged() {
		return nil, fmt.Errorf("%w: transaction belongs to another user", ErrPermissionDenied)
	}
	if !t.Active() {
		return nil, fmt.Errorf("%w: transaction %s is %s", ErrAlreadyFinalized, id, t.Status)
	}
	return t, nil
}

// ReturnItem puts the returned units back into stock and closes the
// transaction.
func (g *Gateway) ReturnItem(ctx context.Context, caller Caller, req ReturnRequest) (_ *model.Transaction, err error) {
	ctx, span := g.startSpan(ctx, "return", caller, attribute.String("alloc.transaction_id", req.TransactionID))
	defer func() { endSpan(span, err) }()

	var (
		t        *model.Transaction
		returned int
	)
	err = g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		now := g.clock()

		current, err := activeTransaction(ctx, tx, caller, req.TransactionID)
		if err != nil {
			return err
		}

		returned = current.Quantity
		if req.ReturnedQuantity != nil {
			returned = *req.ReturnedQuantity
		}
		if returned <= 0 || returned > current.Quantity {
			return fmt.Errorf("%w: returned quantity must be between 1 and %d", ErrInvalidQuantity, current.Quantity)
		}

		if err := releaseStock(ctx, tx, current.ItemID, returned, now); err != nil {
			return err
		}
		if missing := current.Quantity - returned; missing > 0 {
			if err := writeOffStock(ctx, tx, current.ItemID, missing, now); err != nil {
				return err
			}
		}

		returnDate := now
		if req.ActualReturnDate != nil {
			returnDate = store.Timestamp(*req.ActualReturnDate)
		}
		ok, err := store.CloseTransaction(ctx, tx, current.ID, store.TransactionClose{
			Status:           model.TransactionStatusReturned,
			ActualReturnDate: &returnDate,
			ReturnedQuantity: &returned,
			Notes:            req.Notes,
			Now:              now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: transaction %s", ErrAlreadyFinalized, current.ID)
		}

		t, err = store.GetTransaction(ctx, tx, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	g.emit(ctx, model.Event{
		Type:          model.EventReturned,
		OccurredAt:    t.UpdatedAt,
		UserID:        t.UserID,
		ItemID:        t.ItemID,
		TransactionID: t.ID,
		Quantity:      returned,
	})

	return t, nil
}

// MarkLost closes a checkout as lost and writes its units off.
func (g *Gateway) MarkLost(ctx context.Context, caller Caller, transactionID string, notes *string) (_ *model.Transaction, err error) {
	ctx, span := g.startSpan(ctx, "mark_lost", caller, attribute.String("alloc.transaction_id", transactionID))
	defer func() { endSpan(span, err) }()

	if err := requirePrivileged(caller, "marking a checkout lost"); err != nil {
		return nil, err
	}

	var t *model.Transaction
	err = g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		now := g.clock()

		current, err := activeTransaction(ctx, tx, caller, transactionID)
		if err != nil {
			return err
		}

		if err := writeOffStock(ctx, tx, current.ItemID, current.Quantity, now); err != nil {
			return err
		}

		ok, err := store.CloseTransaction(ctx, tx, current.ID, store.TransactionClose{
			Status: model.TransactionStatusLost,
			Notes:  notes,
			Now:    now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: transaction %s", ErrAlreadyFinalized, current.ID)
		}

		t, err = store.GetTransaction(ctx, tx, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	g.emit(ctx, model.Event{
		Type:          model.EventMarkedLost,
		OccurredAt:    t.UpdatedAt,
		UserID:        t.UserID,
		ItemID:        t.ItemID,
		TransactionID: t.ID,
		Quantity:      t.Quantity,
	})

	return t, nil
}
