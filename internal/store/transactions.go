package store

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/izposoja/internal/model"
)

var transactionColumns = []any{
	"id", "item_id", "user_id", "quantity", "returned_quantity", "checkout_date",
	"expected_return_date", "actual_return_date", "status", "notes", "created_at", "updated_at",
}

// TransactionFilter narrows ListTransactions. Zero values match everything.
type TransactionFilter struct {
	UserID string
	ItemID string
	Status string
	From   *time.Time
	To     *time.Time
}

// CreateTransaction records a checkout.
func CreateTransaction(ctx context.Context, db sqlx.ExtContext, t model.Transaction) (*model.Transaction, error) {
	if t.ID == "" {
		t.ID = NewID()
	}
	created := Timestamp(t.CreatedAt)

	err := insert(ctx, db, builder(db).Insert("transactions").Rows(goqu.Record{
		"id":                   t.ID,
		"item_id":              t.ItemID,
		"user_id":              t.UserID,
		"quantity":             t.Quantity,
		"checkout_date":        Timestamp(t.CheckoutDate),
		"expected_return_date": nullTime(t.ExpectedReturnDate),
		"status":               model.TransactionStatusCheckedOut,
		"notes":                t.Notes,
		"created_at":           created,
		"updated_at":           created,
	}))
	if err != nil {
		return nil, fmt.Errorf("recording transaction: %w", err)
	}

	return GetTransaction(ctx, db, t.ID)
}

// GetTransaction returns a transaction by ID.
func GetTransaction(ctx context.Context, db sqlx.ExtContext, id string) (*model.Transaction, error) {
	var t model.Transaction
	found, err := getOne(ctx, db, &t,
		builder(db).From("transactions").Select(transactionColumns...).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &t, nil
}

// TransactionClose describes how a checked out transaction ends.
type TransactionClose struct {
	Status           string
	ActualReturnDate *time.Time
	ReturnedQuantity *int
	Notes            *string
	Now              time.Time
}

// CloseTransaction moves a checked out transaction to a terminal status.
// It reports false if the transaction was no longer checked out.
func CloseTransaction(ctx context.Context, db sqlx.ExtContext, id string, c TransactionClose) (bool, error) {
	record := goqu.Record{
		"status":             c.Status,
		"actual_return_date": nullTime(c.ActualReturnDate),
		"updated_at":         Timestamp(c.Now),
	}
	if c.ReturnedQuantity != nil {
		record["returned_quantity"] = *c.ReturnedQuantity
	}
	if c.Notes != nil {
		record["notes"] = *c.Notes
	}

	n, err := update(ctx, db, builder(db).Update("transactions").
		Set(record).
		Where(goqu.C("id").Eq(id), goqu.C("status").Eq(model.TransactionStatusCheckedOut)))
	if err != nil {
		return false, fmt.Errorf("closing transaction: %w", err)
	}
	return n == 1, nil
}

// ListTransactions returns transactions matching f, newest checkout first.
func ListTransactions(ctx context.Context, db sqlx.ExtContext, f TransactionFilter) ([]model.Transaction, error) {
	ds := builder(db).From("transactions").Select(transactionColumns...).
		Order(goqu.C("checkout_date").Desc(), goqu.C("id").Desc())

	if f.UserID != "" {
		ds = ds.Where(goqu.C("user_id").Eq(f.UserID))
	}
	if f.ItemID != "" {
		ds = ds.Where(goqu.C("item_id").Eq(f.ItemID))
	}
	if f.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(f.Status))
	}
	if f.From != nil {
		ds = ds.Where(goqu.C("checkout_date").Gte(Timestamp(*f.From)))
	}
	if f.To != nil {
		ds = ds.Where(goqu.C("checkout_date").Lte(Timestamp(*f.To)))
	}

	var transactions []model.Transaction
	if err := getAll(ctx, db, &transactions, ds); err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return transactions, nil
}

// ListOverdueTransactions returns checked out transactions whose expected
// return date is before now. A non-empty userID limits the result to that
// user.
func ListOverdueTransactions(ctx context.Context, db sqlx.ExtContext, userID string, now time.Time) ([]model.Transaction, error) {
	ds := builder(db).From("transactions").Select(transactionColumns...).
		Where(
			goqu.C("status").Eq(model.TransactionStatusCheckedOut),
			goqu.C("expected_return_date").IsNotNull(),
			goqu.C("expected_return_date").Lt(Timestamp(now)),
		).
		Order(goqu.C("expected_return_date").Asc())
	if userID != "" {
		ds = ds.Where(goqu.C("user_id").Eq(userID))
	}

	var transactions []model.Transaction
	if err := getAll(ctx, db, &transactions, ds); err != nil {
		return nil, fmt.Errorf("listing overdue transactions: %w", err)
	}
	return transactions, nil
}

// CheckedOutQuantity returns the stock held by an item's active transactions.
func CheckedOutQuantity(ctx context.Context, db sqlx.ExtContext, itemID string) (int, error) {
	var total int
	_, err := getOne(ctx, db, &total, builder(db).From("transactions").
		Select(goqu.COALESCE(goqu.SUM("quantity"), 0)).
		Where(goqu.C("item_id").Eq(itemID), goqu.C("status").Eq(model.TransactionStatusCheckedOut)))
	if err != nil {
		return 0, fmt.Errorf("summing checked out quantity: %w", err)
	}
	return total, nil
}
