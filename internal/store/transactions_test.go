package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
)

func TestCreateAndCloseTransaction(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, database, "Projector", 2, 0)
	due := testNow.Add(48 * time.Hour)

	tx, err := CreateTransaction(ctx, database, model.Transaction{
		ItemID:             item.ID,
		UserID:             "u1",
		Quantity:           1,
		CheckoutDate:       testNow,
		ExpectedReturnDate: &due,
		CreatedAt:          testNow,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if tx.Status != model.TransactionStatusCheckedOut {
		t.Errorf("expected status 'checked_out', got %q", tx.Status)
	}
	if tx.ExpectedReturnDate == nil || !tx.ExpectedReturnDate.Equal(due) {
		t.Errorf("expected return date %v, got %v", due, tx.ExpectedReturnDate)
	}

	returned := testNow.Add(time.Hour)
	qty := 1
	ok, err := CloseTransaction(ctx, database, tx.ID, TransactionClose{
		Status:           model.TransactionStatusReturned,
		ActualReturnDate: &returned,
		ReturnedQuantity: &qty,
		Now:              returned,
	})
	if err != nil {
		t.Fatalf("CloseTransaction: %v", err)
	}
	if !ok {
		t.Fatal("expected close to apply")
	}

	// A finalized transaction can't be closed again.
	ok, err = CloseTransaction(ctx, database, tx.ID, TransactionClose{
		Status: model.TransactionStatusLost,
		Now:    returned,
	})
	if err != nil {
		t.Fatalf("CloseTransaction: %v", err)
	}
	if ok {
		t.Error("expected second close to be refused")
	}

	got, _ := GetTransaction(ctx, database, tx.ID)
	if got.Status != model.TransactionStatusReturned {
		t.Errorf("expected status 'returned', got %q", got.Status)
	}
	if got.ReturnedQuantity == nil || *got.ReturnedQuantity != 1 {
		t.Errorf("expected returned quantity 1, got %v", got.ReturnedQuantity)
	}
}

func TestListTransactionsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := createTestItem(t, database, "A", 10, 0)
	b := createTestItem(t, database, "B", 10, 0)

	for i, seed := range []struct {
		item, user string
	}{
		{a.ID, "u1"}, {a.ID, "u2"}, {b.ID, "u1"},
	} {
		day := testNow.Add(time.Duration(i) * 24 * time.Hour)
		if _, err := CreateTransaction(ctx, database, model.Transaction{
			ItemID: seed.item, UserID: seed.user, Quantity: 1, CheckoutDate: day, CreatedAt: day,
		}); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	all, _ := ListTransactions(ctx, database, TransactionFilter{})
	if len(all) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(all))
	}
	if all[0].ItemID != b.ID {
		t.Error("expected newest checkout first")
	}

	mine, _ := ListTransactions(ctx, database, TransactionFilter{UserID: "u1"})
	if len(mine) != 2 {
		t.Errorf("expected 2 transactions for u1, got %d", len(mine))
	}

	forA, _ := ListTransactions(ctx, database, TransactionFilter{ItemID: a.ID})
	if len(forA) != 2 {
		t.Errorf("expected 2 transactions for item A, got %d", len(forA))
	}

	from := testNow.Add(12 * time.Hour)
	to := testNow.Add(36 * time.Hour)
	window, _ := ListTransactions(ctx, database, TransactionFilter{From: &from, To: &to})
	if len(window) != 1 || window[0].UserID != "u2" {
		t.Errorf("expected only the second checkout in range, got %d", len(window))
	}
}

func TestListOverdueTransactions(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, database, "Camera", 10, 0)
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	overdue, _ := CreateTransaction(ctx, database, model.Transaction{
		ItemID: item.ID, UserID: "u1", Quantity: 1, CheckoutDate: testNow.Add(-48 * time.Hour),
		ExpectedReturnDate: &past, CreatedAt: testNow,
	})
	CreateTransaction(ctx, database, model.Transaction{
		ItemID: item.ID, UserID: "u2", Quantity: 1, CheckoutDate: testNow,
		ExpectedReturnDate: &future, CreatedAt: testNow,
	})
	CreateTransaction(ctx, database, model.Transaction{
		ItemID: item.ID, UserID: "u2", Quantity: 1, CheckoutDate: testNow, CreatedAt: testNow,
	})
	returned, _ := CreateTransaction(ctx, database, model.Transaction{
		ItemID: item.ID, UserID: "u2", Quantity: 1, CheckoutDate: testNow.Add(-48 * time.Hour),
		ExpectedReturnDate: &past, CreatedAt: testNow,
	})
	CloseTransaction(ctx, database, returned.ID, TransactionClose{Status: model.TransactionStatusReturned, Now: testNow})

	list, err := ListOverdueTransactions(ctx, database, "", testNow)
	if err != nil {
		t.Fatalf("ListOverdueTransactions: %v", err)
	}
	if len(list) != 1 || list[0].ID != overdue.ID {
		t.Fatalf("expected only the overdue transaction, got %d", len(list))
	}

	scoped, _ := ListOverdueTransactions(ctx, database, "u2", testNow)
	if len(scoped) != 0 {
		t.Errorf("expected no overdue transactions for u2, got %d", len(scoped))
	}
}

func TestCheckedOutQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, database, "Chairs", 10, 0)

	total, err := CheckedOutQuantity(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("CheckedOutQuantity: %v", err)
	}
	if total != 0 {
		t.Errorf("expected 0, got %d", total)
	}

	CreateTransaction(ctx, database, model.Transaction{ItemID: item.ID, UserID: "u1", Quantity: 3, CheckoutDate: testNow, CreatedAt: testNow})
	done, _ := CreateTransaction(ctx, database, model.Transaction{ItemID: item.ID, UserID: "u1", Quantity: 2, CheckoutDate: testNow, CreatedAt: testNow})
	CloseTransaction(ctx, database, done.ID, TransactionClose{Status: model.TransactionStatusReturned, Now: testNow})

	total, _ = CheckedOutQuantity(ctx, database, item.ID)
	if total != 3 {
		t.Errorf("expected 3, got %d", total)
	}
}
