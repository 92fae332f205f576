package alloc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/izposoja/internal/model"
)

func TestCheckoutEmitsLowStock(t *testing.T) {
	g, rec := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 5, 2)

	tx, err := g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 4})
	require.NoError(t, err)

	assert.Equal(t, model.TransactionStatusCheckedOut, tx.Status)
	assert.Equal(t, student.UserID, tx.UserID)
	assert.True(t, tx.CheckoutDate.Equal(testNow))

	got, err := g.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)

	assert.Equal(t, []string{model.EventCheckedOut, model.EventLowStock}, rec.types())
	low := rec.events[1]
	assert.Equal(t, item.ID, low.ItemID)
	assert.Equal(t, 1, low.Quantity)
	assert.Equal(t, 2, low.MinQuantity)
	assertConserved(t, g, item.ID)
}

func TestCheckoutInsufficientStockLeavesItemUnchanged(t *testing.T) {
	g, rec := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 5, 0)

	_, err := g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 10})
	require.ErrorIs(t, err, ErrInsufficientStock)

	got, err := g.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
	assert.Empty(t, rec.types())

	history, err := g.ListTransactions(ctx, admin, TransactionQuery{ItemID: item.ID})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 5, 0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 4})
		}()
	}
	wg.Wait()

	var succeeded, refused int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrInsufficientStock):
			refused++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, refused)

	got, err := g.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
	assertConserved(t, g, item.ID)
}

func TestManyConcurrentCheckoutsSucceedUpToStock(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 7, 0)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 1}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 7, succeeded)
	got, err := g.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
	assertConserved(t, g, item.ID)
}

func TestCheckoutValidation(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 5, 0)

	_, err := g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = g.Checkout(ctx, student, CheckoutRequest{ItemID: "missing", Quantity: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, UserID: other.UserID, Quantity: 1})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	tx, err := g.Checkout(ctx, staff, CheckoutRequest{ItemID: item.ID, UserID: other.UserID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, other.UserID, tx.UserID)
}

func TestCheckoutRefusedForUnavailableItem(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 5, 0)

	_, err := g.SetItemStatus(ctx, staff, item.ID, model.ItemStatusMaintenance)
	require.NoError(t, err)

	_, err = g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrItemUnavailable)
}

func TestReturnRestoresStock(t *testing.T) {
	g, rec := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 5, 0)

	tx, err := g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 3})
	require.NoError(t, err)
	rec.reset()

	returned, err := g.ReturnItem(ctx, student, ReturnRequest{TransactionID: tx.ID})
	require.NoError(t, err)

	assert.Equal(t, model.TransactionStatusReturned, returned.Status)
	require.NotNil(t, returned.ActualReturnDate)
	assert.True(t, returned.ActualReturnDate.Equal(testNow))
	require.NotNil(t, returned.ReturnedQuantity)
	assert.Equal(t, 3, *returned.ReturnedQuantity)

	got, err := g.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
	assert.Equal(t, 5, got.TotalQuantity)
	assert.Equal(t, []string{model.EventReturned}, rec.types())
	assertConserved(t, g, item.ID)
}

func TestPartialReturnWritesOffRemainder(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 5, 0)

	tx, err := g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 4})
	require.NoError(t, err)

	two := 2
	notes := "two broke"
	returned, err := g.ReturnItem(ctx, student, ReturnRequest{TransactionID: tx.ID, ReturnedQuantity: &two, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "two broke", returned.Notes)

	got, err := g.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, 3, got.TotalQuantity)
	assertConserved(t, g, item.ID)
}

func TestReturnRejectsBadQuantity(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 5, 0)

	tx, err := g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 2})
	require.NoError(t, err)

	for _, qty := range []int{0, -1, 3} {
		_, err := g.ReturnItem(ctx, student, ReturnRequest{TransactionID: tx.ID, ReturnedQuantity: &qty})
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", qty)
	}

	got, err := g.GetTransaction(ctx, student, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusCheckedOut, got.Status)
	assertConserved(t, g, item.ID)
}

func TestNoDoubleReturn(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 5, 0)

	tx, err := g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = g.ReturnItem(ctx, student, ReturnRequest{TransactionID: tx.ID})
	require.NoError(t, err)

	_, err = g.ReturnItem(ctx, student, ReturnRequest{TransactionID: tx.ID})
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	_, err = g.MarkLost(ctx, staff, tx.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	got, err := g.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
}

func TestConcurrentReturnsCloseOnce(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 5, 0)

	tx, err := g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 2})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = g.ReturnItem(ctx, student, ReturnRequest{TransactionID: tx.ID})
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyFinalized)
	}
	assert.Equal(t, 1, succeeded)

	got, err := g.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
}

func TestReturnByOtherUserDenied(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 5, 0)

	tx, err := g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = g.ReturnItem(ctx, other, ReturnRequest{TransactionID: tx.ID})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = g.ReturnItem(ctx, staff, ReturnRequest{TransactionID: tx.ID})
	assert.NoError(t, err)
}

func TestMarkLostWritesOffStock(t *testing.T) {
	g, rec := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 5, 0)

	tx, err := g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = g.MarkLost(ctx, student, tx.ID, nil)
	require.ErrorIs(t, err, ErrPermissionDenied)

	rec.reset()
	lost, err := g.MarkLost(ctx, staff, tx.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusLost, lost.Status)
	assert.Equal(t, []string{model.EventMarkedLost}, rec.types())

	got, err := g.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, 3, got.TotalQuantity)
	assertConserved(t, g, item.ID)

	_, err = g.ReturnItem(ctx, student, ReturnRequest{TransactionID: tx.ID})
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestOverdueTransactionsScopedToCaller(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 10, 0)

	past := testNow.Add(-24 * time.Hour)
	future := testNow.Add(24 * time.Hour)

	mine, err := g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 1, ExpectedReturnDate: &past})
	require.NoError(t, err)
	_, err = g.Checkout(ctx, other, CheckoutRequest{ItemID: item.ID, Quantity: 1, ExpectedReturnDate: &past})
	require.NoError(t, err)
	_, err = g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 1, ExpectedReturnDate: &future})
	require.NoError(t, err)

	own, err := g.GetOverdueTransactions(ctx, student)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, mine.ID, own[0].ID)
	assert.Equal(t, model.TransactionStatusOverdue, own[0].DisplayStatus(testNow))

	all, err := g.GetOverdueTransactions(ctx, staff)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListTransactionsScope(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	item := newTestItem(t, g, 10, 0)

	_, err := g.Checkout(ctx, student, CheckoutRequest{ItemID: item.ID, Quantity: 1})
	require.NoError(t, err)
	theirs, err := g.Checkout(ctx, other, CheckoutRequest{ItemID: item.ID, Quantity: 1})
	require.NoError(t, err)

	own, err := g.ListTransactions(ctx, student, TransactionQuery{UserID: other.UserID})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, student.UserID, own[0].UserID)

	none, err := g.ListTransactions(ctx, teacher, TransactionQuery{})
	require.NoError(t, err)
	assert.Empty(t, none, "teachers are not privileged")

	mine, err := g.Checkout(ctx, teacher, CheckoutRequest{ItemID: item.ID, Quantity: 2})
	require.NoError(t, err)
	scoped, err := g.ListTransactions(ctx, teacher, TransactionQuery{})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, mine.ID, scoped[0].ID)
	assert.Equal(t, teacher.UserID, scoped[0].UserID)

	all, err := g.ListTransactions(ctx, staff, TransactionQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = g.GetTransaction(ctx, student, theirs.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	from := testNow.Add(time.Hour)
	to := testNow
	_, err = g.ListTransactions(ctx, admin, TransactionQuery{From: &from, To: &to})
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestGetLowStockItems(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()

	newTestItem(t, g, 10, 2)
	low := newTestItem(t, g, 2, 2)

	items, err := g.GetLowStockItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, low.ID, items[0].ID)
}
