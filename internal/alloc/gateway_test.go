package alloc

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

var (
	testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	admin   = Caller{UserID: "admin-1", Role: model.RoleAdmin}
	staff   = Caller{UserID: "staff-1", Role: model.RoleStaff}
	teacher = Caller{UserID: "teacher-1", Role: model.RoleTeacher}
	student = Caller{UserID: "student-1", Role: model.RoleStudent}
	other   = Caller{UserID: "student-2", Role: model.RoleStudent}
)

// recorder collects events handed to the notifier.
type recorder struct {
	mu     sync.Mutex
	events []model.Event
	err    error
}

func (r *recorder) Notify(_ context.Context, e model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var types []string
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func newTestGateway(t *testing.T) (*Gateway, *recorder) {
	t.Helper()
	rec := &recorder{}
	g, err := NewGateway(db.NewTestDB(t),
		WithNotifier(rec),
		WithClock(func() time.Time { return testNow }),
		WithRetry(WithBaseDelay(time.Millisecond)),
	)
	require.NoError(t, err)
	return g, rec
}

func newTestItem(t *testing.T, g *Gateway, quantity, minQuantity int) *model.Item {
	t.Helper()
	item, err := g.CreateItem(context.Background(), staff, ItemInput{
		Name:        fmt.Sprintf("item-%d-%d", quantity, minQuantity),
		Quantity:    quantity,
		MinQuantity: minQuantity,
	})
	require.NoError(t, err)
	return item
}

// assertConserved checks that available stock plus checked out stock
// equals the owned stock.
func assertConserved(t *testing.T, g *Gateway, itemID string) {
	t.Helper()
	ctx := context.Background()

	item, err := store.GetItem(ctx, g.db, itemID)
	require.NoError(t, err)
	out, err := store.CheckedOutQuantity(ctx, g.db, itemID)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, item.Quantity, 0)
	assert.Equal(t, item.TotalQuantity, item.Quantity+out, "stock not conserved")
}

func TestNewGatewayRejectsBadRetryOptions(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := NewGateway(database, WithRetry(WithMaxAttempts(0)))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = NewGateway(database, WithRetry(WithJitterFactor(1.5)))
	assert.ErrorIs(t, err, ErrInvalidJitterFactor)

	_, err = NewGateway(database, WithRetry(WithBaseDelay(-time.Second)))
	assert.ErrorIs(t, err, ErrNegativeBaseDelay)
}

func TestUnitSurfacesExhaustedConflicts(t *testing.T) {
	g, _ := newTestGateway(t)

	calls := 0
	err := g.unit(context.Background(), func(context.Context, *sqlx.Tx) error {
		calls++
		return fmt.Errorf("writing: %w", store.ErrConflict)
	})

	require.ErrorIs(t, err, ErrTransientStoreConflict)
	assert.Equal(t, defaultMaxAttempts, calls)
}

func TestUnitRetriesUntilSuccess(t *testing.T) {
	g, _ := newTestGateway(t)

	calls := 0
	err := g.unit(context.Background(), func(context.Context, *sqlx.Tx) error {
		calls++
		if calls < 2 {
			return store.ErrConflict
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestUnitDoesNotRetryDomainErrors(t *testing.T) {
	g, _ := newTestGateway(t)

	calls := 0
	err := g.unit(context.Background(), func(context.Context, *sqlx.Tx) error {
		calls++
		return ErrInsufficientStock
	})

	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 1, calls)
}

func TestNotifierFailureDoesNotFailOperation(t *testing.T) {
	g, rec := newTestGateway(t)
	rec.err = fmt.Errorf("broker down")
	item := newTestItem(t, g, 3, 0)

	_, err := g.Checkout(context.Background(), student, CheckoutRequest{ItemID: item.ID, Quantity: 1})

	require.NoError(t, err)
	assert.Equal(t, []string{model.EventCheckedOut}, rec.types())
}
