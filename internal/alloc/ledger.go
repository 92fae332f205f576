package alloc

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

// CommittedDelta is the outcome of taking stock from an item.
type CommittedDelta struct {
	ItemID      string
	Quantity    int
	MinQuantity int
	LowStock    bool
}

// getLiveItem reads an item that has not been deleted.
func getLiveItem(ctx context.Context, tx sqlx.ExtContext, id string) (*model.Item, error) {
	item, err := store.GetItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.DeletedAt != nil {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, id)
	}
	return item, nil
}

// reserveStock takes amount units out of the item's available stock. The
// store refuses the decrement when less is available, so the check and the
// write cannot be split by a concurrent unit.
func reserveStock(ctx context.Context, tx sqlx.ExtContext, itemID string, amount int, now time.Time) (CommittedDelta, error) {
	item, err := getLiveItem(ctx, tx, itemID)
	if err != nil {
		return CommittedDelta{}, err
	}
	if !item.Allocatable() {
		return CommittedDelta{}, fmt.Errorf("%w: item %s is %s", ErrItemUnavailable, itemID, item.Status)
	}

	ok, err := store.DecrementItemStock(ctx, tx, itemID, amount, now)
	if err != nil {
		return CommittedDelta{}, err
	}
	if !ok {
		return CommittedDelta{}, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, amount, item.Quantity)
	}

	remaining := item.Quantity - amount
	return CommittedDelta{
		ItemID:      itemID,
		Quantity:    remaining,
		MinQuantity: item.MinQuantity,
		LowStock:    remaining <= item.MinQuantity,
	}, nil
}

// releaseStock puts amount units back into the item's available stock.
func releaseStock(ctx context.Context, tx sqlx.ExtContext, itemID string, amount int, now time.Time) error {
	return store.IncrementItemStock(ctx, tx, itemID, amount, now)
}

// writeOffStock removes amount units from the item's owned stock. The
// units must already be out of the available count.
func writeOffStock(ctx context.Context, tx sqlx.ExtContext, itemID string, amount int, now time.Time) error {
	ok, err := store.WriteOffItemStock(ctx, tx, itemID, amount, now)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("writing off %d units of item %s: owned stock too low", amount, itemID)
	}
	return nil
}
