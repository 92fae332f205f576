package alloc

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

// ItemInput holds the editable fields of an item. Quantity is only used
// when creating; later changes go through AddStock and the ledger.
type ItemInput struct {
	Name        string
	Description string
	Category    string
	Location    string
	Quantity    int
	MinQuantity int
}

func (in ItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if in.Quantity < 0 || in.MinQuantity < 0 {
		return fmt.Errorf("%w: quantities must not be negative", ErrInvalidQuantity)
	}
	return nil
}

// CreateItem adds an item to the catalogue.
func (g *Gateway) CreateItem(ctx context.Context, caller Caller, in ItemInput) (_ *model.Item, err error) {
	ctx, span := g.startSpan(ctx, "create_item", caller)
	defer func() { endSpan(span, err) }()

	if err := requirePrivileged(caller, "creating items"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	return store.CreateItem(ctx, g.db, model.Item{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		Location:    in.Location,
		Quantity:    in.Quantity,
		MinQuantity: in.MinQuantity,
		CreatedAt:   g.clock(),
	})
}

// GetItem returns an item that has not been deleted.
func (g *Gateway) GetItem(ctx context.Context, id string) (*model.Item, error) {
	return getLiveItem(ctx, g.db, id)
}

// ListItems returns the catalogue, optionally filtered by status.
func (g *Gateway) ListItems(ctx context.Context, status string) ([]model.Item, error) {
	if status != "" && !model.ValidItemStatus(status) {
		return nil, fmt.Errorf("%w: unknown item status %q", ErrInvalidArgument, status)
	}
	return store.ListItems(ctx, g.db, status)
}

// UpdateItem changes an item's descriptive fields and reorder threshold.
func (g *Gateway) UpdateItem(ctx context.Context, caller Caller, id string, in ItemInput) (_ *model.Item, err error) {
	ctx, span := g.startSpan(ctx, "update_item", caller, attribute.String("alloc.item_id", id))
	defer func() { endSpan(span, err) }()

	if err := requirePrivileged(caller, "editing items"); err != nil {
		return nil, err
	}
	in.Quantity = 0
	if err := in.validate(); err != nil {
		return nil, err
	}

	var item *model.Item
	err = g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		current, err := getLiveItem(ctx, tx, id)
		if err != nil {
			return err
		}

		current.Name = strings.TrimSpace(in.Name)
		current.Description = in.Description
		current.Category = in.Category
		current.Location = in.Location
		current.MinQuantity = in.MinQuantity
		current.UpdatedAt = g.clock()
		if err := store.UpdateItem(ctx, tx, *current); err != nil {
			return err
		}

		item, err = store.GetItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// SetItemStatus moves an item to another status. Lost and expired items
// never change again.
func (g *Gateway) SetItemStatus(ctx context.Context, caller Caller, id, status string) (_ *model.Item, err error) {
	ctx, span := g.startSpan(ctx, "set_item_status", caller,
		attribute.String("alloc.item_id", id),
		attribute.String("alloc.status", status))
	defer func() { endSpan(span, err) }()

	if err := requirePrivileged(caller, "changing item status"); err != nil {
		return nil, err
	}
	if !model.ValidItemStatus(status) {
		return nil, fmt.Errorf("%w: unknown item status %q", ErrInvalidTransition, status)
	}

	var item *model.Item
	err = g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		current, err := getLiveItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status == status {
			item = current
			return nil
		}
		if !model.ItemTransitionAllowed(current.Status, status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, status)
		}
		if err := store.SetItemStatus(ctx, tx, id, status, g.clock()); err != nil {
			return err
		}

		item, err = store.GetItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// AddStock restocks an item.
func (g *Gateway) AddStock(ctx context.Context, caller Caller, id string, amount int) (_ *model.Item, err error) {
	ctx, span := g.startSpan(ctx, "add_stock", caller,
		attribute.String("alloc.item_id", id),
		attribute.Int("alloc.quantity", amount))
	defer func() { endSpan(span, err) }()

	if err := requirePrivileged(caller, "restocking items"); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidQuantity)
	}

	var item *model.Item
	err = g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := getLiveItem(ctx, tx, id); err != nil {
			return err
		}
		if err := store.AddItemStock(ctx, tx, id, amount, g.clock()); err != nil {
			return err
		}

		var err error
		item, err = store.GetItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item from the catalogue. Items with stock still
// checked out can't be deleted.
func (g *Gateway) DeleteItem(ctx context.Context, caller Caller, id string) (err error) {
	ctx, span := g.startSpan(ctx, "delete_item", caller, attribute.String("alloc.item_id", id))
	defer func() { endSpan(span, err) }()

	if err := requirePrivileged(caller, "deleting items"); err != nil {
		return err
	}

	return g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := getLiveItem(ctx, tx, id); err != nil {
			return err
		}

		out, err := store.CheckedOutQuantity(ctx, tx, id)
		if err != nil {
			return err
		}
		if out > 0 {
			return fmt.Errorf("%w: %d units still checked out", ErrInvalidTransition, out)
		}

		return store.DeleteItem(ctx, tx, id, g.clock())
	})
}
