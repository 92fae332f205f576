package store

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/izposoja/internal/model"
)

var itemColumns = []any{
	"id", "name", "description", "category", "location", "quantity", "min_quantity",
	"total_quantity", "status", "created_at", "updated_at", "deleted_at",
}

// CreateItem inserts a new item. The owned stock starts equal to the
// available quantity.
func CreateItem(ctx context.Context, db sqlx.ExtContext, item model.Item) (*model.Item, error) {
	if item.ID == "" {
		item.ID = NewID()
	}
	if item.Status == "" {
		item.Status = model.ItemStatusAvailable
	}
	created := Timestamp(item.CreatedAt)

	err := insert(ctx, db, builder(db).Insert("items").Rows(goqu.Record{
		"id":             item.ID,
		"name":           item.Name,
		"description":    item.Description,
		"category":       item.Category,
		"location":       item.Location,
		"quantity":       item.Quantity,
		"min_quantity":   item.MinQuantity,
		"total_quantity": item.Quantity,
		"status":         item.Status,
		"created_at":     created,
		"updated_at":     created,
	}))
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, item.ID)
}

// GetItem returns an item by ID, including soft-deleted ones.
func GetItem(ctx context.Context, db sqlx.ExtContext, id string) (*model.Item, error) {
	var item model.Item
	found, err := getOne(ctx, db, &item,
		builder(db).From("items").Select(itemColumns...).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &item, nil
}

// ListItems returns all non-deleted items, optionally filtered by status.
func ListItems(ctx context.Context, db sqlx.ExtContext, status string) ([]model.Item, error) {
	ds := builder(db).From("items").Select(itemColumns...).
		Where(goqu.C("deleted_at").IsNull()).
		Order(goqu.C("name").Asc())
	if status != "" {
		ds = ds.Where(goqu.C("status").Eq(status))
	}

	var items []model.Item
	if err := getAll(ctx, db, &items, ds); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// ListLowStockItems returns non-deleted items at or below their reorder
// threshold.
func ListLowStockItems(ctx context.Context, db sqlx.ExtContext) ([]model.Item, error) {
	ds := builder(db).From("items").Select(itemColumns...).
		Where(
			goqu.C("deleted_at").IsNull(),
			goqu.C("quantity").Lte(goqu.C("min_quantity")),
		).
		Order(goqu.C("name").Asc())

	var items []model.Item
	if err := getAll(ctx, db, &items, ds); err != nil {
		return nil, fmt.Errorf("listing low stock items: %w", err)
	}
	return items, nil
}

// UpdateItem updates an item's descriptive fields and reorder threshold.
func UpdateItem(ctx context.Context, db sqlx.ExtContext, item model.Item) error {
	_, err := update(ctx, db, builder(db).Update("items").
		Set(goqu.Record{
			"name":         item.Name,
			"description":  item.Description,
			"category":     item.Category,
			"location":     item.Location,
			"min_quantity": item.MinQuantity,
			"updated_at":   Timestamp(item.UpdatedAt),
		}).
		Where(goqu.C("id").Eq(item.ID), goqu.C("deleted_at").IsNull()))
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// SetItemStatus writes an item's status.
func SetItemStatus(ctx context.Context, db sqlx.ExtContext, id, status string, now time.Time) error {
	_, err := update(ctx, db, builder(db).Update("items").
		Set(goqu.Record{"status": status, "updated_at": Timestamp(now)}).
		Where(goqu.C("id").Eq(id)))
	if err != nil {
		return fmt.Errorf("setting item status: %w", err)
	}
	return nil
}

// DecrementItemStock removes amount from the available quantity if at
// least that much is available. It reports whether the stock was taken.
func DecrementItemStock(ctx context.Context, db sqlx.ExtContext, id string, amount int, now time.Time) (bool, error) {
	n, err := update(ctx, db, builder(db).Update("items").
		Set(goqu.Record{
			"quantity":   goqu.L("quantity - ?", amount),
			"updated_at": Timestamp(now),
		}).
		Where(goqu.C("id").Eq(id), goqu.C("quantity").Gte(amount)))
	if err != nil {
		return false, fmt.Errorf("decrementing item stock: %w", err)
	}
	return n == 1, nil
}

// IncrementItemStock adds amount back to the available quantity.
func IncrementItemStock(ctx context.Context, db sqlx.ExtContext, id string, amount int, now time.Time) error {
	_, err := update(ctx, db, builder(db).Update("items").
		Set(goqu.Record{
			"quantity":   goqu.L("quantity + ?", amount),
			"updated_at": Timestamp(now),
		}).
		Where(goqu.C("id").Eq(id)))
	if err != nil {
		return fmt.Errorf("incrementing item stock: %w", err)
	}
	return nil
}

// AddItemStock restocks an item, raising both available and owned stock.
func AddItemStock(ctx context.Context, db sqlx.ExtContext, id string, amount int, now time.Time) error {
	_, err := update(ctx, db, builder(db).Update("items").
		Set(goqu.Record{
			"quantity":       goqu.L("quantity + ?", amount),
			"total_quantity": goqu.L("total_quantity + ?", amount),
			"updated_at":     Timestamp(now),
		}).
		Where(goqu.C("id").Eq(id)))
	if err != nil {
		return fmt.Errorf("adding item stock: %w", err)
	}
	return nil
}

// WriteOffItemStock permanently removes amount from the owned stock. It
// reports false if the item owns less than amount.
func WriteOffItemStock(ctx context.Context, db sqlx.ExtContext, id string, amount int, now time.Time) (bool, error) {
	n, err := update(ctx, db, builder(db).Update("items").
		Set(goqu.Record{
			"total_quantity": goqu.L("total_quantity - ?", amount),
			"updated_at":     Timestamp(now),
		}).
		Where(goqu.C("id").Eq(id), goqu.C("total_quantity").Gte(amount)))
	if err != nil {
		return false, fmt.Errorf("writing off item stock: %w", err)
	}
	return n == 1, nil
}

// DeleteItem soft-deletes an item.
func DeleteItem(ctx context.Context, db sqlx.ExtContext, id string, now time.Time) error {
	_, err := update(ctx, db, builder(db).Update("items").
		Set(goqu.Record{"deleted_at": Timestamp(now)}).
		Where(goqu.C("id").Eq(id), goqu.C("deleted_at").IsNull()))
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}
