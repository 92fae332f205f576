package store

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/izposoja/internal/model"
)

var resourceColumns = []any{
	"id", "name", "type", "location", "description", "status", "created_at", "updated_at", "deleted_at",
}

// CreateResource registers a new bookable resource.
func CreateResource(ctx context.Context, db sqlx.ExtContext, r model.Resource) (*model.Resource, error) {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.Status == "" {
		r.Status = model.ResourceStatusAvailable
	}
	created := Timestamp(r.CreatedAt)

	err := insert(ctx, db, builder(db).Insert("resources").Rows(goqu.Record{
		"id":          r.ID,
		"name":        r.Name,
		"type":        r.Type,
		"location":    r.Location,
		"description": r.Description,
		"status":      r.Status,
		"created_at":  created,
		"updated_at":  created,
	}))
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	return GetResource(ctx, db, r.ID)
}

// GetResource returns a resource by ID, including soft-deleted ones.
func GetResource(ctx context.Context, db sqlx.ExtContext, id string) (*model.Resource, error) {
	var r model.Resource
	found, err := getOne(ctx, db, &r,
		builder(db).From("resources").Select(resourceColumns...).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return nil, fmt.Errorf("getting resource: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &r, nil
}

// ListResources returns non-deleted resources, optionally filtered by type.
func ListResources(ctx context.Context, db sqlx.ExtContext, resourceType string) ([]model.Resource, error) {
	ds := builder(db).From("resources").Select(resourceColumns...).
		Where(goqu.C("deleted_at").IsNull()).
		Order(goqu.C("name").Asc())
	if resourceType != "" {
		ds = ds.Where(goqu.C("type").Eq(resourceType))
	}

	var resources []model.Resource
	if err := getAll(ctx, db, &resources, ds); err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	return resources, nil
}

// UpdateResource updates a resource's descriptive fields.
func UpdateResource(ctx context.Context, db sqlx.ExtContext, r model.Resource) error {
	_, err := update(ctx, db, builder(db).Update("resources").
		Set(goqu.Record{
			"name":        r.Name,
			"type":        r.Type,
			"location":    r.Location,
			"description": r.Description,
			"updated_at":  Timestamp(r.UpdatedAt),
		}).
		Where(goqu.C("id").Eq(r.ID), goqu.C("deleted_at").IsNull()))
	if err != nil {
		return fmt.Errorf("updating resource: %w", err)
	}
	return nil
}

// SetResourceStatus writes a resource's status.
func SetResourceStatus(ctx context.Context, db sqlx.ExtContext, id, status string, now time.Time) error {
	_, err := update(ctx, db, builder(db).Update("resources").
		Set(goqu.Record{"status": status, "updated_at": Timestamp(now)}).
		Where(goqu.C("id").Eq(id)))
	if err != nil {
		return fmt.Errorf("setting resource status: %w", err)
	}
	return nil
}

// DeleteResource soft-deletes a resource.
func DeleteResource(ctx context.Context, db sqlx.ExtContext, id string, now time.Time) error {
	_, err := update(ctx, db, builder(db).Update("resources").
		Set(goqu.Record{"deleted_at": Timestamp(now)}).
		Where(goqu.C("id").Eq(id), goqu.C("deleted_at").IsNull()))
	if err != nil {
		return fmt.Errorf("deleting resource: %w", err)
	}
	return nil
}
