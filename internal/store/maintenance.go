package store

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/izposoja/internal/model"
)

var maintenanceColumns = []any{
	"id", "item_id", "maintenance_date", "performed_by", "description", "cost",
	"next_maintenance_date", "completed_at", "created_at",
}

// CreateMaintenanceRecord inserts a maintenance record.
func CreateMaintenanceRecord(ctx context.Context, db sqlx.ExtContext, m model.MaintenanceRecord) (*model.MaintenanceRecord, error) {
	if m.ID == "" {
		m.ID = NewID()
	}

	var cost any
	if m.Cost != nil {
		cost = *m.Cost
	}

	err := insert(ctx, db, builder(db).Insert("maintenance_records").Rows(goqu.Record{
		"id":                    m.ID,
		"item_id":               m.ItemID,
		"maintenance_date":      Timestamp(m.MaintenanceDate),
		"performed_by":          m.PerformedBy,
		"description":           m.Description,
		"cost":                  cost,
		"next_maintenance_date": nullTime(m.NextMaintenanceDate),
		"created_at":            Timestamp(m.CreatedAt),
	}))
	if err != nil {
		return nil, fmt.Errorf("creating maintenance record: %w", err)
	}

	return GetMaintenanceRecord(ctx, db, m.ID)
}

// GetMaintenanceRecord returns a maintenance record by ID.
func GetMaintenanceRecord(ctx context.Context, db sqlx.ExtContext, id string) (*model.MaintenanceRecord, error) {
	var m model.MaintenanceRecord
	found, err := getOne(ctx, db, &m,
		builder(db).From("maintenance_records").Select(maintenanceColumns...).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return nil, fmt.Errorf("getting maintenance record: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &m, nil
}

// ListMaintenanceRecords returns maintenance records, newest first. A
// non-empty itemID limits the result to that item.
func ListMaintenanceRecords(ctx context.Context, db sqlx.ExtContext, itemID string) ([]model.MaintenanceRecord, error) {
	ds := builder(db).From("maintenance_records").Select(maintenanceColumns...).
		Order(goqu.C("maintenance_date").Desc())
	if itemID != "" {
		ds = ds.Where(goqu.C("item_id").Eq(itemID))
	}

	var records []model.MaintenanceRecord
	if err := getAll(ctx, db, &records, ds); err != nil {
		return nil, fmt.Errorf("listing maintenance records: %w", err)
	}
	return records, nil
}

// CompleteMaintenanceRecord marks an open record as completed, recording
// the actual cost when given. It reports false if the record was already
// completed.
func CompleteMaintenanceRecord(ctx context.Context, db sqlx.ExtContext, id string, cost *float64, now time.Time) (bool, error) {
	record := goqu.Record{"completed_at": Timestamp(now)}
	if cost != nil {
		record["cost"] = *cost
	}

	n, err := update(ctx, db, builder(db).Update("maintenance_records").
		Set(record).
		Where(goqu.C("id").Eq(id), goqu.C("completed_at").IsNull()))
	if err != nil {
		return false, fmt.Errorf("completing maintenance record: %w", err)
	}
	return n == 1, nil
}
