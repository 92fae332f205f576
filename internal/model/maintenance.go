package model

import "time"

// MaintenanceRecord tracks scheduled or performed maintenance on an item.
type MaintenanceRecord struct {
	ID                  string     `db:"id" json:"id"`
	ItemID              string     `db:"item_id" json:"item_id"`
	MaintenanceDate     time.Time  `db:"maintenance_date" json:"maintenance_date"`
	PerformedBy         string     `db:"performed_by" json:"performed_by"`
	Description         string     `db:"description" json:"description"`
	Cost                *float64   `db:"cost" json:"cost,omitempty"`
	NextMaintenanceDate *time.Time `db:"next_maintenance_date" json:"next_maintenance_date,omitempty"`
	CompletedAt         *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}
