package model

import "time"

// Resource is a bookable facility or piece of equipment.
type Resource struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Type        string     `db:"type" json:"type,omitempty"`
	Location    string     `db:"location" json:"location,omitempty"`
	Description string     `db:"description" json:"description,omitempty"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Resource statuses.
const (
	ResourceStatusAvailable   = "available"
	ResourceStatusInUse       = "in_use"
	ResourceStatusMaintenance = "maintenance"
	ResourceStatusUnavailable = "unavailable"
)

// ValidResourceStatus checks that s is a known resource status.
func ValidResourceStatus(s string) bool {
	switch s {
	case ResourceStatusAvailable, ResourceStatusInUse, ResourceStatusMaintenance, ResourceStatusUnavailable:
		return true
	}
	return false
}

// Bookable reports whether new reservations may be made on the resource.
func (r Resource) Bookable() bool {
	return r.DeletedAt == nil &&
		(r.Status == ResourceStatusAvailable || r.Status == ResourceStatusInUse)
}
