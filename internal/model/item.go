package model

import "time"

// Item represents a countable inventory unit. Quantity is the stock
// currently available for checkout; TotalQuantity is the stock the
// organization owns, including units held by active transactions.
type Item struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Description   string     `db:"description" json:"description,omitempty"`
	Category      string     `db:"category" json:"category,omitempty"`
	Location      string     `db:"location" json:"location,omitempty"`
	Quantity      int        `db:"quantity" json:"quantity"`
	MinQuantity   int        `db:"min_quantity" json:"min_quantity"`
	TotalQuantity int        `db:"total_quantity" json:"total_quantity"`
	Status        string     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Item statuses.
const (
	ItemStatusAvailable   = "available"
	ItemStatusInUse       = "in_use"
	ItemStatusMaintenance = "maintenance"
	ItemStatusLost        = "lost"
	ItemStatusExpired     = "expired"
)

// LowStock reports whether the item is at or below its reorder threshold.
func (i Item) LowStock() bool {
	return i.Quantity <= i.MinQuantity
}

// Allocatable reports whether stock may be checked out of the item.
func (i Item) Allocatable() bool {
	return i.Status == ItemStatusAvailable || i.Status == ItemStatusInUse
}

var itemTransitions = map[string][]string{
	ItemStatusAvailable:   {ItemStatusInUse, ItemStatusMaintenance, ItemStatusLost, ItemStatusExpired},
	ItemStatusInUse:       {ItemStatusAvailable, ItemStatusMaintenance, ItemStatusLost, ItemStatusExpired},
	ItemStatusMaintenance: {ItemStatusAvailable, ItemStatusInUse, ItemStatusLost, ItemStatusExpired},
}

// ValidItemStatus checks that s is a known item status.
func ValidItemStatus(s string) bool {
	switch s {
	case ItemStatusAvailable, ItemStatusInUse, ItemStatusMaintenance, ItemStatusLost, ItemStatusExpired:
		return true
	}
	return false
}

// ItemTransitionAllowed reports whether an item may move from one status
// to another. Lost and expired are terminal.
func ItemTransitionAllowed(from, to string) bool {
	return contains(itemTransitions[from], to)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
