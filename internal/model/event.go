package model

import "time"

// Event is an allocation state change handed to the notifier.
type Event struct {
	Type          string    `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	UserID        string    `json:"user_id,omitempty"`
	ItemID        string    `json:"item_id,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	ResourceID    string    `json:"resource_id,omitempty"`
	ReservationID string    `json:"reservation_id,omitempty"`
	Quantity      int       `json:"quantity,omitempty"`
	MinQuantity   int       `json:"min_quantity,omitempty"`
	Status        string    `json:"status,omitempty"`
}

// Event types.
const (
	EventLowStock                 = "low-stock"
	EventCheckedOut               = "checked-out"
	EventReturned                 = "returned"
	EventOverdue                  = "overdue"
	EventMarkedLost               = "marked-lost"
	EventReservationStatusChanged = "reservation-status-changed"
	EventMaintenanceScheduled     = "maintenance-scheduled"
)

// Subject returns the id of the record the event is about.
func (e Event) Subject() string {
	switch {
	case e.ReservationID != "":
		return e.ReservationID
	case e.TransactionID != "":
		return e.TransactionID
	case e.ItemID != "":
		return e.ItemID
	default:
		return e.ResourceID
	}
}
