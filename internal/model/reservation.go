package model

import "time"

// Reservation is a booking of a resource over the half-open interval
// [StartTime, EndTime).
type Reservation struct {
	ID         string    `db:"id" json:"id"`
	ResourceID string    `db:"resource_id" json:"resource_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	EndTime    time.Time `db:"end_time" json:"end_time"`
	Purpose    string    `db:"purpose" json:"purpose,omitempty"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Reservation statuses.
const (
	ReservationStatusPending   = "pending"
	ReservationStatusApproved  = "approved"
	ReservationStatusRejected  = "rejected"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusCompleted = "completed"
)

// BlockingReservationStatuses hold their interval against new bookings.
var BlockingReservationStatuses = []string{ReservationStatusPending, ReservationStatusApproved}

var reservationTransitions = map[string][]string{
	ReservationStatusPending:  {ReservationStatusApproved, ReservationStatusRejected, ReservationStatusCancelled},
	ReservationStatusApproved: {ReservationStatusCompleted, ReservationStatusCancelled},
}

// ValidReservationStatus checks that s is a known reservation status.
func ValidReservationStatus(s string) bool {
	switch s {
	case ReservationStatusPending, ReservationStatusApproved, ReservationStatusRejected,
		ReservationStatusCancelled, ReservationStatusCompleted:
		return true
	}
	return false
}

// ReservationTransitionAllowed reports whether a reservation may move
// from one status to another.
func ReservationTransitionAllowed(from, to string) bool {
	return contains(reservationTransitions[from], to)
}

// Blocking reports whether the reservation holds its interval.
func (r Reservation) Blocking() bool {
	return contains(BlockingReservationStatuses, r.Status)
}

// Overlaps reports whether the reservation's interval intersects
// [start, end). Touching endpoints do not overlap.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}
