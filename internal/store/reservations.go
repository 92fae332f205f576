package store

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/izposoja/internal/model"
)

var reservationColumns = []any{
	"id", "resource_id", "user_id", "start_time", "end_time", "purpose", "status", "created_at", "updated_at",
}

// ReservationFilter narrows ListReservations. Zero values match everything.
type ReservationFilter struct {
	ResourceID string
	UserID     string
	Status     string
}

// CreateReservation inserts a pending reservation.
func CreateReservation(ctx context.Context, db sqlx.ExtContext, r model.Reservation) (*model.Reservation, error) {
	if r.ID == "" {
		r.ID = NewID()
	}
	created := Timestamp(r.CreatedAt)

	err := insert(ctx, db, builder(db).Insert("reservations").Rows(goqu.Record{
		"id":          r.ID,
		"resource_id": r.ResourceID,
		"user_id":     r.UserID,
		"start_time":  Timestamp(r.StartTime),
		"end_time":    Timestamp(r.EndTime),
		"purpose":     r.Purpose,
		"status":      model.ReservationStatusPending,
		"created_at":  created,
		"updated_at":  created,
	}))
	if err != nil {
		return nil, fmt.Errorf("creating reservation: %w", err)
	}

	return GetReservation(ctx, db, r.ID)
}

// GetReservation returns a reservation by ID.
func GetReservation(ctx context.Context, db sqlx.ExtContext, id string) (*model.Reservation, error) {
	var r model.Reservation
	found, err := getOne(ctx, db, &r,
		builder(db).From("reservations").Select(reservationColumns...).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &r, nil
}

// FindOverlappingReservations returns the blocking reservations of a
// resource whose interval intersects [start, end).
func FindOverlappingReservations(ctx context.Context, db sqlx.ExtContext, resourceID string, start, end time.Time) ([]model.Reservation, error) {
	ds := builder(db).From("reservations").Select(reservationColumns...).
		Where(
			goqu.C("resource_id").Eq(resourceID),
			goqu.C("status").In(model.BlockingReservationStatuses),
			goqu.C("start_time").Lt(Timestamp(end)),
			goqu.C("end_time").Gt(Timestamp(start)),
		).
		Order(goqu.C("start_time").Asc())

	var reservations []model.Reservation
	if err := getAll(ctx, db, &reservations, ds); err != nil {
		return nil, fmt.Errorf("finding overlapping reservations: %w", err)
	}
	return reservations, nil
}

// ListReservations returns reservations matching f ordered by start time.
func ListReservations(ctx context.Context, db sqlx.ExtContext, f ReservationFilter) ([]model.Reservation, error) {
	ds := builder(db).From("reservations").Select(reservationColumns...).
		Order(goqu.C("start_time").Asc(), goqu.C("id").Asc())
	if f.ResourceID != "" {
		ds = ds.Where(goqu.C("resource_id").Eq(f.ResourceID))
	}
	if f.UserID != "" {
		ds = ds.Where(goqu.C("user_id").Eq(f.UserID))
	}
	if f.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(f.Status))
	}

	var reservations []model.Reservation
	if err := getAll(ctx, db, &reservations, ds); err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	return reservations, nil
}

// SetReservationStatus moves a reservation from one status to another. It
// reports false if the reservation was no longer in the from status.
func SetReservationStatus(ctx context.Context, db sqlx.ExtContext, id, from, to string, now time.Time) (bool, error) {
	n, err := update(ctx, db, builder(db).Update("reservations").
		Set(goqu.Record{"status": to, "updated_at": Timestamp(now)}).
		Where(goqu.C("id").Eq(id), goqu.C("status").Eq(from)))
	if err != nil {
		return false, fmt.Errorf("setting reservation status: %w", err)
	}
	return n == 1, nil
}
