package alloc

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

// ReservationRequest books a resource over [StartTime, EndTime). UserID
// defaults to the caller.
type ReservationRequest struct {
	ResourceID string
	UserID     string
	StartTime  time.Time
	EndTime    time.Time
	Purpose    string
}

// ReservationQuery narrows ListReservations.
type ReservationQuery struct {
	ResourceID string
	UserID     string
	Status     string
}

// CreateReservation books a time slot. Pending and approved reservations
// both hold their interval, so the request fails if either overlaps it.
func (g *Gateway) CreateReservation(ctx context.Context, caller Caller, req ReservationRequest) (_ *model.Reservation, err error) {
	ctx, span := g.startSpan(ctx, "create_reservation", caller, attribute.String("alloc.resource_id", req.ResourceID))
	defer func() { endSpan(span, err) }()

	start, end := store.Timestamp(req.StartTime), store.Timestamp(req.EndTime)
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidInterval,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if req.UserID == "" {
		req.UserID = caller.UserID
	}
	if !caller.owns(req.UserID) && !caller.Privileged() {
		return nil, fmt.Errorf("%w: reservation on behalf of another user", ErrPermissionDenied)
	}

	var r *model.Reservation
	err = g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		now := g.clock()

		res, err := store.GetResource(ctx, tx, req.ResourceID)
		if err != nil {
			return err
		}
		if res == nil || res.DeletedAt != nil {
			return fmt.Errorf("%w: resource %s", ErrNotFound, req.ResourceID)
		}
		if !res.Bookable() {
			return fmt.Errorf("%w: resource %s is %s", ErrResourceUnavailable, res.ID, res.Status)
		}

		overlapping, err := store.FindOverlappingReservations(ctx, tx, res.ID, start, end)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return fmt.Errorf("%w: overlaps reservation %s", ErrReservationConflict, overlapping[0].ID)
		}

		r, err = store.CreateReservation(ctx, tx, model.Reservation{
			ResourceID: res.ID,
			UserID:     req.UserID,
			StartTime:  start,
			EndTime:    end,
			Purpose:    req.Purpose,
			CreatedAt:  now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// UpdateReservationStatus moves a reservation through its state machine.
// Approving and rejecting need a privileged caller; owners may cancel or
// complete their own reservations.
func (g *Gateway) UpdateReservationStatus(ctx context.Context, caller Caller, id, status string) (_ *model.Reservation, err error) {
	ctx, span := g.startSpan(ctx, "update_reservation_status", caller,
		attribute.String("alloc.reservation_id", id),
		attribute.String("alloc.status", status))
	defer func() { endSpan(span, err) }()

	if !model.ValidReservationStatus(status) {
		return nil, fmt.Errorf("%w: unknown reservation status %q", ErrInvalidTransition, status)
	}
	if status == model.ReservationStatusApproved || status == model.ReservationStatusRejected {
		if err := requirePrivileged(caller, "deciding on a reservation"); err != nil {
			return nil, err
		}
	}

	var r *model.Reservation
	err = g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		now := g.clock()

		current, err := store.GetReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%w: reservation %s", ErrNotFound, id)
		}
		if !caller.owns(current.UserID) && !caller.Privileged() {
			return fmt.Errorf("%w: reservation belongs to another user", ErrPermissionDenied)
		}
		if !model.ReservationTransitionAllowed(current.Status, status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, status)
		}

		ok, err := store.SetReservationStatus(ctx, tx, id, current.Status, status, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("reservation %s changed concurrently: %w", id, store.ErrConflict)
		}

		if status == model.ReservationStatusCompleted {
			res, err := store.GetResource(ctx, tx, current.ResourceID)
			if err != nil {
				return err
			}
			if res != nil && res.Status == model.ResourceStatusInUse {
				if err := store.SetResourceStatus(ctx, tx, res.ID, model.ResourceStatusAvailable, now); err != nil {
					return err
				}
			}
		}

		r, err = store.GetReservation(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	g.emit(ctx, model.Event{
		Type:          model.EventReservationStatusChanged,
		OccurredAt:    r.UpdatedAt,
		UserID:        r.UserID,
		ResourceID:    r.ResourceID,
		ReservationID: r.ID,
		Status:        r.Status,
	})

	return r, nil
}

// GetReservation returns one reservation.
func (g *Gateway) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	r, err := store.GetReservation(ctx, g.db, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, id)
	}
	return r, nil
}

// ListReservations returns reservations ordered by start time.
func (g *Gateway) ListReservations(ctx context.Context, caller Caller, q ReservationQuery) (_ []model.Reservation, err error) {
	ctx, span := g.startSpan(ctx, "list_reservations", caller)
	defer func() { endSpan(span, err) }()

	return store.ListReservations(ctx, g.db, store.ReservationFilter{
		ResourceID: q.ResourceID,
		UserID:     q.UserID,
		Status:     q.Status,
	})
}
