package alloc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

// MaintenanceRequest schedules maintenance on an item.
type MaintenanceRequest struct {
	ItemID              string
	MaintenanceDate     time.Time
	Description         string
	Cost                *float64
	NextMaintenanceDate *time.Time
}

// ScheduleMaintenance records maintenance for an item. When the date is
// not in the future the item is put into maintenance right away.
func (g *Gateway) ScheduleMaintenance(ctx context.Context, caller Caller, req MaintenanceRequest) (_ *model.MaintenanceRecord, err error) {
	ctx, span := g.startSpan(ctx, "schedule_maintenance", caller, attribute.String("alloc.item_id", req.ItemID))
	defer func() { endSpan(span, err) }()

	if err := requirePrivileged(caller, "scheduling maintenance"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidArgument)
	}

	var m *model.MaintenanceRecord
	err = g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		now := g.clock()

		item, err := getLiveItem(ctx, tx, req.ItemID)
		if err != nil {
			return err
		}

		date := req.MaintenanceDate
		if date.IsZero() {
			date = now
		}
		date = store.Timestamp(date)

		startsNow := !date.After(now) && item.Status != model.ItemStatusMaintenance
		if startsNow && !model.ItemTransitionAllowed(item.Status, model.ItemStatusMaintenance) {
			return fmt.Errorf("%w: item %s is %s", ErrItemUnavailable, item.ID, item.Status)
		}

		m, err = store.CreateMaintenanceRecord(ctx, tx, model.MaintenanceRecord{
			ItemID:              item.ID,
			MaintenanceDate:     date,
			PerformedBy:         caller.UserID,
			Description:         strings.TrimSpace(req.Description),
			Cost:                req.Cost,
			NextMaintenanceDate: req.NextMaintenanceDate,
			CreatedAt:           now,
		})
		if err != nil {
			return err
		}

		if startsNow {
			return store.SetItemStatus(ctx, tx, item.ID, model.ItemStatusMaintenance, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.emit(ctx, model.Event{
		Type:       model.EventMaintenanceScheduled,
		OccurredAt: m.CreatedAt,
		UserID:     m.PerformedBy,
		ItemID:     m.ItemID,
	})

	return m, nil
}

// CompleteMaintenance closes a maintenance record and returns the item to
// service.
func (g *Gateway) CompleteMaintenance(ctx context.Context, caller Caller, id string, cost *float64) (_ *model.MaintenanceRecord, err error) {
	ctx, span := g.startSpan(ctx, "complete_maintenance", caller, attribute.String("alloc.maintenance_id", id))
	defer func() { endSpan(span, err) }()

	if err := requirePrivileged(caller, "completing maintenance"); err != nil {
		return nil, err
	}

	var m *model.MaintenanceRecord
	err = g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		now := g.clock()

		current, err := store.GetMaintenanceRecord(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%w: maintenance record %s", ErrNotFound, id)
		}

		ok, err := store.CompleteMaintenanceRecord(ctx, tx, id, cost, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: maintenance record %s", ErrAlreadyFinalized, id)
		}

		item, err := store.GetItem(ctx, tx, current.ItemID)
		if err != nil {
			return err
		}
		if item != nil && item.Status == model.ItemStatusMaintenance {
			if err := store.SetItemStatus(ctx, tx, item.ID, model.ItemStatusAvailable, now); err != nil {
				return err
			}
		}

		m, err = store.GetMaintenanceRecord(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMaintenance returns an item's maintenance records, newest first.
func (g *Gateway) ListMaintenance(ctx context.Context, itemID string) ([]model.MaintenanceRecord, error) {
	if _, err := getLiveItem(ctx, g.db, itemID); err != nil {
		return nil, err
	}
	return store.ListMaintenanceRecords(ctx, g.db, itemID)
}
