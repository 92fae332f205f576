package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
)

func TestResourceLifecycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	r, err := CreateResource(ctx, database, model.Resource{Name: "Lab 1", Type: "room", CreatedAt: testNow})
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	if r.Status != model.ResourceStatusAvailable {
		t.Errorf("expected status 'available', got %q", r.Status)
	}
	CreateResource(ctx, database, model.Resource{Name: "Van", Type: "vehicle", CreatedAt: testNow})

	rooms, _ := ListResources(ctx, database, "room")
	if len(rooms) != 1 {
		t.Errorf("expected 1 room, got %d", len(rooms))
	}

	if err := SetResourceStatus(ctx, database, r.ID, model.ResourceStatusMaintenance, testNow); err != nil {
		t.Fatalf("SetResourceStatus: %v", err)
	}
	got, _ := GetResource(ctx, database, r.ID)
	if got.Status != model.ResourceStatusMaintenance {
		t.Errorf("expected status 'maintenance', got %q", got.Status)
	}

	DeleteResource(ctx, database, r.ID, testNow)
	all, _ := ListResources(ctx, database, "")
	if len(all) != 1 {
		t.Errorf("expected 1 resource after delete, got %d", len(all))
	}
}

func TestFindOverlappingReservations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	room, _ := CreateResource(ctx, database, model.Resource{Name: "Room", CreatedAt: testNow})
	at := func(h int) time.Time { return testNow.Add(time.Duration(h) * time.Hour) }

	pending, err := CreateReservation(ctx, database, model.Reservation{
		ResourceID: room.ID, UserID: "u1", StartTime: at(10), EndTime: at(12), CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if pending.Status != model.ReservationStatusPending {
		t.Errorf("expected status 'pending', got %q", pending.Status)
	}
	rejected, _ := CreateReservation(ctx, database, model.Reservation{
		ResourceID: room.ID, UserID: "u2", StartTime: at(13), EndTime: at(15), CreatedAt: testNow,
	})
	SetReservationStatus(ctx, database, rejected.ID, model.ReservationStatusPending, model.ReservationStatusRejected, testNow)

	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"inside", at(10), at(11), 1},
		{"straddles start", at(9), at(11), 1},
		{"adjacent before", at(8), at(10), 0},
		{"adjacent after", at(12), at(13), 0},
		{"rejected does not block", at(13), at(15), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindOverlappingReservations(ctx, database, room.ID, tt.start, tt.end)
			if err != nil {
				t.Fatalf("FindOverlappingReservations: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d overlaps, got %d", tt.want, len(got))
			}
		})
	}
}

func TestSetReservationStatusConditional(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	room, _ := CreateResource(ctx, database, model.Resource{Name: "Room", CreatedAt: testNow})
	r, _ := CreateReservation(ctx, database, model.Reservation{
		ResourceID: room.ID, UserID: "u1", StartTime: testNow, EndTime: testNow.Add(time.Hour), CreatedAt: testNow,
	})

	ok, err := SetReservationStatus(ctx, database, r.ID, model.ReservationStatusPending, model.ReservationStatusApproved, testNow)
	if err != nil {
		t.Fatalf("SetReservationStatus: %v", err)
	}
	if !ok {
		t.Fatal("expected transition to apply")
	}

	ok, _ = SetReservationStatus(ctx, database, r.ID, model.ReservationStatusPending, model.ReservationStatusRejected, testNow)
	if ok {
		t.Error("expected stale transition to be refused")
	}

	list, _ := ListReservations(ctx, database, ReservationFilter{ResourceID: room.ID, Status: model.ReservationStatusApproved})
	if len(list) != 1 {
		t.Errorf("expected 1 approved reservation, got %d", len(list))
	}
}

func TestMaintenanceRecords(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, database, "Printer", 1, 0)
	cost := 12.5

	m, err := CreateMaintenanceRecord(ctx, database, model.MaintenanceRecord{
		ItemID:          item.ID,
		MaintenanceDate: testNow,
		PerformedBy:     "u1",
		Description:     "Replace drum",
		Cost:            &cost,
		CreatedAt:       testNow,
	})
	if err != nil {
		t.Fatalf("CreateMaintenanceRecord: %v", err)
	}
	if m.Cost == nil || *m.Cost != 12.5 {
		t.Errorf("expected cost 12.5, got %v", m.Cost)
	}

	ok, _ := CompleteMaintenanceRecord(ctx, database, m.ID, nil, testNow)
	if !ok {
		t.Fatal("expected completion to apply")
	}
	ok, _ = CompleteMaintenanceRecord(ctx, database, m.ID, nil, testNow)
	if ok {
		t.Error("expected second completion to be refused")
	}

	records, _ := ListMaintenanceRecords(ctx, database, item.ID)
	if len(records) != 1 || records[0].CompletedAt == nil {
		t.Errorf("expected 1 completed record, got %+v", records)
	}
}
