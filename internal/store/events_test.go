package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/inventur/internal/db"
	"github.com/erazemk/inventur/internal/model"
)

func TestCreateEventDefaults(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	e, err := CreateEvent(ctx, database, "")
	if err != nil {
		t.Fatal(err)
	}
	if e.Name != "New Event 1" {
		t.Errorf("name = %q", e.Name)
	}
	if e.Date != time.Now().Format(time.DateOnly) {
		t.Errorf("date = %q", e.Date)
	}
	if e.Status != model.EventStatusPlanned || e.IsActive {
		t.Errorf("status = %q active = %v", e.Status, e.IsActive)
	}

	named, err := CreateEvent(ctx, database, "Summer Fair")
	if err != nil {
		t.Fatal(err)
	}
	if named.Name != "Summer Fair" {
		t.Errorf("name = %q", named.Name)
	}
}

func TestSetActiveEvent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	e1 := mustCreateEvent(t, database)
	e2 := mustCreateEvent(t, database)

	activeID := func() int64 {
		t.Helper()
		a, err := GetActiveEvent(ctx, database)
		if err != nil {
			t.Fatal(err)
		}
		if a == nil {
			return 0
		}
		return a.ID
	}

	if ok, err := SetActiveEvent(ctx, database, &e1.ID); err != nil || !ok {
		t.Fatalf("activate e1: %v %v", ok, err)
	}
	// Activating the same event twice is a no-op.
	if ok, err := SetActiveEvent(ctx, database, &e1.ID); err != nil || !ok {
		t.Fatalf("activate e1 again: %v %v", ok, err)
	}
	if got := activeID(); got != e1.ID {
		t.Errorf("active = %d, want %d", got, e1.ID)
	}

	if _, err := SetActiveEvent(ctx, database, &e2.ID); err != nil {
		t.Fatal(err)
	}
	if got := activeID(); got != e2.ID {
		t.Errorf("active = %d, want %d", got, e2.ID)
	}

	events, _ := ListEvents(ctx, database)
	active := 0
	for _, e := range events {
		if e.IsActive {
			active++
		}
	}
	if active != 1 {
		t.Errorf("%d active events, want 1", active)
	}

	if ok, err := SetActiveEvent(ctx, database, nil); err != nil || ok {
		t.Fatalf("clear: %v %v", ok, err)
	}
	if got := activeID(); got != 0 {
		t.Errorf("active after clear = %d", got)
	}

	// An unknown ID clears without activating anything.
	SetActiveEvent(ctx, database, &e1.ID)
	missing := int64(999)
	if ok, err := SetActiveEvent(ctx, database, &missing); err != nil || ok {
		t.Fatalf("unknown id: %v %v", ok, err)
	}
	if got := activeID(); got != 0 {
		t.Errorf("active after unknown id = %d", got)
	}
}

func TestUpdateEventField(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	e := mustCreateEvent(t, database)

	if err := UpdateEventField(ctx, database, e.ID, "ort", "Town Hall"); err != nil {
		t.Fatal(err)
	}
	if err := UpdateEventField(ctx, database, e.ID, "date", "2026-12-24"); err != nil {
		t.Fatal(err)
	}
	if err := UpdateEventField(ctx, database, e.ID, "date", "24.12.2026"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("bad date: got %v", err)
	}
	if err := UpdateEventField(ctx, database, e.ID, "is_active", "1"); !errors.Is(err, ErrInvalidField) {
		t.Errorf("is_active: got %v", err)
	}

	got, _ := GetEvent(ctx, database, e.ID)
	if got.Location != "Town Hall" || got.Date != "2026-12-24" {
		t.Errorf("event = %+v", got)
	}
}

func TestDeleteEventRemovesAssignments(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := mustCreateItem(t, database, "Table", 5)
	e := mustCreateEvent(t, database)
	AssignItem(ctx, database, e.ID, item.ID, 2)
	SetActiveEvent(ctx, database, &e.ID)

	if err := DeleteEvent(ctx, database, e.ID); err != nil {
		t.Fatal(err)
	}

	var n int
	database.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_assignments WHERE event_id = ?`, e.ID).Scan(&n)
	if n != 0 {
		t.Errorf("%d assignments left", n)
	}
	if got := availableOf(t, database, item.ID); got != 5 {
		t.Errorf("available = %d, want 5", got)
	}
	if err := DeleteEvent(ctx, database, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}

func TestAssignItemUpserts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := mustCreateItem(t, database, "Mic", 10)
	e := mustCreateEvent(t, database)

	first, err := AssignItem(ctx, database, e.ID, item.ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	second, err := AssignItem(ctx, database, e.ID, item.ID, 5)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID || second.Quantity != 5 {
		t.Errorf("assignments = %+v then %+v", first, second)
	}

	items, err := ListEventItems(ctx, database, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].AssignedQty != 5 || items[0].AssignmentID != first.ID {
		t.Errorf("event items = %+v", items)
	}

	if _, err := AssignItem(ctx, database, e.ID, item.ID, -1); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("negative: got %v", err)
	}
	if _, err := AssignItem(ctx, database, 999, item.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown event: got %v", err)
	}
	if _, err := AssignItem(ctx, database, e.ID, 999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown item: got %v", err)
	}
}

func TestQuantityBoundIsShared(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := mustCreateItem(t, database, "Crate", 10)
	e := mustCreateEvent(t, database)

	if _, err := AssignItem(ctx, database, e.ID, item.ID, MaxCount+1); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("assign above bound: got %v", err)
	}
	a, err := AssignItem(ctx, database, e.ID, item.ID, MaxCount)
	if err != nil {
		t.Fatalf("assign at bound: %v", err)
	}
	if err := UpdateAssignmentQuantity(ctx, database, a.ID, 1<<40); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("update assignment above bound: got %v", err)
	}

	for _, v := range []any{"99999999999", float64(1 << 40), int64(1 << 40), int64(MaxCount) + 1} {
		if err := UpdateItemField(ctx, database, item.ID, "quantity", v); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("quantity %v (%T): got %v", v, v, err)
		}
	}
	if err := UpdateItemField(ctx, database, item.ID, "quantity", "2147483647"); err != nil {
		t.Errorf("quantity at bound: %v", err)
	}
}

func TestAssignmentUpdateAndRemove(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := mustCreateItem(t, database, "Rope", 10)
	e := mustCreateEvent(t, database)
	a, _ := AssignItem(ctx, database, e.ID, item.ID, 3)

	if err := UpdateAssignmentQuantity(ctx, database, a.ID, 8); err != nil {
		t.Fatal(err)
	}
	got, _ := GetAssignment(ctx, database, a.ID)
	if got.Quantity != 8 {
		t.Errorf("quantity = %d", got.Quantity)
	}

	if err := RemoveAssignment(ctx, database, a.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ := GetAssignment(ctx, database, a.ID); got != nil {
		t.Errorf("assignment still exists: %+v", got)
	}
	if err := RemoveAssignment(ctx, database, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove: got %v", err)
	}
	if err := UpdateAssignmentQuantity(ctx, database, a.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("update removed: got %v", err)
	}
}

func TestListEventItemsUnknownEvent(t *testing.T) {
	database := db.NewTestDB(t)
	items, err := ListEventItems(context.Background(), database, 42)
	if err != nil || len(items) != 0 {
		t.Errorf("got %v, %v", items, err)
	}
}
