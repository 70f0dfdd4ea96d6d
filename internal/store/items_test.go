package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/inventur/internal/db"
	"github.com/erazemk/inventur/internal/model"
)

func mustCreateItem(t *testing.T, database *sql.DB, nameID string, qty int) *model.Item {
	t.Helper()
	ctx := context.Background()
	item, err := CreateItem(ctx, database, nameID, "")
	if err != nil {
		t.Fatalf("CreateItem(%q): %v", nameID, err)
	}
	if err := UpdateItemField(ctx, database, item.ID, "quantity", float64(qty)); err != nil {
		t.Fatalf("setting quantity: %v", err)
	}
	return item
}

func mustCreateEvent(t *testing.T, database *sql.DB) *model.Event {
	t.Helper()
	e, err := CreateEvent(context.Background(), database, "")
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return e
}

func availableOf(t *testing.T, database *sql.DB, id int64) int {
	t.Helper()
	item, err := GetItem(context.Background(), database, id)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item == nil {
		t.Fatalf("item %d not found", id)
	}
	return item.Available
}

func TestCreateItemDefaults(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := CreateItem(ctx, database, "", "")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.NameID != "New Item 1" {
		t.Errorf("name_id = %q, want %q", item.NameID, "New Item 1")
	}
	if item.Group != model.DefaultGroupName {
		t.Errorf("group = %q, want %q", item.Group, model.DefaultGroupName)
	}
	if item.Quantity != 1 || item.Available != 1 {
		t.Errorf("quantity/available = %d/%d, want 1/1", item.Quantity, item.Available)
	}
	if item.Location != "-" || item.Info != "-" || item.Usage != "-" {
		t.Errorf("placeholders = %q %q %q", item.Location, item.Info, item.Usage)
	}
	if item.HasImage {
		t.Error("new item should not have an image")
	}
}

func TestCreateItemProbesFreeName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, _ := CreateItem(ctx, database, "", "")
	second, _ := CreateItem(ctx, database, "", "")
	if second.NameID != "New Item 2" {
		t.Fatalf("second name = %q, want New Item 2", second.NameID)
	}

	// A gap left by a rename is reused.
	if err := UpdateItemField(ctx, database, first.ID, "name_id", "Mixer"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	third, err := CreateItem(ctx, database, "", "")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if third.NameID != "New Item 1" {
		t.Errorf("third name = %q, want New Item 1", third.NameID)
	}
}

func TestCreateItemDuplicateName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateItem(ctx, database, "Beamer", ""); err != nil {
		t.Fatal(err)
	}
	_, err := CreateItem(ctx, database, "Beamer", "")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestUpdateItemFieldAllowList(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := mustCreateItem(t, database, "Cable", 5)

	tests := []struct {
		field string
		value any
		want  error
	}{
		{"location", "Shelf A", nil},
		{"lagerort", "Shelf B", nil},
		{"anzahl", "7", nil},
		{"quantity", float64(-1), ErrInvalidValue},
		{"quantity", 1.5, ErrInvalidValue},
		{"quantity", "many", ErrInvalidValue},
		{"name_id", "  ", ErrInvalidValue},
		{"id", float64(9), ErrInvalidField},
		{"image", "x", ErrInvalidField},
		{"quantity; DROP TABLE inventory", "1", ErrInvalidField},
	}
	for _, tt := range tests {
		err := UpdateItemField(ctx, database, item.ID, tt.field, tt.value)
		if tt.want == nil && err != nil {
			t.Errorf("%s=%v: unexpected error %v", tt.field, tt.value, err)
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("%s=%v: got %v, want %v", tt.field, tt.value, err, tt.want)
		}
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Location != "Shelf B" || got.Quantity != 7 {
		t.Errorf("item = %+v, want location Shelf B quantity 7", got)
	}
}

func TestUpdateItemFieldUnknownItem(t *testing.T) {
	database := db.NewTestDB(t)
	err := UpdateItemField(context.Background(), database, 999, "info", "x")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateItemFieldRenameConflict(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	mustCreateItem(t, database, "A", 1)
	b := mustCreateItem(t, database, "B", 1)

	err := UpdateItemField(ctx, database, b.ID, "name_id", "A")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestAvailabilityFollowsActiveEvent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := mustCreateItem(t, database, "Chair", 10)
	e1 := mustCreateEvent(t, database)
	e2 := mustCreateEvent(t, database)

	if _, err := AssignItem(ctx, database, e1.ID, item.ID, 4); err != nil {
		t.Fatal(err)
	}
	if _, err := AssignItem(ctx, database, e2.ID, item.ID, 7); err != nil {
		t.Fatal(err)
	}

	// No active event: available equals stock.
	if got := availableOf(t, database, item.ID); got != 10 {
		t.Errorf("no active event: available = %d, want 10", got)
	}

	if _, err := SetActiveEvent(ctx, database, &e1.ID); err != nil {
		t.Fatal(err)
	}
	if got := availableOf(t, database, item.ID); got != 6 {
		t.Errorf("e1 active: available = %d, want 6", got)
	}

	if _, err := SetActiveEvent(ctx, database, &e2.ID); err != nil {
		t.Fatal(err)
	}
	if got := availableOf(t, database, item.ID); got != 3 {
		t.Errorf("e2 active: available = %d, want 3", got)
	}

	// Oversubscription is reported, not rejected.
	if _, err := AssignItem(ctx, database, e2.ID, item.ID, 12); err != nil {
		t.Fatal(err)
	}
	if got := availableOf(t, database, item.ID); got != -2 {
		t.Errorf("oversubscribed: available = %d, want -2", got)
	}

	items, err := ListInventory(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Available != -2 {
		t.Errorf("ListInventory = %+v", items)
	}
}

func TestDeleteItemCascades(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := mustCreateItem(t, database, "Speaker", 2)
	e := mustCreateEvent(t, database)
	if _, err := AssignItem(ctx, database, e.ID, item.ID, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateManual(ctx, database, item.ID, "speaker.pdf", "/tmp/1_speaker.pdf"); err != nil {
		t.Fatal(err)
	}

	paths, err := DeleteItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if len(paths) != 1 || paths[0] != "/tmp/1_speaker.pdf" {
		t.Errorf("paths = %v", paths)
	}

	items, _ := ListEventItems(ctx, database, e.ID)
	if len(items) != 0 {
		t.Errorf("event still lists %d items", len(items))
	}
	manuals, _ := ListManuals(ctx, database, item.ID)
	if len(manuals) != 0 {
		t.Errorf("item still has %d manuals", len(manuals))
	}

	if _, err := DeleteItem(ctx, database, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestItemImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := mustCreateItem(t, database, "Lamp", 1)

	data, _, err := GetItemImage(ctx, database, item.ID)
	if err != nil || data != nil {
		t.Fatalf("GetItemImage before upload = %v, %v", data, err)
	}

	if err := SetItemImage(ctx, database, item.ID, []byte{1, 2, 3}, "image/jpeg"); err != nil {
		t.Fatal(err)
	}
	data, mime, err := GetItemImage(ctx, database, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 3 || mime != "image/jpeg" {
		t.Errorf("image = %v %q", data, mime)
	}
	got, _ := GetItem(ctx, database, item.ID)
	if !got.HasImage {
		t.Error("HasImage = false after upload")
	}

	if err := SetItemImage(ctx, database, 999, []byte{1}, "image/jpeg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown item: got %v, want ErrNotFound", err)
	}
}
