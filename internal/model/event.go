package model

// Event is a dated activity that can reserve inventory.
type Event struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Responsible string `json:"responsible"`
	Info        string `json:"info"`
	Status      string `json:"status"`
	IsActive    bool   `json:"is_active"`
}

// Event statuses used for new events. The field itself is free text.
const (
	EventStatusPlanned = "planned"
)

// Assignment reserves a quantity of an item for an event.
type Assignment struct {
	ID       int64 `json:"id"`
	EventID  int64 `json:"event_id"`
	ItemID   int64 `json:"inventory_id"`
	Quantity int   `json:"anzahl"`
}

// EventItem is an item as seen from an event: the item row plus its reservation.
type EventItem struct {
	Item
	AssignmentID int64 `json:"assignment_id"`
	AssignedQty  int   `json:"assigned_qty"`
}
