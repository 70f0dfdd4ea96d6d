package model

import "time"

// Item is an inventory item. Quantity is the total stock; Available is derived
// at read time and never stored.
type Item struct {
	ID        int64     `json:"id"`
	Group     string    `json:"group"`
	NameID    string    `json:"name_id"`
	Location  string    `json:"location"`
	Quantity  int       `json:"quantity"`
	Info      string    `json:"info"`
	Usage     string    `json:"usage"`
	Available int       `json:"available"`
	HasImage  bool      `json:"has_image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Group is an organizational label for items.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DefaultGroupName is used when an item is created and no group exists.
const DefaultGroupName = "Standard"

// Manual is a PDF attached to an item.
type Manual struct {
	ID       int64  `json:"id"`
	ItemID   int64  `json:"inventory_id"`
	Filename string `json:"filename"`
	Path     string `json:"filepath"`
}
