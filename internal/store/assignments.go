package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/inventur/internal/model"
)

func validQuantity(qty int64) error {
	if qty < 0 || qty > MaxCount {
		return fmt.Errorf("%w: quantity must be from 0 to %d", ErrInvalidValue, MaxCount)
	}
	return nil
}

// AssignItem reserves qty units of an item for an event. A second call for the
// same pair overwrites the quantity instead of adding a row. The quantity is not
// checked against stock; availability may go negative.
func AssignItem(ctx context.Context, db *sql.DB, eventID, itemID, qty int64) (*model.Assignment, error) {
	if err := validQuantity(qty); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = ?)`, eventID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking event: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM inventory WHERE id = ?)`, itemID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking item: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO event_assignments (event_id, inventory_id, quantity) VALUES (?, ?, ?)
		 ON CONFLICT (event_id, inventory_id) DO UPDATE SET quantity = excluded.quantity`,
		eventID, itemID, qty,
	)
	if err != nil {
		return nil, fmt.Errorf("assigning item: %w", err)
	}

	a := &model.Assignment{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, event_id, inventory_id, quantity FROM event_assignments
		 WHERE event_id = ? AND inventory_id = ?`, eventID, itemID,
	).Scan(&a.ID, &a.EventID, &a.ItemID, &a.Quantity)
	if err != nil {
		return nil, fmt.Errorf("reading assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing assignment: %w", err)
	}
	return a, nil
}

// GetAssignment returns an assignment by ID, or nil if it does not exist.
func GetAssignment(ctx context.Context, db *sql.DB, id int64) (*model.Assignment, error) {
	a := &model.Assignment{}
	err := db.QueryRowContext(ctx,
		`SELECT id, event_id, inventory_id, quantity FROM event_assignments WHERE id = ?`, id,
	).Scan(&a.ID, &a.EventID, &a.ItemID, &a.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting assignment: %w", err)
	}
	return a, nil
}

// UpdateAssignmentQuantity changes the reserved quantity of one assignment.
func UpdateAssignmentQuantity(ctx context.Context, db *sql.DB, id, qty int64) error {
	if err := validQuantity(qty); err != nil {
		return err
	}
	result, err := db.ExecContext(ctx, `UPDATE event_assignments SET quantity = ? WHERE id = ?`, qty, id)
	if err != nil {
		return fmt.Errorf("updating assignment: %w", err)
	}
	return requireAffected(result)
}

// RemoveAssignment deletes one assignment.
func RemoveAssignment(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM event_assignments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("removing assignment: %w", err)
	}
	return requireAffected(result)
}

// ListEventItems returns the items assigned to an event with their reserved quantities.
// An unknown event yields an empty list.
func ListEventItems(ctx context.Context, db *sql.DB, eventID int64) ([]model.EventItem, error) {
	rows, err := db.QueryContext(ctx,
		itemSelect+`, a.id, a.quantity`+itemFrom+`
		 JOIN event_assignments a ON a.inventory_id = i.id
		 WHERE a.event_id = ?
		 ORDER BY i.group_name, i.name_id`, eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing event items: %w", err)
	}
	defer rows.Close()

	var items []model.EventItem
	for rows.Next() {
		var ei model.EventItem
		if err := scanItem(rows, &ei.Item, &ei.AssignmentID, &ei.AssignedQty); err != nil {
			return nil, fmt.Errorf("scanning event item: %w", err)
		}
		items = append(items, ei)
	}
	return items, rows.Err()
}
