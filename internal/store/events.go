package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/inventur/internal/model"
)

const eventColumns = `id, date, name, location, responsible, info, status, is_active`

func scanEvent(s rowScanner, e *model.Event) error {
	return s.Scan(&e.ID, &e.Date, &e.Name, &e.Location, &e.Responsible, &e.Info, &e.Status, &e.IsActive)
}

// CreateEvent creates an event dated today with placeholder fields. An empty
// name gets the first free "New Event N" label.
func CreateEvent(ctx context.Context, db *sql.DB, name string) (*model.Event, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	name = strings.TrimSpace(name)
	if name == "" {
		name, err = nextFreeName(ctx, tx, "events", "name", eventNamePrefix)
		if err != nil {
			return nil, err
		}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO events (date, name, location, responsible, info, status)
		 VALUES (?, ?, '-', '-', '-', ?)`,
		time.Now().Format(time.DateOnly), name, model.EventStatusPlanned,
	)
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting event id: %w", err)
	}

	event, err := getEvent(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing event: %w", err)
	}
	return event, nil
}

// GetEvent returns an event by ID, or nil if it does not exist.
func GetEvent(ctx context.Context, db *sql.DB, id int64) (*model.Event, error) {
	return getEvent(ctx, db, id)
}

func getEvent(ctx context.Context, q queryer, id int64) (*model.Event, error) {
	e := &model.Event{}
	err := scanEvent(q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id), e)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return e, nil
}

// ListEvents returns all events, newest date first.
func ListEvents(ctx context.Context, db *sql.DB) ([]model.Event, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetActiveEvent returns the active event, or nil if none is active.
func GetActiveEvent(ctx context.Context, db *sql.DB) (*model.Event, error) {
	e := &model.Event{}
	err := scanEvent(db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE is_active = 1`), e)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting active event: %w", err)
	}
	return e, nil
}

// UpdateEventField sets one allow-listed field of an event.
func UpdateEventField(ctx context.Context, db *sql.DB, id int64, field string, value any) error {
	col, err := lookupField(eventFields, field)
	if err != nil {
		return err
	}
	v, err := col.convert(value)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `UPDATE events SET `+col.name+` = ? WHERE id = ?`, v, id)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	return requireAffected(result)
}

// DeleteEvent removes an event and all of its assignments.
func DeleteEvent(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM event_assignments WHERE event_id = ?`, id); err != nil {
		return fmt.Errorf("deleting event assignments: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing event deletion: %w", err)
	}
	return nil
}

// SetActiveEvent makes id the only active event, or clears the active event
// when id is nil. Clearing and setting happen in one write transaction. An id
// that matches no event still clears; the result reports whether an event is
// active afterwards.
func SetActiveEvent(ctx context.Context, db *sql.DB, id *int64) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE events SET is_active = 0 WHERE is_active = 1`); err != nil {
		return false, fmt.Errorf("clearing active event: %w", err)
	}

	activated := false
	if id != nil {
		result, err := tx.ExecContext(ctx, `UPDATE events SET is_active = 1 WHERE id = ?`, *id)
		if err != nil {
			return false, fmt.Errorf("activating event: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("activating event: %w", err)
		}
		activated = n > 0
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing active event: %w", err)
	}
	return activated, nil
}
