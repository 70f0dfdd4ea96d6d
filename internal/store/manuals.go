package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/inventur/internal/model"
)

// CreateManual records a stored PDF for an item.
func CreateManual(ctx context.Context, db *sql.DB, itemID int64, filename, path string) (*model.Manual, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO inventory_pdfs (inventory_id, filename, filepath) VALUES (?, ?, ?)`,
		itemID, filename, path,
	)
	if err != nil {
		return nil, fmt.Errorf("creating manual: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting manual id: %w", err)
	}
	return &model.Manual{ID: id, ItemID: itemID, Filename: filename, Path: path}, nil
}

// GetManual returns a manual by ID, or nil if it does not exist.
func GetManual(ctx context.Context, db *sql.DB, id int64) (*model.Manual, error) {
	m := &model.Manual{}
	err := db.QueryRowContext(ctx,
		`SELECT id, inventory_id, filename, filepath FROM inventory_pdfs WHERE id = ?`, id,
	).Scan(&m.ID, &m.ItemID, &m.Filename, &m.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting manual: %w", err)
	}
	return m, nil
}

// ListManuals returns the manuals attached to an item.
func ListManuals(ctx context.Context, db *sql.DB, itemID int64) ([]model.Manual, error) {
	return listManuals(ctx, db, itemID)
}

func listManuals(ctx context.Context, q queryer, itemID int64) ([]model.Manual, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, inventory_id, filename, filepath FROM inventory_pdfs
		 WHERE inventory_id = ? ORDER BY id`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing manuals: %w", err)
	}
	defer rows.Close()

	var manuals []model.Manual
	for rows.Next() {
		var m model.Manual
		if err := rows.Scan(&m.ID, &m.ItemID, &m.Filename, &m.Path); err != nil {
			return nil, fmt.Errorf("scanning manual: %w", err)
		}
		manuals = append(manuals, m)
	}
	return manuals, rows.Err()
}

// DeleteManual removes a manual row and returns it so the caller can remove the file.
func DeleteManual(ctx context.Context, db *sql.DB, id int64) (*model.Manual, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	m := &model.Manual{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, inventory_id, filename, filepath FROM inventory_pdfs WHERE id = ?`, id,
	).Scan(&m.ID, &m.ItemID, &m.Filename, &m.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting manual: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_pdfs WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting manual: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing manual deletion: %w", err)
	}
	return m, nil
}
