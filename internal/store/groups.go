package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/inventur/internal/model"
)

// ListGroups returns all groups in creation order.
func ListGroups(ctx context.Context, db *sql.DB) ([]model.Group, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM inventory_groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// CreateGroup adds a group. Names are unique.
func CreateGroup(ctx context.Context, db *sql.DB, name string) (*model.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name must not be empty", ErrInvalidValue)
	}

	result, err := db.ExecContext(ctx, `INSERT INTO inventory_groups (name) VALUES (?)`, name)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("group %q: %w", name, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting group id: %w", err)
	}
	return &model.Group{ID: id, Name: name}, nil
}

// DeleteGroup removes a group unless it is the only one left.
// Items keep their group label.
func DeleteGroup(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory_groups`).Scan(&count); err != nil {
		return fmt.Errorf("counting groups: %w", err)
	}
	if count <= 1 {
		return ErrLastGroup
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM inventory_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing group deletion: %w", err)
	}
	return nil
}

// firstGroupName returns the oldest group, falling back to the default name.
func firstGroupName(ctx context.Context, q queryer) (string, error) {
	var name string
	err := q.QueryRowContext(ctx, `SELECT name FROM inventory_groups ORDER BY id LIMIT 1`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultGroupName, nil
	}
	if err != nil {
		return "", fmt.Errorf("getting default group: %w", err)
	}
	return name, nil
}
