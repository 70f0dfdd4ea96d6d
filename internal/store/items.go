package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/inventur/internal/model"
)

// itemSelect and itemFrom compute availability on every read: stock minus the
// sum reserved by assignments of the active event. Nothing is written back.
const itemSelect = `SELECT i.id, i.group_name, i.name_id, i.location, i.quantity, i.info, i.usage,
        i.image IS NOT NULL, i.created_at, i.updated_at,
        i.quantity - COALESCE(r.reserved, 0) AS available`

const itemFrom = `
 FROM inventory i
 LEFT JOIN (
     SELECT ea.inventory_id, SUM(ea.quantity) AS reserved
     FROM event_assignments ea
     JOIN events e ON e.id = ea.event_id
     WHERE e.is_active = 1
     GROUP BY ea.inventory_id
 ) r ON r.inventory_id = i.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner, item *model.Item, extra ...any) error {
	dest := []any{&item.ID, &item.Group, &item.NameID, &item.Location, &item.Quantity, &item.Info, &item.Usage,
		&item.HasImage, &item.CreatedAt, &item.UpdatedAt, &item.Available}
	return s.Scan(append(dest, extra...)...)
}

// ListInventory returns every item with its currently available quantity.
func ListInventory(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, itemSelect+itemFrom+` ORDER BY i.group_name, i.name_id`)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := scanItem(rows, &item); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	return getItem(ctx, db, id)
}

func getItem(ctx context.Context, q queryer, id int64) (*model.Item, error) {
	item := &model.Item{}
	err := scanItem(q.QueryRowContext(ctx, itemSelect+itemFrom+` WHERE i.id = ?`, id), item)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// CreateItem creates an item with placeholder fields. An empty nameID gets the
// first free "New Item N" label; an empty group gets the first existing group.
func CreateItem(ctx context.Context, db *sql.DB, nameID, group string) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	nameID = strings.TrimSpace(nameID)
	if nameID == "" {
		nameID, err = nextFreeName(ctx, tx, "inventory", "name_id", itemNamePrefix)
		if err != nil {
			return nil, err
		}
	}

	group = strings.TrimSpace(group)
	if group == "" {
		group, err = firstGroupName(ctx, tx)
		if err != nil {
			return nil, err
		}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO inventory (group_name, name_id, location, quantity, info, usage)
		 VALUES (?, ?, '-', 1, '-', '-')`,
		group, nameID,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("item %q: %w", nameID, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	item, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}
	return item, nil
}

// UpdateItemField sets one allow-listed field of an item.
func UpdateItemField(ctx context.Context, db *sql.DB, id int64, field string, value any) error {
	col, err := lookupField(itemFields, field)
	if err != nil {
		return err
	}
	v, err := col.convert(value)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE inventory SET `+col.name+` = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		v, id,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("item %s %v: %w", col.name, v, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return requireAffected(result)
}

// DeleteItem removes an item with its assignments and manual rows. It returns
// the paths of the manual files, which the caller removes after the commit.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) ([]string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	manuals, err := listManuals(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM event_assignments WHERE inventory_id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting item assignments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_pdfs WHERE inventory_id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting item manuals: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM inventory WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("deleting item: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item deletion: %w", err)
	}

	paths := make([]string, 0, len(manuals))
	for _, m := range manuals {
		paths = append(paths, m.Path)
	}
	return paths, nil
}

// SetItemImage stores an item's photo.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE inventory SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return requireAffected(result)
}

// GetItemImage returns an item's photo and MIME type. Data is nil when there is none.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM inventory WHERE id = ?`, id,
	).Scan(&image, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}
