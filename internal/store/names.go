package store

import (
	"context"
	"fmt"
)

// Default label prefixes for rows created without an explicit name.
const (
	itemNamePrefix  = "New Item "
	eventNamePrefix = "New Event "
	userNamePrefix  = "User_"
)

// nextFreeName probes prefix+"1", prefix+"2", ... against the current rows and
// returns the first unused label. table and column are package constants, never
// caller input. Run it inside the transaction that inserts the row.
func nextFreeName(ctx context.Context, q queryer, table, column, prefix string) (string, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)`, table, column)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%d", prefix, i)
		var taken bool
		if err := q.QueryRowContext(ctx, query, candidate).Scan(&taken); err != nil {
			return "", fmt.Errorf("probing name %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
}
