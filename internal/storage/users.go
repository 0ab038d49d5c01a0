package storage

import (
	"context"
	"fmt"
)

// GetOrCreateUser upserts the lifter identified by login and returns their
// id. The importer is the only writer: the plan file names the user it
// belongs to, and re-imports refresh display_name and last_seen.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO users (login, display_name)
		 VALUES ($1, $2)
		 ON CONFLICT (login) DO UPDATE
		 SET last_seen = NOW(),
		     display_name = COALESCE(NULLIF($2, ''), users.display_name)
		 RETURNING id`,
		login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user %s: %w", login, err)
	}
	return id, nil
}
