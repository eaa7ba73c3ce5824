package database

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the claims table and its indexes if they do not exist.
// The statements are idempotent and run on every start when DB_MIGRATE is set.
func Migrate(ctx context.Context, db DBTX) error {
	// Without arguments pgx sends the script over the simple protocol,
	// which accepts several statements in one call.
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
