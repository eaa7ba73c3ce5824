package database

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/claims/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the store translates.
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// storeError translates driver errors into core errors. Unique violations
// become core.ErrConflict, missing rows core.ErrNotFound and check violations
// a *core.ValidationError naming the constraint; anything else is wrapped in
// a *core.StoreError.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.Detail, core.ErrConflict)
		case pgCheckViolation:
			return &core.ValidationError{Field: pgErr.ConstraintName, Message: "violates a table constraint"}
		}
	}

	return &core.StoreError{Op: op, Err: err}
}
