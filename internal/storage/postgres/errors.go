package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/events-api/internal/domain/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE class 23 covers every integrity constraint violation.
const integrityViolationClass = "23"

const (
	untranslatableCharacter  = "22P05"
	characterNotInRepertoire = "22021"
)

// translateError maps driver errors onto the events error taxonomy. The
// original error stays in the chain so logs keep the constraint name.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, events.ErrNotFound)
	}
	if isIntegrityViolation(err) {
		return fmt.Errorf("%s: %w: %w", op, events.ErrConflict, err)
	}
	if isUnstorableText(err) {
		return fmt.Errorf("%s: %w: %w", op, events.ErrInvalidInput, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return len(pgErr.Code) == 5 && pgErr.Code[:2] == integrityViolationClass
}

// isUnstorableText reports text jsonb refuses: NUL escapes and bytes that are
// not valid in the database encoding.
func isUnstorableText(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == untranslatableCharacter || pgErr.Code == characterNotInRepertoire
}

// isTransient reports whether a failed read can be retried as-is.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, pgx.ErrNoRows) || isIntegrityViolation(err) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "08":
			return true
		case pgErr.Code == "40001", pgErr.Code == "40P01", pgErr.Code == "57P03":
			return true
		}
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}
