package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrConflict indicates a unique constraint or concurrency conflict.
	ErrConflict = errors.New("aggregate conflict")
	// ErrRetryable indicates a transient failure.
	ErrRetryable = errors.New("aggregate retryable")
)

// IsUniqueViolation recognizes unique-constraint failures from Postgres and
// SQLite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key")
}

// MapError tags infrastructure failures with ErrConflict or ErrRetryable so
// services can decide whether to retry.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrConflict), errors.Is(err, ErrRetryable):
		return err
	case IsUniqueViolation(err):
		return errors.Join(ErrConflict, wrapOp(op, err))
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrRetryable, wrapOp(op, err))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03":
			return errors.Join(ErrRetryable, wrapOp(op, err)) // serialization/deadlock/lock_not_available
		}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "deadlock") {
		return errors.Join(ErrRetryable, wrapOp(op, err))
	}
	return wrapOp(op, err)
}

type opError struct {
	op  string
	err error
}

func (e *opError) Error() string { return e.op + ": " + e.err.Error() }
func (e *opError) Unwrap() error { return e.err }

func wrapOp(op string, err error) error {
	op = strings.TrimSpace(op)
	if op == "" {
		return err
	}
	return &opError{op: op, err: err}
}
