package aggregates

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	if MapError("op", nil) != nil {
		t.Fatalf("nil should map to nil")
	}
	unique := &pgconn.PgError{Code: "23505"}
	if err := MapError("lead.create", unique); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	sqliteUnique := errors.New("UNIQUE constraint failed: lead.phone")
	if !IsUniqueViolation(sqliteUnique) {
		t.Fatalf("expected sqlite unique violation to be recognized")
	}
	if err := MapError("x", &pgconn.PgError{Code: "40P01"}); !errors.Is(err, ErrRetryable) {
		t.Fatalf("expected retryable, got %v", err)
	}
	if err := MapError("x", context.DeadlineExceeded); !errors.Is(err, ErrRetryable) {
		t.Fatalf("expected retryable for deadline, got %v", err)
	}
	plain := errors.New("boom")
	if err := MapError("x", plain); !errors.Is(err, plain) || errors.Is(err, ErrConflict) {
		t.Fatalf("unexpected mapping %v", err)
	}
}
