package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_Codes(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
		{name: "no rows", err: fmt.Errorf("get status: %w", pgx.ErrNoRows), wantCode: ErrCodeNotFound},
		{
			name:      "unique violation with column",
			err:       &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "unique_hash"},
			wantCode:  ErrCodeConflict,
			wantField: "unique_hash",
		},
		{
			name:      "unique violation with detail",
			err:       &pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: `Key (unique_hash)=(abc) already exists.`},
			wantCode:  ErrCodeConflict,
			wantField: "unique_hash",
		},
		{
			name:      "unique violation on primary key",
			err:       &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "freshness_runs_pkey"},
			wantCode:  ErrCodeConflict,
			wantField: "id",
		},
		{
			name:      "check violation",
			err:       &pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "last_http_status"},
			wantCode:  ErrCodeValidation,
			wantField: "last_http_status",
		},
		{name: "not null violation", err: &pgconn.PgError{Code: pgerrcode.NotNullViolation}, wantCode: ErrCodeValidation},
		{name: "statement timeout", err: &pgconn.PgError{Code: pgerrcode.QueryCanceled}, wantCode: ErrCodeTimeout},
		{name: "deadlock", err: &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, wantCode: ErrCodeConflict},
		{name: "serialization", err: &pgconn.PgError{Code: pgerrcode.SerializationFailure}, wantCode: ErrCodeConflict},
		{name: "undefined table", err: &pgconn.PgError{Code: pgerrcode.UndefinedTable}, wantCode: ErrCodeUnavailable},
		{name: "unknown pg error", err: &pgconn.PgError{Code: pgerrcode.DiskFull}, wantCode: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if got := GetCode(err); got != tt.wantCode {
				t.Fatalf("MapDBError() code = %q, want %q", got, tt.wantCode)
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("MapDBError() field = %q, want %q", got, tt.wantField)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("mapped error should wrap the original")
			}
		})
	}
}

func TestMapDBError_UndefinedTableNamesTable(t *testing.T) {
	err := MapDBError(&pgconn.PgError{
		Code:    pgerrcode.UndefinedTable,
		Message: `relation "freshness_status" does not exist`,
	})
	if !strings.Contains(err.Error(), "freshness_status") {
		t.Errorf("expected table name in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "migrations") {
		t.Errorf("expected migration hint in message, got %q", err.Error())
	}
}

func TestMapDBError_StandardError(t *testing.T) {
	orig := errors.New("plain")
	if err := MapDBError(orig); err != orig {
		t.Errorf("MapDBError should return unknown errors unchanged, got %v", err)
	}
}
