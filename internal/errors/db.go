package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the column from a unique violation detail: "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// MapDBError maps database errors to AppError instances:
//   - context deadline / cancel → Timeout / Canceled
//   - pgx.ErrNoRows → NotFound
//   - unique violation → Conflict
//   - check / not-null violation → Validation
//   - statement timeout → Timeout
//   - serialization failure / deadlock → Conflict
//   - undefined table → Unavailable (migrations not applied)
//
// Errors that are not recognised database errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "Request was canceled.", Cause: err}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "This value already exists.",
			Field:   fieldFromPgError(pgErr),
			Cause:   pgErr,
		}
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		msg := "Invalid data. Please check your input."
		if pgErr.ColumnName != "" {
			msg = "This field has an invalid value."
		}
		return &AppError{Code: ErrCodeValidation, Message: msg, Field: pgErr.ColumnName, Cause: pgErr}
	case pgerrcode.QueryCanceled:
		return &AppError{Code: ErrCodeTimeout, Message: "Database statement timed out.", Cause: pgErr}
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return &AppError{Code: ErrCodeConflict, Message: "Concurrent update detected. Please retry.", Cause: pgErr}
	case pgerrcode.UndefinedTable:
		return &AppError{
			Code:    ErrCodeUnavailable,
			Message: "Table " + tableLabel(pgErr) + " is missing. Run migrations first.",
			Cause:   pgErr,
		}
	default:
		return &AppError{Code: ErrCodeInternal, Message: "A database error occurred. Please try again.", Cause: pgErr}
	}
}

func fieldFromPgError(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	// "freshness_status_pkey" → "unique_hash" for our keyed tables.
	if strings.HasSuffix(pgErr.ConstraintName, "_pkey") {
		switch strings.TrimSuffix(pgErr.ConstraintName, "_pkey") {
		case "evidence", "freshness_status":
			return "unique_hash"
		case "freshness_runs":
			return "id"
		}
	}
	return ""
}

func tableLabel(pgErr *pgconn.PgError) string {
	if pgErr.TableName != "" {
		return pgErr.TableName
	}
	// Message looks like: relation "freshness_status" does not exist
	if start := strings.IndexByte(pgErr.Message, '"'); start >= 0 {
		if end := strings.IndexByte(pgErr.Message[start+1:], '"'); end >= 0 {
			return pgErr.Message[start+1 : start+1+end]
		}
	}
	return "(unknown)"
}
