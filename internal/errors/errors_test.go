package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{name: "message only", err: &AppError{Code: ErrCodeNotFound, Message: "status not found"}, want: "status not found"},
		{
			name: "with cause",
			err:  &AppError{Code: ErrCodeInternal, Message: "list runs", Cause: errors.New("boom")},
			want: "list runs: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(cause, ErrCodeInternal, "wrapped")
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "noop"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestConstructors(t *testing.T) {
	if !IsNotFound(NotFoundf("status %q not found", "abc")) {
		t.Error("NotFoundf should produce a not_found error")
	}
	if !IsConflict(Conflict("run in progress")) {
		t.Error("Conflict should produce a conflict error")
	}
	v := ValidationField("limit", "must be a positive integer")
	if !IsValidation(v) || GetField(v) != "limit" {
		t.Errorf("ValidationField = %+v", v)
	}
}

func TestGetCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", &AppError{Code: ErrCodeTimeout, Message: "slow"})
	if GetCode(err) != ErrCodeTimeout || !IsTimeout(err) {
		t.Errorf("GetCode(wrapped) = %q", GetCode(err))
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("GetCode(plain) should be empty")
	}
	if GetField(errors.New("plain")) != "" {
		t.Error("GetField(plain) should be empty")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: NotFoundf("x"), want: http.StatusNotFound},
		{err: ValidationField("limit", "bad"), want: http.StatusBadRequest},
		{err: Conflict("busy"), want: http.StatusConflict},
		{err: &AppError{Code: ErrCodeTimeout}, want: http.StatusGatewayTimeout},
		{err: &AppError{Code: ErrCodeUnavailable}, want: http.StatusServiceUnavailable},
		{err: &AppError{Code: ErrCodeInternal}, want: http.StatusInternalServerError},
		{err: errors.New("plain"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
