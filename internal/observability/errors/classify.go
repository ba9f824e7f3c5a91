// Package errors normalises errors into low-cardinality metric tags.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"
)

// Well-known classes returned ahead of type-based names.
const (
	ClassTimeout  = "timeout"
	ClassCanceled = "canceled"
)

// Classify returns a normalized error type name suitable for tagging metrics/logs.
// Timeouts and cancellations map to fixed classes; other errors are unwrapped to the
// innermost concrete type and converted to snake_case-ish.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	if goerrors.Is(err, context.Canceled) {
		return ClassCanceled
	}
	if goerrors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return ClassTimeout
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return goerrors.As(err, &te) && te.Timeout()
}
