package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an AppError so transport layers can map it to a status.
type ErrorKind string

const (
	// KindConfig marks structurally invalid configuration (rule tables, config files).
	KindConfig ErrorKind = "config"
	// KindInput marks a caller-supplied value that cannot be processed.
	KindInput ErrorKind = "input"
	// KindNotFound marks a missing record.
	KindNotFound ErrorKind = "not_found"
	// KindStore marks a persistence failure.
	KindStore ErrorKind = "store"
)

// AppError wraps an operation, human-facing message, and underlying error.
type AppError struct {
	Kind ErrorKind
	Op   string
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError of the given kind.
func NewAppError(kind ErrorKind, op, msg string, err error) error {
	return &AppError{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
