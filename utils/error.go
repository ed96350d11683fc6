package utils

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInsufficientStock ErrorKind = "InsufficientStock"
	KindInvalidTransition ErrorKind = "InvalidTransition"
	KindValidation        ErrorKind = "ValidationError"
	KindNotFound          ErrorKind = "NotFound"
)

// LedgerError is a business-rule failure. Its message is meant to be shown to
// the end user as is.
type LedgerError struct {
	Kind    ErrorKind
	Message string
}

func (e *LedgerError) Error() string {
	return e.Message
}

// Is matches any LedgerError of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of the message.
func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInsufficientStock = &LedgerError{Kind: KindInsufficientStock, Message: "insufficient stock"}
	ErrInvalidTransition = &LedgerError{Kind: KindInvalidTransition, Message: "invalid transition"}
	ErrValidation        = &LedgerError{Kind: KindValidation, Message: "validation error"}
	ErrNotFound          = &LedgerError{Kind: KindNotFound, Message: "not found"}
)

func InsufficientStock(format string, args ...any) error {
	return &LedgerError{Kind: KindInsufficientStock, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(format string, args ...any) error {
	return &LedgerError{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func ValidationError(format string, args ...any) error {
	return &LedgerError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &LedgerError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of a ledger error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return "", false
}

func IsLedgerError(err error) bool {
	_, ok := KindOf(err)
	return ok
}
