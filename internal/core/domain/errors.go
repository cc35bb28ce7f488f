package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("not authorized or no permissions")
	ErrValidation   = errors.New("validation failed")
	ErrUpdateFailed = errors.New("update failed")
	ErrDeleteFailed = errors.New("deletion failed")
	ErrInternal     = errors.New("internal server error")
)

// Error carries a human readable message while still matching one of the
// sentinel errors above through errors.Is.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NotFound is the error returned by singular lookups on an empty result set.
func NotFound(kind Kind) error {
	return Errorf(ErrNotFound, "No %s found.", kind)
}

// Unauthorized is the generic denial. It never says which rule failed.
func Unauthorized() error {
	return Errorf(ErrUnauthorized, "Not authorized or no permissions.")
}
