// Package bonerr defines the typed error kinds produced by Bonnie's core
// components, so callers can distinguish failure categories with
// errors.As instead of string matching.
package bonerr

import (
	"errors"
	"fmt"
)

// Kind identifies a category of core failure.
type Kind string

const (
	KindConfigParse         Kind = "CONFIG_PARSE"
	KindSchemaInvariant     Kind = "SCHEMA_INVARIANT"
	KindVersionIncompatible Kind = "VERSION_INCOMPATIBLE"
	KindDirectiveParse      Kind = "DIRECTIVE_PARSE"
	KindEnvFile             Kind = "ENV_FILE"
	KindUnknownCommand      Kind = "UNKNOWN_COMMAND"
	KindUnknownSubcommand   Kind = "UNKNOWN_SUBCOMMAND"
	KindTooFewArguments     Kind = "TOO_FEW_ARGUMENTS"
	KindInterpolationMiss   Kind = "INTERPOLATION_MISS"
	KindSpawn               Kind = "SPAWN_ERROR"
	KindWait                Kind = "WAIT_ERROR"
)

// Error is the structured error type returned by every core component.
// It carries a Kind for programmatic dispatch, a human message, and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping an existing cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Wrapf creates an Error wrapping an existing cause with a formatted
// message.
func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
