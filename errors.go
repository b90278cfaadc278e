package stash

import (
	"errors"
	"fmt"
)

// ErrMismatchedCurrency is returned when arithmetic is attempted between two
// amounts carrying different currency symbols. Callers are expected to have
// validated currency consistency before doing math on amounts.
var ErrMismatchedCurrency = errors.New("mismatched currency symbols")

// ErrorKind classifies journal-facing failures.
type ErrorKind int

const (
	// ParseErr marks text that could not be understood as journal syntax.
	ParseErr ErrorKind = iota
	// ValidationErr marks well-formed but semantically invalid input, such as
	// a duplicate envelope name or an entry with two blank postings.
	ValidationErr
	// ProcessingErr marks valid input for which a required value could not be
	// computed, such as a blank amount in a mixed-currency entry with no
	// native conversion.
	ProcessingErr
)

func (k ErrorKind) String() string {
	switch k {
	case ParseErr:
		return "parse"
	case ValidationErr:
		return "validation"
	case ProcessingErr:
		return "processing"
	}
	return "unknown"
}

// Error is the single error type for journal-facing failures. Message says
// what went wrong; Context, when present, carries the offending chunk of
// journal text.
type Error struct {
	Kind    ErrorKind
	Message string
	Context string
}

func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s error: %s\n\n%s", e.Kind, e.Message, e.Context)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func newParseError(message, context string) *Error {
	return &Error{Kind: ParseErr, Message: message, Context: context}
}

func newValidationError(message, context string) *Error {
	return &Error{Kind: ValidationErr, Message: message, Context: context}
}

func newProcessingError(message, context string) *Error {
	return &Error{Kind: ProcessingErr, Message: message, Context: context}
}

// IsKind reports whether err is a stash Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind == kind
	}
	return false
}
