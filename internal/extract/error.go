package extract

import (
	"errors"
	"fmt"
)

// Kind classifies why an extraction failed.
type Kind string

const (
	KindCorruptFile   Kind = "corrupt_file"
	KindUnsupported   Kind = "unsupported"
	KindUnknownFormat Kind = "unknown_format"
	KindTooLarge      Kind = "too_large"
)

// Error is the uniform failure returned by Dispatch and the extractors.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("extract: %s: %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("extract: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

func corruptf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindCorruptFile, cause: fmt.Errorf(format, args...)}
}

func unsupportedf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnsupported, cause: fmt.Errorf(format, args...)}
}

// KindOf returns the extraction failure kind carried by err, or "" when err
// is not an extraction error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
