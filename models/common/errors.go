package common

import (
	"errors"
	"fmt"
	"runtime"
)

type DetailedError interface {
	Detail() string
}

// Kind says which class of failure an Error represents. Callers
// use it to decide whether to retry and which status to report.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindProcessing
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindProcessing:
		return "processing"
	}
	return "unknown"
}

// Error is a custom error type that includes some additional fields
// to help us debug. See the Detail method.
//
// IDs is set on not-found errors that name more than one asset.
type Error struct {
	Err     error
	File    string
	IDs     []int64
	Kind    Kind
	Line    int
	Message string
}

func newError(kind Kind, message string, err error) *Error {
	_, file, line, _ := runtime.Caller(2)
	return &Error{
		Err:     err,
		File:    file,
		Kind:    kind,
		Line:    line,
		Message: message,
	}
}

// NewValidationError describes input that violates a policy bound.
// Validation errors are never worth retrying.
func NewValidationError(message string) *Error {
	return newError(KindValidation, message, nil)
}

func NewNotFoundError(message string, ids ...int64) *Error {
	e := newError(KindNotFound, message, nil)
	if len(ids) > 0 {
		e.IDs = ids
	}
	return e
}

// NewProcessingError wraps a transcoder, storage or store failure.
func NewProcessingError(message string, err error) *Error {
	return newError(KindProcessing, message, err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return e.Message
}

// This returns a detailed error message.
func (e *Error) Detail() string {
	underlyingError := ""
	if e.Err != nil {
		underlyingError = fmt.Sprintf("(Underlying error: %s)", e.Err.Error())
	}
	return fmt.Sprintf("%s: %s [%s:%d] %s",
		e.Kind, e.Message, e.File, e.Line, underlyingError)
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindUnknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
