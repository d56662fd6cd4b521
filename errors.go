package quizbank

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable means the extraction service could not be reached or timed out.
	ErrUpstreamUnavailable = errors.New("extraction service unavailable")
	// ErrUpstreamRejected means the extraction service answered with a non-success status.
	ErrUpstreamRejected = errors.New("extraction service rejected the request")
	// ErrMalformedExtraction means the response could not be repaired into a JSON array.
	ErrMalformedExtraction = errors.New("malformed extraction output")
	// ErrEmptyExtraction means the response parsed but held no questions.
	ErrEmptyExtraction = errors.New("extraction returned no questions")
	// ErrBankStore wraps load and save failures of the bank store.
	ErrBankStore = errors.New("bank store failure")
)

// ExtractionError carries the failure class and the diagnostic log of one extraction
type ExtractionError struct {
	Kind error
	Log  string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *ExtractionError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newExtractionError(kind error, log string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, Log: log, Err: err}
}
