package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork          = errors.New("network failure")
	ErrTimeout          = errors.New("request timed out")
	ErrParse            = errors.New("parse failure")
	ErrNotFound         = errors.New("not found")
	ErrEmptyKeyword     = errors.New("search keyword is empty")
	ErrInvalidInterval  = errors.New("invalid refresh interval")
	ErrInsufficientData = errors.New("insufficient price data")
)

// FetchError ties a failure kind (ErrNetwork, ErrTimeout, ErrParse, ...) to
// the source that produced it. errors.Is matches both the kind and the cause.
type FetchError struct {
	Source string
	Kind   error
	Err    error
}

func NewFetchError(source string, kind, err error) *FetchError {
	return &FetchError{
		Source: source,
		Kind:   kind,
		Err:    err,
	}
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Source, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
