package ragErrors

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrProvider          = errors.New("provider error")
	ErrNotFound          = errors.New("not found")
	ErrConsistencyGap    = errors.New("relational store and vector index are out of sync")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrMetricMismatch    = errors.New("distance metric mismatch")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrEmptyDocument     = errors.New("document produced no text")
	ErrAlreadyExists     = errors.New("already exists")
)

// ProviderError wraps a failure from an external model provider (embedding or llm).
// Retryable is a hint for the caller; nothing in this module retries on its own.
type ProviderError struct {
	Provider  string
	Op        string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrProvider, e.Err}
}

func NewProviderError(provider, op string, retryable bool, err error) error {
	return &ProviderError{Provider: provider, Op: op, Retryable: retryable, Err: err}
}

// ConsistencyGapError means the document rows are committed but its vectors
// are not searchable yet. The entry ids are recorded in the outbox for the reconciler.
type ConsistencyGapError struct {
	DocumentID string
	Collection string
	EntryIDs   []string
	Err        error
}

func (e *ConsistencyGapError) Error() string {
	return fmt.Sprintf("document %s committed but %d vectors in %q are unpublished: %v",
		e.DocumentID, len(e.EntryIDs), e.Collection, e.Err)
}

func (e *ConsistencyGapError) Unwrap() []error {
	return []error{ErrConsistencyGap, e.Err}
}

// IsRetryable reports whether err carries a retryable provider failure.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

func NotFound(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
}

func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func AlreadyExists(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, ErrAlreadyExists)
}
