// Package ragErrors defines the error kinds surfaced by the retrieval engine.
// Every error returned across a package boundary wraps exactly one kind, so
// callers can branch with errors.Is(err, ragErrors.ErrStorageUnavailable).
package ragErrors

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrExtraction         = errors.New("no text could be extracted")
	ErrEmbeddingService   = errors.New("embedding service failed")
	ErrCompletionService  = errors.New("completion service failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageWrite       = errors.New("storage write failed")
	ErrIngestion          = errors.New("ingestion failed")
)

// Error carries the kind, the operation that failed and the underlying cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func New(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Newf(kind error, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the first known kind found in err's chain, or nil.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrInvalidInput,
		ErrExtraction,
		ErrIngestion,
		ErrEmbeddingService,
		ErrCompletionService,
		ErrStorageUnavailable,
		ErrStorageWrite,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
