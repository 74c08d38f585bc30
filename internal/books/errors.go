package books

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying search failures.
var (
	ErrNetwork     = errors.New("books: network failure")
	ErrDecode      = errors.New("books: malformed response")
	ErrEmptyResult = errors.New("books: no results")
	ErrNotFound    = errors.New("books: volume not found")
)

// Error wraps an underlying failure with the operation and its classification.
type Error struct {
	Op     string // "search" or "volume"
	Query  string // query or volume id
	Kind   error  // one of the sentinels above
	Err    error
	Status int // HTTP status when the remote answered, else 0
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("books %s %q: status %d: %v", e.Op, e.Query, e.Status, e.Err)
	}
	return fmt.Sprintf("books %s %q: %v", e.Op, e.Query, e.Err)
}

// Unwrap exposes both the classification and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func wrapError(op, query string, kind error, status int, err error) error {
	return &Error{Op: op, Query: query, Kind: kind, Err: err, Status: status}
}

// Classify reports the sentinel matching err, or nil when err is nil or
// falls outside the taxonomy.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrEmptyResult, ErrNotFound, ErrDecode, ErrNetwork} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
