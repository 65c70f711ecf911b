// Package engine wires spectral, peaks, fingerprint, index, and matcher
// into spec.md §4's top-level Ingest/Recognize operations.
//
// Grounded on IAMAMZ-aalice-drone-detection-knn-backend/server's
// xerrors.New(err) wrapping style for surfacing lower-layer failures with
// stack context.
package engine

import (
	"fmt"

	"github.com/mdobak/go-xerrors"
)

// Kind is spec.md §7's top-level error kind.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindCorruptIndex Kind = "corrupt_index"
	KindIOError      Kind = "io_error"
)

// Error wraps a lower-layer failure with the engine-level Kind spec.md §7
// requires callers to be able to switch on, while preserving the original
// error (and its xerrors stack trace, if any) via Unwrap.
type Error struct {
	Kind Kind
	Op   string
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine: %s: %s: %v", e.Op, e.Kind, e.err)
}

func (e *Error) Unwrap() error { return e.err }

func wrapErr(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, err: xerrors.New(err)}
}
