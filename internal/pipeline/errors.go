package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. The HTTP layer maps each kind to one
// status code and one client-safe message.
type Kind string

const (
	KindMissingToken           Kind = "MissingToken"
	KindInvalidToken           Kind = "InvalidToken"
	KindInvalidRequest         Kind = "InvalidRequest"
	KindNoDelegatedWallet      Kind = "NoDelegatedWallet"
	KindPoolLookupFailed       Kind = "PoolLookupFailed"
	KindTransactionBuildFailed Kind = "TransactionBuildFailed"
	KindRemoteSigningFailed    Kind = "RemoteSigningFailed"
	KindBroadcastFailed        Kind = "BroadcastFailed"
	KindTimeout                Kind = "Timeout"
	KindInternal               Kind = "Internal"
)

// Error is a failure at one pipeline stage. Err is for logs only.
type Error struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err,
// &Error{Kind: KindInvalidToken}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of err, KindInternal for untagged errors.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// classify tags err with fallback unless it already carries a kind. A stage
// deadline wins over the fallback.
func classify(stage Stage, fallback Kind, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		if pe.Stage == "" {
			pe.Stage = stage
		}
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Stage: stage, Err: err}
	}
	return &Error{Kind: fallback, Stage: stage, Err: err}
}
