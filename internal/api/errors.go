package api

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure. The gateway never retries; callers
// decide based on the kind whether a retry can help.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidRequest
	KindUnauthorized
	KindTimeout
	KindNoConnection
	KindServer
	KindDecoding
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindTimeout:
		return "timeout"
	case KindNoConnection:
		return "no_connection"
	case KindServer:
		return "server_error"
	case KindDecoding:
		return "decoding_error"
	default:
		return "unknown"
	}
}

// Error is a classified gateway failure.
type Error struct {
	Kind       Kind
	StatusCode int // set for KindServer
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		return fmt.Sprintf("gateway: server error (%d)", e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("gateway: %s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("gateway: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether a retry could plausibly succeed. Client bugs,
// bad credentials, and schema mismatches cannot be fixed by retrying.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindNoConnection, KindServer:
		return true
	default:
		return false
	}
}

// KindOf extracts the classification from an error chain, KindUnknown when
// the error did not come from the gateway.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
