package gateway

import (
	"errors"
	"fmt"
)

// FailureKind separates "backend unreachable" from "backend answered with an error".
type FailureKind int

const (
	// TransportFailure means no usable HTTP response arrived: connection
	// refused, DNS failure, timeout, or a body that could not be read.
	TransportFailure FailureKind = iota + 1
	// ApplicationFailure means the backend answered but the answer was
	// unusable: non-2xx status, malformed JSON, or success=false.
	ApplicationFailure
)

func (k FailureKind) String() string {
	switch k {
	case TransportFailure:
		return "transport"
	case ApplicationFailure:
		return "application"
	default:
		return "unknown"
	}
}

// CallError describes a failed live call.
type CallError struct {
	Kind   FailureKind
	Op     string
	Status int
	Err    error
}

func (e *CallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s failure (status=%d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s failure: %v", e.Op, e.Kind, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Classify returns the failure kind of err. Errors that are not a
// *CallError are treated as transport failures.
func Classify(err error) FailureKind {
	if err == nil {
		return 0
	}
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return TransportFailure
}

func transportError(op string, err error) error {
	return &CallError{Kind: TransportFailure, Op: op, Err: err}
}

func applicationError(op string, status int, err error) error {
	return &CallError{Kind: ApplicationFailure, Op: op, Status: status, Err: err}
}
