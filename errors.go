package sitegate

import (
	"errors"
	"fmt"

	"github.com/strukta/sitegate/identity"
	"github.com/strukta/sitegate/scope"
)

var (
	// ErrInvalidCredential marks a missing or malformed credential. Surface
	// to the caller as "unauthenticated".
	ErrInvalidCredential = identity.ErrInvalidCredential
	// ErrUnknownSubject marks a credential whose subject has no identity
	// record. Surface as "unauthenticated".
	ErrUnknownSubject = identity.ErrUnknownSubject
	// ErrProjectNotFound marks a missing project. Surface as "not found",
	// never as "forbidden": a denial would confirm the resource exists.
	ErrProjectNotFound = scope.ErrNotFound
	// ErrEngineNotReady is returned by a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrSessionKeyEmpty is returned for a blank session key.
	ErrSessionKeyEmpty = errors.New("session key empty")
)

// PolicyEvaluationError wraps a configuration bug detected mid-evaluation,
// such as an unregistered role or resource type. It must propagate to the
// caller: converting it to a deny would hide the misconfiguration.
type PolicyEvaluationError struct {
	Op  string
	Err error
}

func (e *PolicyEvaluationError) Error() string {
	return fmt.Sprintf("policy evaluation failed in %s: %v", e.Op, e.Err)
}

func (e *PolicyEvaluationError) Unwrap() error {
	return e.Err
}
