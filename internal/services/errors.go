package services

import (
	"fmt"
	"strings"
)

// ValidationError is a pre-network rejection: the input is malformed or
// incomplete and the caller can fix it immediately. It must never reach the
// backend store.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// GateNotSatisfiedError rejects a transition whose required evidence set is
// incomplete. Missing always enumerates exactly which evidence is absent so
// the caller can resume where it left off.
type GateNotSatisfiedError struct {
	Entity  string   `json:"entity"`
	Missing []string `json:"missing"`
}

func (e *GateNotSatisfiedError) Error() string {
	return fmt.Sprintf("%s gate not satisfied, missing: %s", e.Entity, strings.Join(e.Missing, ", "))
}

// InvalidStateError rejects a transition the current status does not permit.
type InvalidStateError struct {
	Entity string `json:"entity"`
	Status string `json:"status"`
	Action string `json:"action"`
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s in status %q", e.Action, e.Entity, e.Status)
}

// PermissionDeniedError rejects an operation the caller's role does not
// allow, e.g. a driver deleting a movement.
type PermissionDeniedError struct {
	Action string `json:"action"`
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("not allowed to %s", e.Action)
}

type NotFoundError struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// TransportError wraps a network or storage failure. Always retryable by
// re-invoking the same operation with the same inputs: object uploads are
// idempotent and gate checks evaluate against current state.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
