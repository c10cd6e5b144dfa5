package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")
)

// Engine failure taxonomy. Each failure is a distinct sentinel so callers can
// branch with errors.Is and the transport layer can map them to stable codes.
var (
	// ErrNoWorkflowConfigured is returned when no active template exists
	// for a (department, request type) pair
	ErrNoWorkflowConfigured = errors.New("no workflow configured")

	// ErrAmbiguousConfiguration is returned when more than one active template
	// matches; the catalog uniqueness constraint has been violated
	ErrAmbiguousConfiguration = errors.New("ambiguous workflow configuration")

	// ErrMalformedWorkflow is returned when a template's step sequence is not
	// dense, strictly increasing and starting at 1
	ErrMalformedWorkflow = errors.New("malformed workflow template")

	// ErrRequestNotFound is returned when the request does not exist
	ErrRequestNotFound = errors.New("request not found")

	// ErrRequestNotPending is returned when a decision or cancel is attempted
	// on a request that is not in a decidable state
	ErrRequestNotPending = errors.New("request is not pending")

	// ErrNoCurrentStep is returned when the request's current step pointer has
	// no matching ledger entry; indicates corrupted data, not a user error
	ErrNoCurrentStep = errors.New("no ledger entry at current step")

	// ErrNotAuthorized is returned when the acting user may not act at the
	// current step
	ErrNotAuthorized = errors.New("not authorized")

	// ErrAlreadyDecided is returned when the current step's ledger entry has
	// already been decided; safe for the caller to treat as already handled
	ErrAlreadyDecided = errors.New("step already decided")

	// ErrApproverUnavailable is returned when a step's fixed approver no
	// longer exists or is inactive
	ErrApproverUnavailable = errors.New("approver unavailable")
)
