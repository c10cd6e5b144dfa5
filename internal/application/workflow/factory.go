package workflow

import (
	domainwf "github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/workflow"
)

// BuildRequestStateMachine creates a state machine configured for the request
// approval lifecycle. A non-final approval keeps the request PENDING (the
// engine advances the step pointer instead of changing state), so APPROVE is
// permitted from PENDING into both PENDING and APPROVED.
func BuildRequestStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StatePending).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	builder.Configure(domainwf.StatePending).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	// APPROVED, REJECTED and CANCELLED are terminal - no outgoing transitions

	return builder.Build(initialState)
}
