package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestSubmitted Type = "request.submitted"
	TypeApprovalPending  Type = "approval.pending"
	TypeStepApproved     Type = "step.approved"
	TypeRequestApproved  Type = "request.approved"
	TypeRequestRejected  Type = "request.rejected"
	TypeRequestCancelled Type = "request.cancelled"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestSubmitted,
		TypeApprovalPending,
		TypeStepApproved,
		TypeRequestApproved,
		TypeRequestRejected,
		TypeRequestCancelled:
		return true
	default:
		return false
	}
}
