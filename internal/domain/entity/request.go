package entity

import "time"

// Request is a submitted leave or mission request traversing an approval
// chain. WorkflowTemplateID is bound once at submission and never re-resolved;
// CurrentStepSequence points at the lowest still-pending ledger entry.
type Request struct {
	ID           int64  `json:"id"`
	RequesterID  int64  `json:"requester_id"`
	DepartmentID int64  `json:"department_id"`
	RequestType  string `json:"request_type"`
	Status       string `json:"status"`

	WorkflowTemplateID  *int64 `json:"workflow_template_id,omitempty"`
	CurrentStepSequence int    `json:"current_step_sequence"`

	// Leave payload
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Reason    string     `json:"reason,omitempty"`

	// Mission payload
	Destination string `json:"destination,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
	BudgetCents int64  `json:"budget_cents,omitempty"`

	// Opaque reference to a stored supporting document, never interpreted here
	DocumentRef string `json:"document_ref,omitempty"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	DecidedBy   *int64     `json:"decided_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the request has reached a final status
func (r *Request) IsTerminal() bool {
	switch r.Status {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}
