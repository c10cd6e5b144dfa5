package entity

import "time"

// ApprovalLedgerEntry is the per-step approval record for one request. The
// ledger rows are the request's frozen snapshot of its workflow: sequence,
// role and fixed-approver override are copied from the template at submission
// so later template edits never renumber an in-flight request.
//
// Exactly one entry exists per (request, step sequence), and a decision is
// recorded at most once.
type ApprovalLedgerEntry struct {
	ID           int64  `json:"id"`
	RequestID    int64  `json:"request_id"`
	StepSequence int    `json:"step_sequence"`
	RequiredRole string `json:"required_role"`

	// FixedApproverID is the template's fixed-approver override, if any
	FixedApproverID *int64 `json:"fixed_approver_id,omitempty"`
	IsRequired      bool   `json:"is_required"`

	// AssignedApproverID is the user who decided (or was resolved for) the step
	AssignedApproverID *int64 `json:"assigned_approver_id,omitempty"`

	Decision  string     `json:"decision"`
	Comments  string     `json:"comments,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsDecided reports whether the entry has recorded its one decision
func (e *ApprovalLedgerEntry) IsDecided() bool {
	return e.Decision != DecisionPending
}
