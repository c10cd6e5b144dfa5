package entity

import (
	"fmt"
	"time"
)

// WorkflowTemplate is the reusable, ordered approval chain configured for a
// (department, request type) pair. Templates are read-only from the engine's
// perspective; requests bind a frozen copy of the steps at submission.
type WorkflowTemplate struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	DepartmentID int64             `json:"department_id"`
	RequestType  string            `json:"request_type"`
	IsActive     bool              `json:"is_active"`
	Steps        []WorkflowStepDef `json:"steps"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// WorkflowStepDef is one step in a template's approval chain. A step either
// requires a role (resolved against the request's department) or names a fixed
// approver that bypasses role resolution.
type WorkflowStepDef struct {
	ID           int64  `json:"id"`
	TemplateID   int64  `json:"template_id"`
	Sequence     int    `json:"sequence"`
	RequiredRole string `json:"required_role"`
	// ApproverID, when set, pins the step to a specific user instead of a role
	ApproverID *int64 `json:"approver_id,omitempty"`
	IsRequired bool   `json:"is_required"`
}

// ValidateSteps checks that the template's steps form a dense, strictly
// increasing sequence starting at 1. A template failing this check must never
// be materialized into a ledger.
func (t *WorkflowTemplate) ValidateSteps() error {
	if len(t.Steps) == 0 {
		return fmt.Errorf("template %q has no steps", t.Name)
	}
	for i, step := range t.Steps {
		if step.Sequence != i+1 {
			return fmt.Errorf("template %q: step at index %d has sequence %d, want %d", t.Name, i, step.Sequence, i+1)
		}
		if step.RequiredRole == "" && step.ApproverID == nil {
			return fmt.Errorf("template %q: step %d names neither a role nor a fixed approver", t.Name, step.Sequence)
		}
	}
	return nil
}
