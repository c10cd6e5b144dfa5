package workflow

import (
	"context"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
)

// Decision is an approver's verdict on the current step
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// RequestWithLedger bundles a request with its approval ledger for display
type RequestWithLedger struct {
	Request *entity.Request               `json:"request"`
	Ledger  []*entity.ApprovalLedgerEntry `json:"ledger"`
}

// Engine orchestrates the approval workflow: it resolves the template for a
// new request, materializes the ledger, advances the current-step pointer on
// approvals, finalizes terminal states and enforces who may act at each point.
// It is the only component that mutates request status after creation.
type Engine interface {
	// InitializeWorkflow submits a DRAFT request: binds the matching template,
	// creates the ledger and transitions to PENDING in one transaction.
	InitializeWorkflow(ctx context.Context, requestID int64) (*entity.Request, error)

	// ProcessDecision applies an approve/reject decision by actorID to the
	// request's current step.
	ProcessDecision(ctx context.Context, requestID, actorID int64, decision Decision, comments string) (*entity.Request, error)

	// CancelRequest cancels a DRAFT or PENDING request; owner only.
	CancelRequest(ctx context.Context, requestID, actorID int64) (*entity.Request, error)

	// GetRequest loads a request together with its ledger
	GetRequest(ctx context.Context, requestID int64) (*RequestWithLedger, error)
}
