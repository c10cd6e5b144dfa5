package port

import (
	"context"
	"time"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
)

// RequestRepository defines persistence operations for Request
type RequestRepository interface {
	Create(ctx context.Context, req *entity.Request) error
	GetByID(ctx context.Context, id int64) (*entity.Request, error)
	ListByRequester(ctx context.Context, requesterID int64, limit, offset int) ([]*entity.Request, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Request, error)

	// MarkSubmitted binds the workflow template, sets the first step pointer
	// and flips DRAFT to PENDING. Returns the number of rows updated so the
	// caller can detect a lost submit race.
	MarkSubmitted(ctx context.Context, id, templateID int64, firstStep int, at time.Time) (int64, error)

	// AdvanceStep moves the current-step pointer forward; guarded on status
	// PENDING so a concurrent cancel wins cleanly.
	AdvanceStep(ctx context.Context, id int64, step int) (int64, error)

	// Finalize records the terminal status with decider and time; guarded on
	// status PENDING.
	Finalize(ctx context.Context, id int64, status string, decidedBy int64, at time.Time) (int64, error)

	// Cancel flips a DRAFT or PENDING request to CANCELLED; returns rows
	// updated (0 means the request was already terminal).
	Cancel(ctx context.Context, id int64, at time.Time) (int64, error)

	SetDocumentRef(ctx context.Context, id int64, ref string) error
}

// TemplateRepository is the workflow catalog: read-mostly template lookups
// plus administrative writes.
type TemplateRepository interface {
	Create(ctx context.Context, tpl *entity.WorkflowTemplate) error
	GetByID(ctx context.Context, id int64) (*entity.WorkflowTemplate, error)
	List(ctx context.Context, limit, offset int) ([]*entity.WorkflowTemplate, error)

	// FindActive returns all active templates matching the pair; the engine
	// treats zero matches and multiple matches as distinct failures.
	FindActive(ctx context.Context, departmentID int64, requestType string) ([]*entity.WorkflowTemplate, error)

	Deactivate(ctx context.Context, id int64) error
}

// LedgerRepository defines persistence operations for ApprovalLedgerEntry
type LedgerRepository interface {
	// CreateBatch inserts entries in the given order; call inside the
	// submission transaction
	CreateBatch(ctx context.Context, entries []*entity.ApprovalLedgerEntry) error

	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.ApprovalLedgerEntry, error)
	GetByRequestAndSequence(ctx context.Context, requestID int64, sequence int) (*entity.ApprovalLedgerEntry, error)

	// Decide records the one decision for an entry. The UPDATE is conditional
	// on the entry still being PENDING; 0 rows updated means the race was lost.
	Decide(ctx context.Context, requestID int64, sequence int, decision string, approverID int64, comments string, at time.Time) (int64, error)
}

// NotificationRepository defines persistence operations for the outbox
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Notification, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, errorMsg string) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
