package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/approver"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/port"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/workflow"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
	domainwf "github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateRequestInput carries the typed payload for a new draft
type CreateRequestInput struct {
	RequesterID  int64      `json:"requester_id"`
	DepartmentID int64      `json:"department_id"`
	RequestType  string     `json:"request_type"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	Destination  string     `json:"destination,omitempty"`
	Purpose      string     `json:"purpose,omitempty"`
	BudgetCents  int64      `json:"budget_cents,omitempty"`
}

// PendingApproval is one inbox item for an approver: a pending request whose
// current step the user may decide.
type PendingApproval struct {
	Request *entity.Request             `json:"request"`
	Step    *entity.ApprovalLedgerEntry `json:"step"`
}

// RequestService fronts the workflow engine with draft creation, payload
// validation and query surfaces.
type RequestService interface {
	CreateDraft(ctx context.Context, input CreateRequestInput) (*entity.Request, error)
	Submit(ctx context.Context, requestID, actorID int64) (*entity.Request, error)
	Decide(ctx context.Context, requestID, actorID int64, decision workflow.Decision, comments string) (*entity.Request, error)
	Cancel(ctx context.Context, requestID, actorID int64) (*entity.Request, error)
	Get(ctx context.Context, requestID int64) (*workflow.RequestWithLedger, error)
	ListByRequester(ctx context.Context, requesterID int64, limit, offset int) ([]*entity.Request, error)
	ListPendingForApprover(ctx context.Context, approverID int64, limit, offset int) ([]*PendingApproval, error)
	AttachDocument(ctx context.Context, requestID, actorID int64, filename string, data []byte) (*entity.Request, error)
}

type requestServiceImpl struct {
	engine      workflow.Engine
	requestRepo port.RequestRepository
	ledgerRepo  port.LedgerRepository
	resolver    *approver.Resolver
	documents   port.DocumentStore
	logger      Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	engine workflow.Engine,
	requestRepo port.RequestRepository,
	ledgerRepo port.LedgerRepository,
	resolver *approver.Resolver,
	documents port.DocumentStore,
	logger Logger,
) RequestService {
	return &requestServiceImpl{
		engine:      engine,
		requestRepo: requestRepo,
		ledgerRepo:  ledgerRepo,
		resolver:    resolver,
		documents:   documents,
		logger:      logger,
	}
}

// CreateDraft validates the typed payload and stores a DRAFT request
func (s *requestServiceImpl) CreateDraft(ctx context.Context, input CreateRequestInput) (*entity.Request, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	req := &entity.Request{
		RequesterID:  input.RequesterID,
		DepartmentID: input.DepartmentID,
		RequestType:  input.RequestType,
		Status:       entity.StatusDraft,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Reason:       input.Reason,
		Destination:  input.Destination,
		Purpose:      input.Purpose,
		BudgetCents:  input.BudgetCents,
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		s.logger.Error("Failed to create draft", "error", err, "requester_id", input.RequesterID)
		return nil, err
	}

	s.logger.Info("Draft created", "request_id", req.ID, "request_type", req.RequestType)
	return req, nil
}

// Submit hands a DRAFT request to the workflow engine. Only the requester may
// submit their own draft.
func (s *requestServiceImpl) Submit(ctx context.Context, requestID, actorID int64) (*entity.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: id %d", domainwf.ErrRequestNotFound, requestID)
	}
	if req.RequesterID != actorID {
		return nil, fmt.Errorf("%w: user %d is not the requester of %d", domainwf.ErrNotAuthorized, actorID, requestID)
	}

	return s.engine.InitializeWorkflow(ctx, requestID)
}

func (s *requestServiceImpl) Decide(ctx context.Context, requestID, actorID int64, decision workflow.Decision, comments string) (*entity.Request, error) {
	return s.engine.ProcessDecision(ctx, requestID, actorID, decision, comments)
}

func (s *requestServiceImpl) Cancel(ctx context.Context, requestID, actorID int64) (*entity.Request, error) {
	return s.engine.CancelRequest(ctx, requestID, actorID)
}

func (s *requestServiceImpl) Get(ctx context.Context, requestID int64) (*workflow.RequestWithLedger, error) {
	return s.engine.GetRequest(ctx, requestID)
}

func (s *requestServiceImpl) ListByRequester(ctx context.Context, requesterID int64, limit, offset int) ([]*entity.Request, error) {
	return s.requestRepo.ListByRequester(ctx, requesterID, limit, offset)
}

// ListPendingForApprover returns pending requests whose current step the user
// is authorized to decide.
func (s *requestServiceImpl) ListPendingForApprover(ctx context.Context, approverID int64, limit, offset int) ([]*PendingApproval, error) {
	pending, err := s.requestRepo.ListByStatus(ctx, entity.StatusPending, limit, offset)
	if err != nil {
		return nil, err
	}

	result := make([]*PendingApproval, 0, len(pending))
	for _, req := range pending {
		entry, err := s.ledgerRepo.GetByRequestAndSequence(ctx, req.ID, req.CurrentStepSequence)
		if err != nil {
			return nil, err
		}
		if entry == nil || entry.IsDecided() {
			continue
		}

		ok, err := s.resolver.CanAct(ctx, approverID, entry, req.DepartmentID)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, &PendingApproval{Request: req, Step: entry})
		}
	}

	return result, nil
}

// AttachDocument stores a supporting document and records its opaque reference
// on the request. Owner only, and only before the request is terminal.
func (s *requestServiceImpl) AttachDocument(ctx context.Context, requestID, actorID int64, filename string, data []byte) (*entity.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: id %d", domainwf.ErrRequestNotFound, requestID)
	}
	if req.RequesterID != actorID {
		return nil, fmt.Errorf("%w: user %d is not the requester of %d", domainwf.ErrNotAuthorized, actorID, requestID)
	}
	if req.IsTerminal() {
		return nil, fmt.Errorf("%w: request %d is %s", domainwf.ErrInvalidState, requestID, req.Status)
	}

	ref, err := s.documents.Save(ctx, requestID, filename, data)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	if err := s.requestRepo.SetDocumentRef(ctx, requestID, ref); err != nil {
		return nil, err
	}
	req.DocumentRef = ref

	s.logger.Info("Document attached", "request_id", requestID, "ref", ref)
	return req, nil
}

// validateInput enforces the per-type payload shape
func validateInput(input CreateRequestInput) error {
	if input.RequesterID == 0 {
		return fmt.Errorf("requester_id is required")
	}
	if input.DepartmentID == 0 {
		return fmt.Errorf("department_id is required")
	}
	if !entity.IsValidRequestType(input.RequestType) {
		return fmt.Errorf("unsupported request type %q", input.RequestType)
	}

	switch input.RequestType {
	case entity.RequestTypeLeave:
		if input.StartDate == nil || input.EndDate == nil {
			return fmt.Errorf("leave requests need start_date and end_date")
		}
		if input.EndDate.Before(*input.StartDate) {
			return fmt.Errorf("end_date precedes start_date")
		}
		if input.Reason == "" {
			return fmt.Errorf("leave requests need a reason")
		}
	case entity.RequestTypeMission:
		if input.Destination == "" {
			return fmt.Errorf("mission requests need a destination")
		}
		if input.Purpose == "" {
			return fmt.Errorf("mission requests need a purpose")
		}
		if input.BudgetCents < 0 {
			return fmt.Errorf("budget cannot be negative")
		}
	}

	return nil
}
