package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/approver"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/dispatcher"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/port"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/event"
	domainwf "github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	requestRepo  port.RequestRepository
	templateRepo port.TemplateRepository
	ledgerRepo   port.LedgerRepository
	resolver     *approver.Resolver
	txManager    port.TransactionManager
	dispatcher   dispatcher.Dispatcher
	logger       Logger
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting post-commit events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	requestRepo port.RequestRepository,
	templateRepo port.TemplateRepository,
	ledgerRepo port.LedgerRepository,
	resolver *approver.Resolver,
	txManager port.TransactionManager,
	logger Logger,
	opts ...EngineOption,
) Engine {
	e := &engineImpl{
		requestRepo:  requestRepo,
		templateRepo: templateRepo,
		ledgerRepo:   ledgerRepo,
		resolver:     resolver,
		txManager:    txManager,
		logger:       logger,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// InitializeWorkflow resolves exactly one active template for the request's
// (department, request type) pair, materializes the ledger and transitions the
// request to PENDING. Template resolution, ledger creation and the status
// transition commit atomically; notifications happen after commit and are
// best effort.
func (e *engineImpl) InitializeWorkflow(ctx context.Context, requestID int64) (*entity.Request, error) {
	req, err := e.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: id %d", domainwf.ErrRequestNotFound, requestID)
	}

	machine := BuildRequestStateMachine(domainwf.State(req.Status))
	if !machine.CanFire(domainwf.TriggerSubmit) {
		return nil, fmt.Errorf("%w: cannot submit request %d in status %s", domainwf.ErrInvalidTransition, requestID, req.Status)
	}

	templates, err := e.templateRepo.FindActive(ctx, req.DepartmentID, req.RequestType)
	if err != nil {
		return nil, fmt.Errorf("find active template: %w", err)
	}
	switch {
	case len(templates) == 0:
		return nil, fmt.Errorf("%w: department %d, type %s", domainwf.ErrNoWorkflowConfigured, req.DepartmentID, req.RequestType)
	case len(templates) > 1:
		e.logger.Error("Multiple active templates match; catalog uniqueness constraint violated",
			"department_id", req.DepartmentID,
			"request_type", req.RequestType,
			"matches", len(templates),
		)
		return nil, fmt.Errorf("%w: department %d, type %s has %d active templates", domainwf.ErrAmbiguousConfiguration, req.DepartmentID, req.RequestType, len(templates))
	}

	tpl := templates[0]
	if err := tpl.ValidateSteps(); err != nil {
		e.logger.Error("Template failed step validation", "template_id", tpl.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", domainwf.ErrMalformedWorkflow, err)
	}

	now := time.Now()
	firstStep := tpl.Steps[0].Sequence

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		rows, err := e.requestRepo.MarkSubmitted(txCtx, req.ID, tpl.ID, firstStep, now)
		if err != nil {
			return fmt.Errorf("mark submitted: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: request %d left DRAFT concurrently", domainwf.ErrInvalidTransition, req.ID)
		}

		entries := make([]*entity.ApprovalLedgerEntry, 0, len(tpl.Steps))
		for _, step := range tpl.Steps {
			entries = append(entries, &entity.ApprovalLedgerEntry{
				RequestID:       req.ID,
				StepSequence:    step.Sequence,
				RequiredRole:    step.RequiredRole,
				FixedApproverID: step.ApproverID,
				IsRequired:      step.IsRequired,
				Decision:        entity.DecisionPending,
			})
		}
		if err := e.ledgerRepo.CreateBatch(txCtx, entries); err != nil {
			return fmt.Errorf("create ledger: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := e.requestRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("reload request: %w", err)
	}

	e.logger.Info("Workflow initialized",
		"request_id", req.ID,
		"template_id", tpl.ID,
		"steps", len(tpl.Steps),
	)

	e.emit(ctx, event.NewEvent(event.TypeRequestSubmitted, req.ID, req.RequesterID, map[string]interface{}{
		"recipient_id": req.RequesterID,
		"request_type": req.RequestType,
	}))
	e.notifyStepApprover(ctx, updated, firstStep)

	return updated, nil
}

// ProcessDecision applies a decision to the request's current step.
// Preconditions are checked in order, each a distinct failure: request must be
// PENDING, a ledger entry must exist at the current step, the actor must be
// authorized for it, and the entry must still be undecided. The decision and
// the request mutation commit in one transaction; the ledger UPDATE is
// conditional on the entry being PENDING, so of two racing decisions exactly
// one commits and the loser sees ErrAlreadyDecided.
func (e *engineImpl) ProcessDecision(ctx context.Context, requestID, actorID int64, decision Decision, comments string) (*entity.Request, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, fmt.Errorf("unknown decision %q", decision)
	}

	req, err := e.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: id %d", domainwf.ErrRequestNotFound, requestID)
	}

	if req.Status != entity.StatusPending {
		return nil, fmt.Errorf("%w: request %d is %s", domainwf.ErrRequestNotPending, requestID, req.Status)
	}

	entry, err := e.ledgerRepo.GetByRequestAndSequence(ctx, req.ID, req.CurrentStepSequence)
	if err != nil {
		return nil, fmt.Errorf("load current ledger entry: %w", err)
	}
	if entry == nil {
		e.logger.Error("Current step has no ledger entry; ledger and request pointer disagree",
			"request_id", req.ID,
			"current_step", req.CurrentStepSequence,
		)
		return nil, fmt.Errorf("%w: request %d step %d", domainwf.ErrNoCurrentStep, req.ID, req.CurrentStepSequence)
	}

	allowed, err := e.resolver.CanAct(ctx, actorID, entry, req.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("authorization check: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: user %d cannot act on step %d of request %d", domainwf.ErrNotAuthorized, actorID, entry.StepSequence, req.ID)
	}

	if entry.IsDecided() {
		return nil, fmt.Errorf("%w: request %d step %d", domainwf.ErrAlreadyDecided, req.ID, entry.StepSequence)
	}

	nextStep, err := e.findNextStep(ctx, req.ID, entry.StepSequence)
	if err != nil {
		return nil, err
	}

	trigger := domainwf.TriggerApprove
	if decision == DecisionReject {
		trigger = domainwf.TriggerReject
	}
	machine := BuildRequestStateMachine(domainwf.State(req.Status))
	if !machine.CanFire(trigger) {
		return nil, fmt.Errorf("%w: request %d is %s", domainwf.ErrRequestNotPending, requestID, req.Status)
	}

	now := time.Now()

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		entryDecision := entity.DecisionApproved
		if decision == DecisionReject {
			entryDecision = entity.DecisionRejected
		}

		rows, err := e.ledgerRepo.Decide(txCtx, req.ID, entry.StepSequence, entryDecision, actorID, comments, now)
		if err != nil {
			return fmt.Errorf("decide ledger entry: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: request %d step %d", domainwf.ErrAlreadyDecided, req.ID, entry.StepSequence)
		}

		switch {
		case decision == DecisionReject:
			// One rejection terminates the whole workflow; unreached entries
			// stay PENDING but become inert.
			rows, err = e.requestRepo.Finalize(txCtx, req.ID, entity.StatusRejected, actorID, now)
		case nextStep == 0:
			rows, err = e.requestRepo.Finalize(txCtx, req.ID, entity.StatusApproved, actorID, now)
		default:
			rows, err = e.requestRepo.AdvanceStep(txCtx, req.ID, nextStep)
		}
		if err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if rows == 0 {
			// A concurrent cancel won; roll the ledger decision back with us.
			return fmt.Errorf("%w: request %d", domainwf.ErrRequestNotPending, req.ID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := e.requestRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("reload request: %w", err)
	}

	e.logger.Info("Decision processed",
		"request_id", req.ID,
		"step_sequence", entry.StepSequence,
		"decision", string(decision),
		"actor_id", actorID,
		"status", updated.Status,
	)

	switch {
	case decision == DecisionReject:
		e.emit(ctx, event.NewEvent(event.TypeRequestRejected, req.ID, actorID, map[string]interface{}{
			"recipient_id":  req.RequesterID,
			"step_sequence": entry.StepSequence,
			"comments":      comments,
		}))
	case nextStep == 0:
		e.emit(ctx, event.NewEvent(event.TypeRequestApproved, req.ID, actorID, map[string]interface{}{
			"recipient_id": req.RequesterID,
		}))
	default:
		e.emit(ctx, event.NewEvent(event.TypeStepApproved, req.ID, actorID, map[string]interface{}{
			"recipient_id":  req.RequesterID,
			"step_sequence": entry.StepSequence,
		}))
		e.notifyStepApprover(ctx, updated, nextStep)
	}

	return updated, nil
}

// CancelRequest cancels a DRAFT or PENDING request. Only the requester may
// cancel. Ledger entries keep whatever decisions they hold; a terminal request
// makes them inert.
func (e *engineImpl) CancelRequest(ctx context.Context, requestID, actorID int64) (*entity.Request, error) {
	req, err := e.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: id %d", domainwf.ErrRequestNotFound, requestID)
	}

	if req.RequesterID != actorID {
		return nil, fmt.Errorf("%w: user %d is not the requester of %d", domainwf.ErrNotAuthorized, actorID, requestID)
	}

	machine := BuildRequestStateMachine(domainwf.State(req.Status))
	if !machine.CanFire(domainwf.TriggerCancel) {
		return nil, fmt.Errorf("%w: request %d is %s", domainwf.ErrInvalidState, requestID, req.Status)
	}

	now := time.Now()
	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		rows, err := e.requestRepo.Cancel(txCtx, req.ID, now)
		if err != nil {
			return fmt.Errorf("cancel request: %w", err)
		}
		if rows == 0 {
			// A concurrent decision reached a terminal state first
			return fmt.Errorf("%w: request %d", domainwf.ErrInvalidState, req.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := e.requestRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("reload request: %w", err)
	}

	e.logger.Info("Request cancelled", "request_id", req.ID, "actor_id", actorID)

	e.emit(ctx, event.NewEvent(event.TypeRequestCancelled, req.ID, actorID, map[string]interface{}{
		"recipient_id": req.RequesterID,
	}))

	return updated, nil
}

// GetRequest loads a request together with its ledger
func (e *engineImpl) GetRequest(ctx context.Context, requestID int64) (*RequestWithLedger, error) {
	req, err := e.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: id %d", domainwf.ErrRequestNotFound, requestID)
	}

	ledger, err := e.ledgerRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	return &RequestWithLedger{Request: req, Ledger: ledger}, nil
}

// findNextStep returns the lowest ledger sequence after current, or 0 when
// current is the final step.
func (e *engineImpl) findNextStep(ctx context.Context, requestID int64, current int) (int, error) {
	entries, err := e.ledgerRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	next := 0
	for _, en := range entries {
		if en.StepSequence > current && (next == 0 || en.StepSequence < next) {
			next = en.StepSequence
		}
	}
	return next, nil
}

// notifyStepApprover resolves the approver for a step and emits the pending
// approval event. Resolution failures never block the workflow: an
// unavailable fixed approver or an unfilled role is logged and the step waits
// for manual intervention.
func (e *engineImpl) notifyStepApprover(ctx context.Context, req *entity.Request, step int) {
	entry, err := e.ledgerRepo.GetByRequestAndSequence(ctx, req.ID, step)
	if err != nil || entry == nil {
		e.logger.Error("Failed to load ledger entry for notification",
			"request_id", req.ID, "step_sequence", step, "error", err)
		return
	}

	approverRef, err := e.resolver.Resolve(ctx, entry, req.DepartmentID)
	if err != nil {
		e.logger.Warn("Approver resolution failed; manual intervention may be needed",
			"request_id", req.ID, "step_sequence", step, "error", err)
		return
	}
	if approverRef == nil {
		return
	}

	e.emit(ctx, event.NewEvent(event.TypeApprovalPending, req.ID, req.RequesterID, map[string]interface{}{
		"recipient_id":  approverRef.ID,
		"step_sequence": step,
		"role":          entry.RequiredRole,
	}))
}

// emit dispatches asynchronously; notification delivery must never affect the
// already committed workflow state.
func (e *engineImpl) emit(ctx context.Context, evt *event.Event) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.DispatchAsync(ctx, evt)
}
