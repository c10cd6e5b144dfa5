package service

import (
	"context"
	"fmt"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/port"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
	domainwf "github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/workflow"
)

// StepInput is one step definition for a new template
type StepInput struct {
	Sequence     int    `json:"sequence"`
	RequiredRole string `json:"required_role"`
	ApproverID   *int64 `json:"approver_id,omitempty"`
	IsRequired   bool   `json:"is_required"`
}

// CreateTemplateInput carries a new workflow template
type CreateTemplateInput struct {
	Name         string      `json:"name"`
	DepartmentID int64       `json:"department_id"`
	RequestType  string      `json:"request_type"`
	Steps        []StepInput `json:"steps"`
}

// TemplateService administers the workflow catalog. The engine only reads the
// catalog; all writes go through here so the single-active-template and dense
// step sequence invariants hold before a template can ever be bound.
type TemplateService interface {
	Create(ctx context.Context, input CreateTemplateInput) (*entity.WorkflowTemplate, error)
	Get(ctx context.Context, id int64) (*entity.WorkflowTemplate, error)
	List(ctx context.Context, limit, offset int) ([]*entity.WorkflowTemplate, error)
	Deactivate(ctx context.Context, id int64) error
}

type templateServiceImpl struct {
	templateRepo port.TemplateRepository
	txManager    port.TransactionManager
	logger       Logger
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(templateRepo port.TemplateRepository, txManager port.TransactionManager, logger Logger) TemplateService {
	return &templateServiceImpl{
		templateRepo: templateRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// Create validates and stores an active template. At most one active template
// may exist per (department, request type); attempting a second is rejected
// here and by the database's partial unique index.
func (s *templateServiceImpl) Create(ctx context.Context, input CreateTemplateInput) (*entity.WorkflowTemplate, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("template name is required")
	}
	if !entity.IsValidRequestType(input.RequestType) {
		return nil, fmt.Errorf("unsupported request type %q", input.RequestType)
	}

	tpl := &entity.WorkflowTemplate{
		Name:         input.Name,
		DepartmentID: input.DepartmentID,
		RequestType:  input.RequestType,
		IsActive:     true,
	}
	for _, step := range input.Steps {
		tpl.Steps = append(tpl.Steps, entity.WorkflowStepDef{
			Sequence:     step.Sequence,
			RequiredRole: step.RequiredRole,
			ApproverID:   step.ApproverID,
			IsRequired:   step.IsRequired,
		})
	}

	if err := tpl.ValidateSteps(); err != nil {
		return nil, fmt.Errorf("%w: %v", domainwf.ErrMalformedWorkflow, err)
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.templateRepo.FindActive(txCtx, input.DepartmentID, input.RequestType)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: department %d already has an active %s template (id %d)",
				domainwf.ErrAmbiguousConfiguration, input.DepartmentID, input.RequestType, existing[0].ID)
		}
		return s.templateRepo.Create(txCtx, tpl)
	})
	if err != nil {
		s.logger.Error("Failed to create template", "error", err, "name", input.Name)
		return nil, err
	}

	s.logger.Info("Template created",
		"template_id", tpl.ID,
		"department_id", tpl.DepartmentID,
		"request_type", tpl.RequestType,
		"steps", len(tpl.Steps),
	)
	return tpl, nil
}

func (s *templateServiceImpl) Get(ctx context.Context, id int64) (*entity.WorkflowTemplate, error) {
	return s.templateRepo.GetByID(ctx, id)
}

func (s *templateServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.WorkflowTemplate, error) {
	return s.templateRepo.List(ctx, limit, offset)
}

// Deactivate retires a template from the catalog. Requests that already bound
// it keep their ledger snapshot untouched.
func (s *templateServiceImpl) Deactivate(ctx context.Context, id int64) error {
	if err := s.templateRepo.Deactivate(ctx, id); err != nil {
		s.logger.Error("Failed to deactivate template", "error", err, "template_id", id)
		return err
	}
	s.logger.Info("Template deactivated", "template_id", id)
	return nil
}
