package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/port"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// TemplateRepository implements port.TemplateRepository over SQLite
type TemplateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sql.DB, logger *zap.Logger) port.TemplateRepository {
	return &TemplateRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a template and its step definitions. Call inside a
// transaction so a failed step insert leaves no orphan template.
func (r *TemplateRepository) Create(ctx context.Context, tpl *entity.WorkflowTemplate) error {
	exec := sqlite.ExecutorFrom(ctx, r.db)

	result, err := exec.ExecContext(ctx, `
		INSERT INTO workflow_templates (name, department_id, request_type, is_active)
		VALUES (?, ?, ?, ?)
	`, tpl.Name, tpl.DepartmentID, tpl.RequestType, tpl.IsActive)
	if err != nil {
		r.logger.Error("Failed to create template", zap.Error(err))
		return fmt.Errorf("failed to create template: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	tpl.ID = id

	for i := range tpl.Steps {
		step := &tpl.Steps[i]
		step.TemplateID = id

		res, err := exec.ExecContext(ctx, `
			INSERT INTO workflow_step_defs (template_id, sequence, required_role, approver_id, is_required)
			VALUES (?, ?, ?, ?, ?)
		`, step.TemplateID, step.Sequence, step.RequiredRole, step.ApproverID, step.IsRequired)
		if err != nil {
			r.logger.Error("Failed to create step def", zap.Int64("template_id", id), zap.Int("sequence", step.Sequence), zap.Error(err))
			return fmt.Errorf("failed to create step def: %w", err)
		}

		stepID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		step.ID = stepID
	}

	return nil
}

// GetByID retrieves a template with its steps ordered by sequence
func (r *TemplateRepository) GetByID(ctx context.Context, id int64) (*entity.WorkflowTemplate, error) {
	query := `
		SELECT id, name, department_id, request_type, is_active, created_at, updated_at
		FROM workflow_templates
		WHERE id = ?
	`

	var tpl entity.WorkflowTemplate
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&tpl.ID,
		&tpl.Name,
		&tpl.DepartmentID,
		&tpl.RequestType,
		&tpl.IsActive,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get template", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	if err := r.loadSteps(ctx, &tpl); err != nil {
		return nil, err
	}

	return &tpl, nil
}

// List retrieves templates (with steps) page by page
func (r *TemplateRepository) List(ctx context.Context, limit, offset int) ([]*entity.WorkflowTemplate, error) {
	query := `
		SELECT id, name, department_id, request_type, is_active, created_at, updated_at
		FROM workflow_templates
		ORDER BY id
		LIMIT ? OFFSET ?
	`

	return r.queryTemplates(ctx, query, limit, offset)
}

// FindActive returns all active templates for the pair; callers decide how to
// treat zero or multiple matches
func (r *TemplateRepository) FindActive(ctx context.Context, departmentID int64, requestType string) ([]*entity.WorkflowTemplate, error) {
	query := `
		SELECT id, name, department_id, request_type, is_active, created_at, updated_at
		FROM workflow_templates
		WHERE department_id = ? AND request_type = ? AND is_active = 1
		ORDER BY id
	`

	return r.queryTemplates(ctx, query, departmentID, requestType)
}

// Deactivate retires a template from catalog lookups
func (r *TemplateRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE workflow_templates SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to deactivate template", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to deactivate template: %w", err)
	}

	return nil
}

func (r *TemplateRepository) queryTemplates(ctx context.Context, query string, args ...interface{}) ([]*entity.WorkflowTemplate, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query templates", zap.Error(err))
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []*entity.WorkflowTemplate
	for rows.Next() {
		var tpl entity.WorkflowTemplate
		if err := rows.Scan(
			&tpl.ID,
			&tpl.Name,
			&tpl.DepartmentID,
			&tpl.RequestType,
			&tpl.IsActive,
			&tpl.CreatedAt,
			&tpl.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, &tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, tpl := range templates {
		if err := r.loadSteps(ctx, tpl); err != nil {
			return nil, err
		}
	}

	return templates, nil
}

func (r *TemplateRepository) loadSteps(ctx context.Context, tpl *entity.WorkflowTemplate) error {
	query := `
		SELECT id, template_id, sequence, required_role, approver_id, is_required
		FROM workflow_step_defs
		WHERE template_id = ?
		ORDER BY sequence
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, tpl.ID)
	if err != nil {
		r.logger.Error("Failed to load steps", zap.Int64("template_id", tpl.ID), zap.Error(err))
		return fmt.Errorf("failed to load steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var step entity.WorkflowStepDef
		var approverID sql.NullInt64

		if err := rows.Scan(
			&step.ID,
			&step.TemplateID,
			&step.Sequence,
			&step.RequiredRole,
			&approverID,
			&step.IsRequired,
		); err != nil {
			return fmt.Errorf("failed to scan step def: %w", err)
		}
		if approverID.Valid {
			step.ApproverID = &approverID.Int64
		}
		tpl.Steps = append(tpl.Steps, step)
	}

	return rows.Err()
}

// Verify interface compliance
var _ port.TemplateRepository = (*TemplateRepository)(nil)
