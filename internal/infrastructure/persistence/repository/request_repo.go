package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/port"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// RequestRepository implements port.RequestRepository over SQLite. The
// mutating status operations are conditional UPDATEs returning rows affected,
// which is how races on the same request lose cleanly.
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, requester_id, department_id, request_type, status,
	workflow_template_id, current_step_sequence,
	start_date, end_date, reason,
	destination, purpose, budget_cents,
	document_ref, submitted_at, decided_at, decided_by,
	created_at, updated_at
`

// Create inserts a new DRAFT request
func (r *RequestRepository) Create(ctx context.Context, req *entity.Request) error {
	query := `
		INSERT INTO requests (
			requester_id, department_id, request_type, status,
			start_date, end_date, reason,
			destination, purpose, budget_cents, document_ref
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		req.RequesterID,
		req.DepartmentID,
		req.RequestType,
		req.Status,
		req.StartDate,
		req.EndDate,
		req.Reason,
		req.Destination,
		req.Purpose,
		req.BudgetCents,
		req.DocumentRef,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	return nil
}

// GetByID retrieves a request by ID; (nil, nil) when not found
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`

	req, err := scanRequest(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return req, nil
}

// ListByRequester retrieves a requester's requests, newest first
func (r *RequestRepository) ListByRequester(ctx context.Context, requesterID int64, limit, offset int) ([]*entity.Request, error) {
	query := `SELECT ` + requestColumns + `
		FROM requests
		WHERE requester_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	return r.queryRequests(ctx, query, requesterID, limit, offset)
}

// ListByStatus retrieves requests in a given status, oldest first so approver
// inboxes surface the longest-waiting requests
func (r *RequestRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Request, error) {
	query := `SELECT ` + requestColumns + `
		FROM requests
		WHERE status = ?
		ORDER BY submitted_at ASC
		LIMIT ? OFFSET ?`

	return r.queryRequests(ctx, query, status, limit, offset)
}

// MarkSubmitted binds the workflow and flips DRAFT to PENDING
func (r *RequestRepository) MarkSubmitted(ctx context.Context, id, templateID int64, firstStep int, at time.Time) (int64, error) {
	query := `
		UPDATE requests
		SET status = ?, workflow_template_id = ?, current_step_sequence = ?,
			submitted_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		entity.StatusPending, templateID, firstStep, at, id, entity.StatusDraft)
	if err != nil {
		r.logger.Error("Failed to mark request submitted", zap.Int64("id", id), zap.Error(err))
		return 0, fmt.Errorf("failed to mark submitted: %w", err)
	}

	return result.RowsAffected()
}

// AdvanceStep moves the current-step pointer; only while PENDING
func (r *RequestRepository) AdvanceStep(ctx context.Context, id int64, step int) (int64, error) {
	query := `
		UPDATE requests
		SET current_step_sequence = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, step, id, entity.StatusPending)
	if err != nil {
		r.logger.Error("Failed to advance step", zap.Int64("id", id), zap.Int("step", step), zap.Error(err))
		return 0, fmt.Errorf("failed to advance step: %w", err)
	}

	return result.RowsAffected()
}

// Finalize records a terminal decision status; only while PENDING
func (r *RequestRepository) Finalize(ctx context.Context, id int64, status string, decidedBy int64, at time.Time) (int64, error) {
	query := `
		UPDATE requests
		SET status = ?, decided_at = ?, decided_by = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, status, at, decidedBy, id, entity.StatusPending)
	if err != nil {
		r.logger.Error("Failed to finalize request", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return 0, fmt.Errorf("failed to finalize request: %w", err)
	}

	return result.RowsAffected()
}

// Cancel flips a DRAFT or PENDING request to CANCELLED
func (r *RequestRepository) Cancel(ctx context.Context, id int64, at time.Time) (int64, error) {
	query := `
		UPDATE requests
		SET status = ?, decided_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		entity.StatusCancelled, at, id, entity.StatusDraft, entity.StatusPending)
	if err != nil {
		r.logger.Error("Failed to cancel request", zap.Int64("id", id), zap.Error(err))
		return 0, fmt.Errorf("failed to cancel request: %w", err)
	}

	return result.RowsAffected()
}

// SetDocumentRef stores the opaque supporting document reference
func (r *RequestRepository) SetDocumentRef(ctx context.Context, id int64, ref string) error {
	query := `UPDATE requests SET document_ref = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, ref, id)
	if err != nil {
		r.logger.Error("Failed to set document ref", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set document ref: %w", err)
	}

	return nil
}

func (r *RequestRepository) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*entity.Request, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*entity.Request, error) {
	var req entity.Request
	var templateID, decidedBy sql.NullInt64
	var startDate, endDate, submittedAt, decidedAt sql.NullTime
	var reason, destination, purpose, documentRef sql.NullString

	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.DepartmentID,
		&req.RequestType,
		&req.Status,
		&templateID,
		&req.CurrentStepSequence,
		&startDate,
		&endDate,
		&reason,
		&destination,
		&purpose,
		&req.BudgetCents,
		&documentRef,
		&submittedAt,
		&decidedAt,
		&decidedBy,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if templateID.Valid {
		req.WorkflowTemplateID = &templateID.Int64
	}
	if decidedBy.Valid {
		req.DecidedBy = &decidedBy.Int64
	}
	if startDate.Valid {
		req.StartDate = &startDate.Time
	}
	if endDate.Valid {
		req.EndDate = &endDate.Time
	}
	if submittedAt.Valid {
		req.SubmittedAt = &submittedAt.Time
	}
	if decidedAt.Valid {
		req.DecidedAt = &decidedAt.Time
	}
	req.Reason = reason.String
	req.Destination = destination.String
	req.Purpose = purpose.String
	req.DocumentRef = documentRef.String

	return &req, nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
