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

// LedgerRepository implements port.LedgerRepository over SQLite. Decide is a
// conditional UPDATE so at most one decision per entry ever commits.
type LedgerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *sql.DB, logger *zap.Logger) port.LedgerRepository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts ledger entries in the given order
func (r *LedgerRepository) CreateBatch(ctx context.Context, entries []*entity.ApprovalLedgerEntry) error {
	query := `
		INSERT INTO approval_ledger (
			request_id, step_sequence, required_role, fixed_approver_id, is_required, decision
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	exec := sqlite.ExecutorFrom(ctx, r.db)
	for _, entry := range entries {
		result, err := exec.ExecContext(ctx, query,
			entry.RequestID,
			entry.StepSequence,
			entry.RequiredRole,
			entry.FixedApproverID,
			entry.IsRequired,
			entry.Decision,
		)
		if err != nil {
			r.logger.Error("Failed to create ledger entry",
				zap.Int64("request_id", entry.RequestID),
				zap.Int("step_sequence", entry.StepSequence),
				zap.Error(err))
			return fmt.Errorf("failed to create ledger entry: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		entry.ID = id
	}

	return nil
}

const ledgerColumns = `
	id, request_id, step_sequence, required_role, fixed_approver_id, is_required,
	assigned_approver_id, decision, comments, decided_at, created_at
`

// GetByRequestID retrieves all entries for a request in step order
func (r *LedgerRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.ApprovalLedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM approval_ledger
		WHERE request_id = ?
		ORDER BY step_sequence`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to load ledger", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	defer rows.Close()

	var entries []*entity.ApprovalLedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// GetByRequestAndSequence retrieves one entry; (nil, nil) when not found
func (r *LedgerRepository) GetByRequestAndSequence(ctx context.Context, requestID int64, sequence int) (*entity.ApprovalLedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM approval_ledger
		WHERE request_id = ? AND step_sequence = ?`

	entry, err := scanLedgerEntry(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, requestID, sequence))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get ledger entry",
			zap.Int64("request_id", requestID),
			zap.Int("sequence", sequence),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return entry, nil
}

// Decide records the decision iff the entry is still PENDING; returns rows
// affected so a lost race is detectable
func (r *LedgerRepository) Decide(ctx context.Context, requestID int64, sequence int, decision string, approverID int64, comments string, at time.Time) (int64, error) {
	query := `
		UPDATE approval_ledger
		SET decision = ?, assigned_approver_id = ?, comments = ?, decided_at = ?
		WHERE request_id = ? AND step_sequence = ? AND decision = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		decision, approverID, comments, at, requestID, sequence, entity.DecisionPending)
	if err != nil {
		r.logger.Error("Failed to decide ledger entry",
			zap.Int64("request_id", requestID),
			zap.Int("sequence", sequence),
			zap.Error(err))
		return 0, fmt.Errorf("failed to decide ledger entry: %w", err)
	}

	return result.RowsAffected()
}

func scanLedgerEntry(row rowScanner) (*entity.ApprovalLedgerEntry, error) {
	var entry entity.ApprovalLedgerEntry
	var fixedApprover, assignedApprover sql.NullInt64
	var comments sql.NullString
	var decidedAt sql.NullTime

	err := row.Scan(
		&entry.ID,
		&entry.RequestID,
		&entry.StepSequence,
		&entry.RequiredRole,
		&fixedApprover,
		&entry.IsRequired,
		&assignedApprover,
		&entry.Decision,
		&comments,
		&decidedAt,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if fixedApprover.Valid {
		entry.FixedApproverID = &fixedApprover.Int64
	}
	if assignedApprover.Valid {
		entry.AssignedApproverID = &assignedApprover.Int64
	}
	if decidedAt.Valid {
		entry.DecidedAt = &decidedAt.Time
	}
	entry.Comments = comments.String

	return &entry, nil
}

// Verify interface compliance
var _ port.LedgerRepository = (*LedgerRepository)(nil)
