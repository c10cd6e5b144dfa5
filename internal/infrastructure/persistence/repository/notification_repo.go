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

// NotificationRepository implements port.NotificationRepository over SQLite
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new outbox row
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, request_id, event_type, payload, status)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		n.RecipientID,
		n.RequestID,
		n.EventType,
		n.Payload,
		n.Status,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// GetByRequestID retrieves all notifications emitted for a request
func (r *NotificationRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Notification, error) {
	query := `
		SELECT id, recipient_id, request_id, event_type, payload, status, error_msg, sent_at, created_at
		FROM notifications
		WHERE request_id = ?
		ORDER BY created_at
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var errorMsg sql.NullString
		var sentAt sql.NullTime

		if err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.RequestID,
			&n.EventType,
			&n.Payload,
			&n.Status,
			&errorMsg,
			&sentAt,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		n.ErrorMsg = errorMsg.String
		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// MarkSent records a successful delivery
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE notifications SET status = ?, sent_at = ? WHERE id = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, entity.NotificationStatusSent, at, id)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}

	return nil
}

// MarkFailed records a delivery failure
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errorMsg string) error {
	query := `UPDATE notifications SET status = ?, error_msg = ? WHERE id = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, entity.NotificationStatusFailed, errorMsg, id)
	if err != nil {
		r.logger.Error("Failed to mark notification failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}

	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
