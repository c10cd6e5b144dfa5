package port

import (
	"context"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
)

// DirectoryService is the external user/role directory, read-only from the
// engine's perspective. Role assignments may be department-scoped or global.
type DirectoryService interface {
	GetUser(ctx context.Context, userID int64) (*entity.UserRef, error)
	UserHasRole(ctx context.Context, userID int64, role string, departmentID int64) (bool, error)
	FindUsersWithRole(ctx context.Context, role string, departmentID int64) ([]*entity.UserRef, error)
}

// NotificationSink delivers a notification to a recipient. Best effort: the
// engine never fails a committed workflow transition over a delivery error.
type NotificationSink interface {
	Notify(ctx context.Context, recipientID int64, eventType string, payload map[string]interface{}) error
}

// DocumentStore stores supporting documents and returns an opaque reference.
// The engine never interprets the reference.
type DocumentStore interface {
	Save(ctx context.Context, requestID int64, filename string, data []byte) (string, error)
}
