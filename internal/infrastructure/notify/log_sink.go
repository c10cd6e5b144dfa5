// Package notify holds notification sink implementations. Delivery is best
// effort by contract; sinks may fail without affecting workflow state.
package notify

import (
	"context"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/port"
	"go.uber.org/zap"
)

// LogSink writes notifications to the structured log. It is the delivery
// boundary for deployments without an external messaging integration; real
// senders implement the same port.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new log-backed notification sink
func NewLogSink(logger *zap.Logger) port.NotificationSink {
	return &LogSink{logger: logger}
}

// Notify logs the notification
func (s *LogSink) Notify(ctx context.Context, recipientID int64, eventType string, payload map[string]interface{}) error {
	s.logger.Info("Notification",
		zap.Int64("recipient_id", recipientID),
		zap.String("event_type", eventType),
		zap.Any("payload", payload),
	)
	return nil
}

// Verify interface compliance
var _ port.NotificationSink = (*LogSink)(nil)
