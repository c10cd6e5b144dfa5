package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/dispatcher"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/port"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/event"
)

// NotificationService turns workflow events into best-effort deliveries. Each
// delivery is persisted as an outbox row first so failures stay observable;
// a delivery error marks the row FAILED and is logged, never propagated back
// into the workflow.
type NotificationService interface {
	// RegisterHandlers subscribes the service to all workflow event types
	RegisterHandlers(d dispatcher.Dispatcher)

	// HandleEvent formats, persists and delivers one notification
	HandleEvent(ctx context.Context, evt *event.Event) error
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	sink             port.NotificationSink
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	sink port.NotificationSink,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		sink:             sink,
		logger:           logger,
	}
}

// RegisterHandlers subscribes the service to all workflow event types
func (s *notificationServiceImpl) RegisterHandlers(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypeRequestSubmitted,
		event.TypeApprovalPending,
		event.TypeStepApproved,
		event.TypeRequestApproved,
		event.TypeRequestRejected,
		event.TypeRequestCancelled,
	} {
		d.SubscribeNamed(t, "notification-service", s.HandleEvent)
	}
}

// HandleEvent formats, persists and delivers one notification
func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	recipient := evt.GetPayloadInt("recipient_id")
	if recipient == 0 {
		s.logger.Warn("Event has no recipient, skipping notification",
			"event_type", evt.Type, "request_id", evt.RequestID)
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"message": s.formatMessage(evt),
		"data":    evt.Payload,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	n := &entity.Notification{
		RecipientID: recipient,
		RequestID:   evt.RequestID,
		EventType:   evt.Type.String(),
		Payload:     string(payload),
		Status:      entity.NotificationStatusPending,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	if err := s.sink.Notify(ctx, recipient, evt.Type.String(), evt.Payload); err != nil {
		// Best effort: record the failure and move on
		s.logger.Error("Notification delivery failed",
			"notification_id", n.ID,
			"recipient_id", recipient,
			"event_type", evt.Type,
			"error", err,
		)
		if markErr := s.notificationRepo.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
			s.logger.Error("Failed to mark notification failed", "notification_id", n.ID, "error", markErr)
		}
		return nil
	}

	if err := s.notificationRepo.MarkSent(ctx, n.ID, time.Now()); err != nil {
		s.logger.Error("Failed to mark notification sent", "notification_id", n.ID, "error", err)
	}

	return nil
}

// formatMessage renders the human-readable text for an event
func (s *notificationServiceImpl) formatMessage(evt *event.Event) string {
	switch evt.Type {
	case event.TypeRequestSubmitted:
		return fmt.Sprintf("Your %s request #%d has been submitted for approval.",
			evt.GetPayloadString("request_type"), evt.RequestID)
	case event.TypeApprovalPending:
		return fmt.Sprintf("Request #%d is waiting for your approval (step %d, %s).",
			evt.RequestID, evt.GetPayloadInt("step_sequence"), evt.GetPayloadString("role"))
	case event.TypeStepApproved:
		return fmt.Sprintf("Request #%d cleared approval step %d.",
			evt.RequestID, evt.GetPayloadInt("step_sequence"))
	case event.TypeRequestApproved:
		return fmt.Sprintf("Request #%d has been fully approved.", evt.RequestID)
	case event.TypeRequestRejected:
		msg := fmt.Sprintf("Request #%d was rejected at step %d.",
			evt.RequestID, evt.GetPayloadInt("step_sequence"))
		if comments := evt.GetPayloadString("comments"); comments != "" {
			msg += " Comments: " + comments
		}
		return msg
	case event.TypeRequestCancelled:
		return fmt.Sprintf("Request #%d was cancelled.", evt.RequestID)
	default:
		return fmt.Sprintf("Update on request #%d.", evt.RequestID)
	}
}
