package event

import (
	"testing"
	"time"
)

func TestType_String(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      string
	}{
		{"request submitted", TypeRequestSubmitted, "request.submitted"},
		{"approval pending", TypeApprovalPending, "approval.pending"},
		{"step approved", TypeStepApproved, "step.approved"},
		{"request approved", TypeRequestApproved, "request.approved"},
		{"request rejected", TypeRequestRejected, "request.rejected"},
		{"request cancelled", TypeRequestCancelled, "request.cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.String(); got != tt.want {
				t.Errorf("Type.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_IsValid(t *testing.T) {
	for _, valid := range []Type{
		TypeRequestSubmitted,
		TypeApprovalPending,
		TypeStepApproved,
		TypeRequestApproved,
		TypeRequestRejected,
		TypeRequestCancelled,
	} {
		if !valid.IsValid() {
			t.Errorf("Type %q should be valid", valid)
		}
	}

	for _, invalid := range []Type{"unknown.type", ""} {
		if invalid.IsValid() {
			t.Errorf("Type %q should be invalid", invalid)
		}
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"recipient_id": int64(100),
		"role":         "TEAM_LEADER",
	}

	evt := NewEvent(TypeApprovalPending, 123, 456, payload)

	if evt == nil {
		t.Fatal("NewEvent() returned nil")
	}
	if evt.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if evt.Type != TypeApprovalPending {
		t.Errorf("Event Type = %v, want %v", evt.Type, TypeApprovalPending)
	}
	if evt.RequestID != 123 {
		t.Errorf("Event RequestID = %v, want %v", evt.RequestID, 123)
	}
	if evt.ActorID != 456 {
		t.Errorf("Event ActorID = %v, want %v", evt.ActorID, 456)
	}
	if evt.Payload["role"] != "TEAM_LEADER" {
		t.Errorf("Event Payload[role] = %v, want TEAM_LEADER", evt.Payload["role"])
	}
	if evt.Timestamp.IsZero() {
		t.Error("Event Timestamp should not be zero")
	}
	if time.Since(evt.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
	if evt.CorrelationID == "" {
		t.Error("Event CorrelationID should not be empty")
	}
}

func TestEvent_GetPayloadString(t *testing.T) {
	evt := NewEvent(TypeRequestSubmitted, 1, 1, map[string]interface{}{
		"status": "APPROVED",
		"number": 123,
	})

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"existing string", "status", "APPROVED"},
		{"non-string value", "number", ""},
		{"missing key", "nonexistent", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evt.GetPayloadString(tt.key); got != tt.want {
				t.Errorf("GetPayloadString(%v) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestEvent_GetPayloadInt(t *testing.T) {
	evt := NewEvent(TypeRequestSubmitted, 1, 1, map[string]interface{}{
		"int64":   int64(100),
		"int":     50,
		"float64": 75.5,
		"string":  "not a number",
	})

	tests := []struct {
		name string
		key  string
		want int64
	}{
		{"int64 value", "int64", 100},
		{"int value", "int", 50},
		{"float64 value (converted)", "float64", 75},
		{"non-int value", "string", 0},
		{"missing key", "nonexistent", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evt.GetPayloadInt(tt.key); got != tt.want {
				t.Errorf("GetPayloadInt(%v) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestEvent_UniqueIDs(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		evt := NewEvent(TypeRequestSubmitted, int64(i), 1, nil)
		if ids[evt.ID] {
			t.Errorf("Duplicate event ID found: %s", evt.ID)
		}
		ids[evt.ID] = true
	}
}
