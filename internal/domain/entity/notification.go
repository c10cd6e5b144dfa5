package entity

import "time"

// Notification is one best-effort delivery to a recipient, persisted so
// failures are observable without ever blocking workflow commits.
type Notification struct {
	ID          int64      `json:"id"`
	RecipientID int64      `json:"recipient_id"`
	RequestID   int64      `json:"request_id"`
	EventType   string     `json:"event_type"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	ErrorMsg    string     `json:"error_msg,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
