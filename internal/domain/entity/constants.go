package entity

// Request type constants
const (
	RequestTypeLeave   = "LEAVE"
	RequestTypeMission = "MISSION"
)

// Status constants for Request
const (
	StatusDraft     = "DRAFT"
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

// Decision constants for ApprovalLedgerEntry
const (
	DecisionPending  = "PENDING"
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
)

// Well-known approver roles. Templates may name any role string; these cover
// the standard departmental chains.
const (
	RoleTeamLeader = "TEAM_LEADER"
	RoleHRManager  = "HR_MANAGER"
	RoleCFO        = "CFO"
	RoleCEO        = "CEO"
)

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// IsValidRequestType reports whether t is a supported request type
func IsValidRequestType(t string) bool {
	return t == RequestTypeLeave || t == RequestTypeMission
}
