// Package approver translates a workflow step's required role into a concrete
// decision-maker, and answers authorization checks for the engine.
package approver

import (
	"context"
	"fmt"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/port"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
	domainwf "github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Resolver finds eligible approvers for ledger entries
type Resolver struct {
	directory port.DirectoryService
	logger    Logger
}

// NewResolver creates a new Resolver
func NewResolver(directory port.DirectoryService, logger Logger) *Resolver {
	return &Resolver{
		directory: directory,
		logger:    logger,
	}
}

// Resolve returns the approver for a step. A fixed-approver override is
// returned directly; an inactive or missing override surfaces
// ErrApproverUnavailable rather than silently picking someone else. For
// role-based steps the active user with the lowest ID wins, so repeated
// resolution is deterministic. (nil, nil) means no one currently holds the
// role; the workflow still advances, the step just has no notification target.
func (r *Resolver) Resolve(ctx context.Context, entry *entity.ApprovalLedgerEntry, departmentID int64) (*entity.UserRef, error) {
	if entry.FixedApproverID != nil {
		user, err := r.directory.GetUser(ctx, *entry.FixedApproverID)
		if err != nil {
			return nil, fmt.Errorf("lookup fixed approver %d: %w", *entry.FixedApproverID, err)
		}
		if user == nil || !user.IsActive {
			return nil, fmt.Errorf("%w: fixed approver %d for step %d", domainwf.ErrApproverUnavailable, *entry.FixedApproverID, entry.StepSequence)
		}
		return user, nil
	}

	users, err := r.directory.FindUsersWithRole(ctx, entry.RequiredRole, departmentID)
	if err != nil {
		return nil, fmt.Errorf("find users with role %s: %w", entry.RequiredRole, err)
	}
	if len(users) == 0 {
		r.logger.Warn("No approver holds required role; step has no notification target",
			"role", entry.RequiredRole,
			"department_id", departmentID,
			"request_id", entry.RequestID,
			"step_sequence", entry.StepSequence,
		)
		return nil, nil
	}

	chosen := users[0]
	for _, u := range users[1:] {
		if u.ID < chosen.ID {
			chosen = u
		}
	}
	return chosen, nil
}

// CanAct reports whether the user may decide the given step in the given
// department. A fixed-approver override requires exact identity and bypasses
// the role check entirely.
func (r *Resolver) CanAct(ctx context.Context, userID int64, entry *entity.ApprovalLedgerEntry, departmentID int64) (bool, error) {
	if entry.FixedApproverID != nil {
		return userID == *entry.FixedApproverID, nil
	}

	ok, err := r.directory.UserHasRole(ctx, userID, entry.RequiredRole, departmentID)
	if err != nil {
		return false, fmt.Errorf("check role %s for user %d: %w", entry.RequiredRole, userID, err)
	}
	return ok, nil
}
