package approver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
	domainwf "github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/workflow"
)

type mockDirectory struct {
	users map[int64]*entity.UserRef
	roles map[string][]int64
	err   error
}

func roleKey(role string, departmentID int64) string {
	return fmt.Sprintf("%s/%d", role, departmentID)
}

func (m *mockDirectory) GetUser(ctx context.Context, userID int64) (*entity.UserRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[userID], nil
}

func (m *mockDirectory) UserHasRole(ctx context.Context, userID int64, role string, departmentID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, id := range m.roles[roleKey(role, departmentID)] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDirectory) FindUsersWithRole(ctx context.Context, role string, departmentID int64) ([]*entity.UserRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []*entity.UserRef
	for _, id := range m.roles[roleKey(role, departmentID)] {
		if u, exists := m.users[id]; exists && u.IsActive {
			result = append(result, u)
		}
	}
	return result, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func newTestResolver(directory *mockDirectory) *Resolver {
	return NewResolver(directory, nopLogger{})
}

func TestResolve_FixedApprover(t *testing.T) {
	fixed := int64(42)
	directory := &mockDirectory{
		users: map[int64]*entity.UserRef{
			42: {ID: 42, Name: "Named Approver", IsActive: true},
		},
	}
	resolver := newTestResolver(directory)

	entry := &entity.ApprovalLedgerEntry{StepSequence: 1, FixedApproverID: &fixed}
	user, err := resolver.Resolve(context.Background(), entry, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 42 {
		t.Errorf("expected fixed approver 42, got %d", user.ID)
	}
}

func TestResolve_FixedApproverInactive(t *testing.T) {
	fixed := int64(42)
	directory := &mockDirectory{
		users: map[int64]*entity.UserRef{
			42: {ID: 42, Name: "Named Approver", IsActive: false},
		},
	}
	resolver := newTestResolver(directory)

	entry := &entity.ApprovalLedgerEntry{StepSequence: 1, FixedApproverID: &fixed}
	_, err := resolver.Resolve(context.Background(), entry, 10)
	if !errors.Is(err, domainwf.ErrApproverUnavailable) {
		t.Errorf("expected ErrApproverUnavailable, got %v", err)
	}
}

func TestResolve_FixedApproverMissing(t *testing.T) {
	fixed := int64(42)
	resolver := newTestResolver(&mockDirectory{users: map[int64]*entity.UserRef{}})

	entry := &entity.ApprovalLedgerEntry{StepSequence: 1, FixedApproverID: &fixed}
	_, err := resolver.Resolve(context.Background(), entry, 10)
	if !errors.Is(err, domainwf.ErrApproverUnavailable) {
		t.Errorf("expected ErrApproverUnavailable, got %v", err)
	}
}

func TestResolve_LowestIDWins(t *testing.T) {
	directory := &mockDirectory{
		users: map[int64]*entity.UserRef{
			7: {ID: 7, Name: "Junior", IsActive: true},
			3: {ID: 3, Name: "Senior", IsActive: true},
			9: {ID: 9, Name: "Newest", IsActive: true},
		},
		roles: map[string][]int64{
			roleKey(entity.RoleHRManager, 10): {9, 7, 3},
		},
	}
	resolver := newTestResolver(directory)

	entry := &entity.ApprovalLedgerEntry{StepSequence: 1, RequiredRole: entity.RoleHRManager}
	user, err := resolver.Resolve(context.Background(), entry, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 3 {
		t.Errorf("expected deterministic lowest-ID pick 3, got %d", user.ID)
	}
}

func TestResolve_EmptyRole(t *testing.T) {
	resolver := newTestResolver(&mockDirectory{roles: map[string][]int64{}})

	entry := &entity.ApprovalLedgerEntry{StepSequence: 1, RequiredRole: entity.RoleCFO}
	user, err := resolver.Resolve(context.Background(), entry, 10)
	if err != nil {
		t.Fatalf("expected no error for an unheld role, got %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user for an unheld role, got %+v", user)
	}
}

func TestResolve_DirectoryError(t *testing.T) {
	dbErr := errors.New("directory down")
	resolver := newTestResolver(&mockDirectory{err: dbErr})

	entry := &entity.ApprovalLedgerEntry{StepSequence: 1, RequiredRole: entity.RoleHRManager}
	_, err := resolver.Resolve(context.Background(), entry, 10)
	if !errors.Is(err, dbErr) {
		t.Errorf("expected wrapped directory error, got %v", err)
	}
}

func TestCanAct_FixedApproverIdentity(t *testing.T) {
	fixed := int64(42)
	directory := &mockDirectory{
		// Even a role holder may not act when the step pins an approver
		roles: map[string][]int64{
			roleKey(entity.RoleTeamLeader, 10): {100},
		},
	}
	resolver := newTestResolver(directory)
	entry := &entity.ApprovalLedgerEntry{StepSequence: 1, RequiredRole: entity.RoleTeamLeader, FixedApproverID: &fixed}

	ok, err := resolver.CanAct(context.Background(), 100, entry, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("role holder must not act on a pinned step")
	}

	ok, err = resolver.CanAct(context.Background(), 42, entry, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("pinned approver must be allowed to act")
	}
}

func TestCanAct_RoleCheck(t *testing.T) {
	directory := &mockDirectory{
		roles: map[string][]int64{
			roleKey(entity.RoleTeamLeader, 10): {100},
		},
	}
	resolver := newTestResolver(directory)
	entry := &entity.ApprovalLedgerEntry{StepSequence: 1, RequiredRole: entity.RoleTeamLeader}

	ok, err := resolver.CanAct(context.Background(), 100, entry, 10)
	if err != nil || !ok {
		t.Errorf("expected role holder to act, got ok=%v err=%v", ok, err)
	}

	ok, err = resolver.CanAct(context.Background(), 200, entry, 10)
	if err != nil || ok {
		t.Errorf("expected non-holder to be denied, got ok=%v err=%v", ok, err)
	}
}
