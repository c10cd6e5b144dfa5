package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/approver"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/workflow"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
	domainwf "github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/workflow"
)

// Shared mocks for the service tests

type mockEngine struct {
	initializeFunc func(ctx context.Context, requestID int64) (*entity.Request, error)
	decideFunc     func(ctx context.Context, requestID, actorID int64, decision workflow.Decision, comments string) (*entity.Request, error)
	cancelFunc     func(ctx context.Context, requestID, actorID int64) (*entity.Request, error)
	getFunc        func(ctx context.Context, requestID int64) (*workflow.RequestWithLedger, error)
}

func (m *mockEngine) InitializeWorkflow(ctx context.Context, requestID int64) (*entity.Request, error) {
	return m.initializeFunc(ctx, requestID)
}

func (m *mockEngine) ProcessDecision(ctx context.Context, requestID, actorID int64, decision workflow.Decision, comments string) (*entity.Request, error) {
	return m.decideFunc(ctx, requestID, actorID, decision, comments)
}

func (m *mockEngine) CancelRequest(ctx context.Context, requestID, actorID int64) (*entity.Request, error) {
	return m.cancelFunc(ctx, requestID, actorID)
}

func (m *mockEngine) GetRequest(ctx context.Context, requestID int64) (*workflow.RequestWithLedger, error) {
	return m.getFunc(ctx, requestID)
}

type mockRequestRepo struct {
	requests map[int64]*entity.Request
	nextID   int64
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: make(map[int64]*entity.Request), nextID: 1}
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.Request) error {
	req.ID = m.nextID
	m.nextID++
	m.requests[req.ID] = req
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*entity.Request, error) {
	req, exists := m.requests[id]
	if !exists {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (m *mockRequestRepo) ListByRequester(ctx context.Context, requesterID int64, limit, offset int) ([]*entity.Request, error) {
	var result []*entity.Request
	for _, req := range m.requests {
		if req.RequesterID == requesterID {
			result = append(result, req)
		}
	}
	return result, nil
}

func (m *mockRequestRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Request, error) {
	var result []*entity.Request
	for _, req := range m.requests {
		if req.Status == status {
			result = append(result, req)
		}
	}
	return result, nil
}

func (m *mockRequestRepo) MarkSubmitted(ctx context.Context, id, templateID int64, firstStep int, at time.Time) (int64, error) {
	return 1, nil
}

func (m *mockRequestRepo) AdvanceStep(ctx context.Context, id int64, step int) (int64, error) {
	return 1, nil
}

func (m *mockRequestRepo) Finalize(ctx context.Context, id int64, status string, decidedBy int64, at time.Time) (int64, error) {
	return 1, nil
}

func (m *mockRequestRepo) Cancel(ctx context.Context, id int64, at time.Time) (int64, error) {
	return 1, nil
}

func (m *mockRequestRepo) SetDocumentRef(ctx context.Context, id int64, ref string) error {
	if req, exists := m.requests[id]; exists {
		req.DocumentRef = ref
	}
	return nil
}

type mockLedgerRepo struct {
	entries []*entity.ApprovalLedgerEntry
}

func (m *mockLedgerRepo) CreateBatch(ctx context.Context, entries []*entity.ApprovalLedgerEntry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockLedgerRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.ApprovalLedgerEntry, error) {
	var result []*entity.ApprovalLedgerEntry
	for _, e := range m.entries {
		if e.RequestID == requestID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockLedgerRepo) GetByRequestAndSequence(ctx context.Context, requestID int64, sequence int) (*entity.ApprovalLedgerEntry, error) {
	for _, e := range m.entries {
		if e.RequestID == requestID && e.StepSequence == sequence {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockLedgerRepo) Decide(ctx context.Context, requestID int64, sequence int, decision string, approverID int64, comments string, at time.Time) (int64, error) {
	return 1, nil
}

type mockDirectory struct {
	roles map[string][]int64
}

func roleKey(role string, departmentID int64) string {
	return fmt.Sprintf("%s/%d", role, departmentID)
}

func (m *mockDirectory) GetUser(ctx context.Context, userID int64) (*entity.UserRef, error) {
	return nil, nil
}

func (m *mockDirectory) UserHasRole(ctx context.Context, userID int64, role string, departmentID int64) (bool, error) {
	for _, id := range m.roles[roleKey(role, departmentID)] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDirectory) FindUsersWithRole(ctx context.Context, role string, departmentID int64) ([]*entity.UserRef, error) {
	return nil, nil
}

type mockDocumentStore struct {
	saved   map[string][]byte
	saveErr error
}

func newMockDocumentStore() *mockDocumentStore {
	return &mockDocumentStore{saved: make(map[string][]byte)}
}

func (m *mockDocumentStore) Save(ctx context.Context, requestID int64, filename string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	ref := fmt.Sprintf("request_%d/%s", requestID, filename)
	m.saved[ref] = data
	return ref, nil
}

func (m *mockDocumentStore) Read(ctx context.Context, ref string) ([]byte, error) {
	data, exists := m.saved[ref]
	if !exists {
		return nil, fmt.Errorf("no such document: %s", ref)
	}
	return data, nil
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// Fixture

type requestServiceFixture struct {
	service   RequestService
	engine    *mockEngine
	requests  *mockRequestRepo
	ledger    *mockLedgerRepo
	directory *mockDirectory
	documents *mockDocumentStore
}

func newRequestServiceFixture() *requestServiceFixture {
	engine := &mockEngine{}
	requests := newMockRequestRepo()
	ledger := &mockLedgerRepo{}
	directory := &mockDirectory{roles: map[string][]int64{}}
	documents := newMockDocumentStore()
	resolver := approver.NewResolver(directory, nopLogger{})

	return &requestServiceFixture{
		service:   NewRequestService(engine, requests, ledger, resolver, documents, nopLogger{}),
		engine:    engine,
		requests:  requests,
		ledger:    ledger,
		directory: directory,
		documents: documents,
	}
}

func leaveInput() CreateRequestInput {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	return CreateRequestInput{
		RequesterID:  1,
		DepartmentID: 10,
		RequestType:  entity.RequestTypeLeave,
		StartDate:    &start,
		EndDate:      &end,
		Reason:       "Annual leave",
	}
}

func missionInput() CreateRequestInput {
	return CreateRequestInput{
		RequesterID:  1,
		DepartmentID: 10,
		RequestType:  entity.RequestTypeMission,
		Destination:  "Berlin",
		Purpose:      "Vendor audit",
		BudgetCents:  250000,
	}
}

// Tests

func TestCreateDraft_Leave(t *testing.T) {
	f := newRequestServiceFixture()

	req, err := f.service.CreateDraft(context.Background(), leaveInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Status != entity.StatusDraft {
		t.Errorf("expected DRAFT, got %s", req.Status)
	}
	if req.ID == 0 {
		t.Error("expected assigned ID")
	}
	if req.Reason != "Annual leave" {
		t.Errorf("payload not carried: %q", req.Reason)
	}
}

func TestCreateDraft_Mission(t *testing.T) {
	f := newRequestServiceFixture()

	req, err := f.service.CreateDraft(context.Background(), missionInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Destination != "Berlin" || req.BudgetCents != 250000 {
		t.Errorf("mission payload not carried: %+v", req)
	}
}

func TestCreateDraft_Validation(t *testing.T) {
	badLeaveDates := leaveInput()
	badLeaveDates.StartDate, badLeaveDates.EndDate = badLeaveDates.EndDate, badLeaveDates.StartDate

	missingReason := leaveInput()
	missingReason.Reason = ""

	missingDestination := missionInput()
	missingDestination.Destination = ""

	negativeBudget := missionInput()
	negativeBudget.BudgetCents = -1

	noRequester := leaveInput()
	noRequester.RequesterID = 0

	wrongType := leaveInput()
	wrongType.RequestType = "SABBATICAL"

	tests := []struct {
		name  string
		input CreateRequestInput
	}{
		{"end date before start date", badLeaveDates},
		{"leave without reason", missingReason},
		{"mission without destination", missingDestination},
		{"negative budget", negativeBudget},
		{"missing requester", noRequester},
		{"unsupported type", wrongType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRequestServiceFixture()
			if _, err := f.service.CreateDraft(context.Background(), tt.input); err == nil {
				t.Error("expected validation error, got none")
			}
		})
	}
}

func TestSubmit_OwnerOnly(t *testing.T) {
	f := newRequestServiceFixture()
	req, _ := f.service.CreateDraft(context.Background(), leaveInput())

	_, err := f.service.Submit(context.Background(), req.ID, 999)
	if !errors.Is(err, domainwf.ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestSubmit_DelegatesToEngine(t *testing.T) {
	f := newRequestServiceFixture()
	req, _ := f.service.CreateDraft(context.Background(), leaveInput())

	var engineCalled bool
	f.engine.initializeFunc = func(ctx context.Context, requestID int64) (*entity.Request, error) {
		engineCalled = true
		if requestID != req.ID {
			t.Errorf("expected request %d, got %d", req.ID, requestID)
		}
		return req, nil
	}

	if _, err := f.service.Submit(context.Background(), req.ID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !engineCalled {
		t.Error("expected engine to be invoked")
	}
}

func TestSubmit_NotFound(t *testing.T) {
	f := newRequestServiceFixture()

	_, err := f.service.Submit(context.Background(), 12345, 1)
	if !errors.Is(err, domainwf.ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestListPendingForApprover(t *testing.T) {
	f := newRequestServiceFixture()
	f.directory.roles[roleKey(entity.RoleTeamLeader, 10)] = []int64{100}

	// Pending request whose current step awaits a team leader
	actionable := &entity.Request{
		RequesterID: 1, DepartmentID: 10, RequestType: entity.RequestTypeLeave,
		Status: entity.StatusPending, CurrentStepSequence: 1,
	}
	f.requests.Create(context.Background(), actionable)
	f.ledger.entries = append(f.ledger.entries, &entity.ApprovalLedgerEntry{
		RequestID: actionable.ID, StepSequence: 1,
		RequiredRole: entity.RoleTeamLeader, Decision: entity.DecisionPending,
	})

	// Pending request at an HR step the team leader cannot decide
	foreign := &entity.Request{
		RequesterID: 2, DepartmentID: 10, RequestType: entity.RequestTypeLeave,
		Status: entity.StatusPending, CurrentStepSequence: 2,
	}
	f.requests.Create(context.Background(), foreign)
	f.ledger.entries = append(f.ledger.entries, &entity.ApprovalLedgerEntry{
		RequestID: foreign.ID, StepSequence: 2,
		RequiredRole: entity.RoleHRManager, Decision: entity.DecisionPending,
	})

	// Draft requests never show up in anyone's inbox
	f.requests.Create(context.Background(), &entity.Request{
		RequesterID: 3, DepartmentID: 10, RequestType: entity.RequestTypeLeave,
		Status: entity.StatusDraft,
	})

	inbox, err := f.service.ListPendingForApprover(context.Background(), 100, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("expected 1 inbox item, got %d", len(inbox))
	}
	if inbox[0].Request.ID != actionable.ID {
		t.Errorf("expected request %d, got %d", actionable.ID, inbox[0].Request.ID)
	}
	if inbox[0].Step.RequiredRole != entity.RoleTeamLeader {
		t.Errorf("expected team-leader step, got %s", inbox[0].Step.RequiredRole)
	}
}

func TestListPendingForApprover_SkipsDecidedStep(t *testing.T) {
	f := newRequestServiceFixture()
	f.directory.roles[roleKey(entity.RoleTeamLeader, 10)] = []int64{100}

	stale := &entity.Request{
		RequesterID: 1, DepartmentID: 10, RequestType: entity.RequestTypeLeave,
		Status: entity.StatusPending, CurrentStepSequence: 1,
	}
	f.requests.Create(context.Background(), stale)
	f.ledger.entries = append(f.ledger.entries, &entity.ApprovalLedgerEntry{
		RequestID: stale.ID, StepSequence: 1,
		RequiredRole: entity.RoleTeamLeader, Decision: entity.DecisionApproved,
	})

	inbox, err := f.service.ListPendingForApprover(context.Background(), 100, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inbox) != 0 {
		t.Errorf("decided step must not appear in the inbox, got %d items", len(inbox))
	}
}

func TestAttachDocument(t *testing.T) {
	f := newRequestServiceFixture()
	req, _ := f.service.CreateDraft(context.Background(), leaveInput())

	updated, err := f.service.AttachDocument(context.Background(), req.ID, 1, "medical_note.pdf", []byte("pdf bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.DocumentRef == "" {
		t.Fatal("expected document ref recorded")
	}

	data, err := f.documents.Read(context.Background(), updated.DocumentRef)
	if err != nil {
		t.Fatalf("stored document unreadable: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("stored bytes mismatch: %q", data)
	}
}

func TestAttachDocument_OwnerOnly(t *testing.T) {
	f := newRequestServiceFixture()
	req, _ := f.service.CreateDraft(context.Background(), leaveInput())

	_, err := f.service.AttachDocument(context.Background(), req.ID, 999, "doc.pdf", []byte("x"))
	if !errors.Is(err, domainwf.ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestAttachDocument_TerminalRequest(t *testing.T) {
	f := newRequestServiceFixture()
	req, _ := f.service.CreateDraft(context.Background(), leaveInput())
	f.requests.requests[req.ID].Status = entity.StatusApproved

	_, err := f.service.AttachDocument(context.Background(), req.ID, 1, "doc.pdf", []byte("x"))
	if !errors.Is(err, domainwf.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestAttachDocument_StoreFailure(t *testing.T) {
	f := newRequestServiceFixture()
	req, _ := f.service.CreateDraft(context.Background(), leaveInput())
	f.documents.saveErr = errors.New("disk full")

	_, err := f.service.AttachDocument(context.Background(), req.ID, 1, "doc.pdf", []byte("x"))
	if err == nil {
		t.Fatal("expected storage error to propagate")
	}
	if got, _ := f.requests.GetByID(context.Background(), req.ID); got.DocumentRef != "" {
		t.Errorf("failed save must not record a ref, got %q", got.DocumentRef)
	}
}
