package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
	domainwf "github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/workflow"
)

type mockTemplateRepo struct {
	templates []*entity.WorkflowTemplate
}

func (m *mockTemplateRepo) Create(ctx context.Context, tpl *entity.WorkflowTemplate) error {
	tpl.ID = int64(len(m.templates) + 1)
	m.templates = append(m.templates, tpl)
	return nil
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, id int64) (*entity.WorkflowTemplate, error) {
	for _, tpl := range m.templates {
		if tpl.ID == id {
			return tpl, nil
		}
	}
	return nil, nil
}

func (m *mockTemplateRepo) List(ctx context.Context, limit, offset int) ([]*entity.WorkflowTemplate, error) {
	return m.templates, nil
}

func (m *mockTemplateRepo) FindActive(ctx context.Context, departmentID int64, requestType string) ([]*entity.WorkflowTemplate, error) {
	var result []*entity.WorkflowTemplate
	for _, tpl := range m.templates {
		if tpl.IsActive && tpl.DepartmentID == departmentID && tpl.RequestType == requestType {
			result = append(result, tpl)
		}
	}
	return result, nil
}

func (m *mockTemplateRepo) Deactivate(ctx context.Context, id int64) error {
	for _, tpl := range m.templates {
		if tpl.ID == id {
			tpl.IsActive = false
		}
	}
	return nil
}

func newTemplateServiceFixture() (TemplateService, *mockTemplateRepo) {
	repo := &mockTemplateRepo{}
	return NewTemplateService(repo, &mockTxManager{}, nopLogger{}), repo
}

func validTemplateInput() CreateTemplateInput {
	return CreateTemplateInput{
		Name:         "Standard leave",
		DepartmentID: 10,
		RequestType:  entity.RequestTypeLeave,
		Steps: []StepInput{
			{Sequence: 1, RequiredRole: entity.RoleTeamLeader, IsRequired: true},
			{Sequence: 2, RequiredRole: entity.RoleHRManager, IsRequired: true},
		},
	}
}

func TestCreateTemplate(t *testing.T) {
	svc, repo := newTemplateServiceFixture()

	tpl, err := svc.Create(context.Background(), validTemplateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tpl.IsActive {
		t.Error("new template should be active")
	}
	if len(tpl.Steps) != 2 {
		t.Errorf("expected 2 steps, got %d", len(tpl.Steps))
	}
	if len(repo.templates) != 1 {
		t.Errorf("expected 1 stored template, got %d", len(repo.templates))
	}
}

func TestCreateTemplate_MissingName(t *testing.T) {
	svc, _ := newTemplateServiceFixture()

	input := validTemplateInput()
	input.Name = ""
	if _, err := svc.Create(context.Background(), input); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestCreateTemplate_UnsupportedType(t *testing.T) {
	svc, _ := newTemplateServiceFixture()

	input := validTemplateInput()
	input.RequestType = "SABBATICAL"
	if _, err := svc.Create(context.Background(), input); err == nil {
		t.Error("expected error for unsupported request type")
	}
}

func TestCreateTemplate_MalformedSteps(t *testing.T) {
	noSteps := validTemplateInput()
	noSteps.Steps = nil

	gap := validTemplateInput()
	gap.Steps = []StepInput{
		{Sequence: 1, RequiredRole: entity.RoleTeamLeader, IsRequired: true},
		{Sequence: 3, RequiredRole: entity.RoleHRManager, IsRequired: true},
	}

	noTarget := validTemplateInput()
	noTarget.Steps = []StepInput{
		{Sequence: 1, IsRequired: true},
	}

	tests := []struct {
		name  string
		input CreateTemplateInput
	}{
		{"no steps", noSteps},
		{"sequence gap", gap},
		{"step without role or approver", noTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTemplateServiceFixture()
			_, err := svc.Create(context.Background(), tt.input)
			if !errors.Is(err, domainwf.ErrMalformedWorkflow) {
				t.Errorf("expected ErrMalformedWorkflow, got %v", err)
			}
		})
	}
}

func TestCreateTemplate_DuplicateActive(t *testing.T) {
	svc, _ := newTemplateServiceFixture()

	if _, err := svc.Create(context.Background(), validTemplateInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(context.Background(), validTemplateInput())
	if !errors.Is(err, domainwf.ErrAmbiguousConfiguration) {
		t.Errorf("expected ErrAmbiguousConfiguration, got %v", err)
	}
}

func TestCreateTemplate_ReplaceAfterDeactivate(t *testing.T) {
	svc, _ := newTemplateServiceFixture()

	first, err := svc.Create(context.Background(), validTemplateInput())
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := svc.Deactivate(context.Background(), first.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	second, err := svc.Create(context.Background(), validTemplateInput())
	if err != nil {
		t.Fatalf("create after deactivate: %v", err)
	}
	if second.ID == first.ID {
		t.Error("replacement should be a new template")
	}
}

func TestCreateTemplate_SamePairDifferentDepartment(t *testing.T) {
	svc, _ := newTemplateServiceFixture()

	if _, err := svc.Create(context.Background(), validTemplateInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}

	other := validTemplateInput()
	other.DepartmentID = 20
	if _, err := svc.Create(context.Background(), other); err != nil {
		t.Errorf("different department must not conflict: %v", err)
	}

	mission := validTemplateInput()
	mission.RequestType = entity.RequestTypeMission
	if _, err := svc.Create(context.Background(), mission); err != nil {
		t.Errorf("different request type must not conflict: %v", err)
	}
}
