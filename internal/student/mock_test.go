package student

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/edurecords/internal/auth"
	"github.com/hitoshi/edurecords/internal/model"
)

// --- モック ---

type mockStudentRepo struct {
	findByIDFn     func(ctx context.Context, id string) (*model.Student, error)
	listBySchoolFn func(ctx context.Context, schoolID string, limit, offset int) ([]*model.Student, error)
	createFn       func(ctx context.Context, student *model.Student) error
	updateFn       func(ctx context.Context, student *model.Student) error
	deleteByIDFn   func(ctx context.Context, id string) error
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*model.Student, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockStudentRepo) ListBySchool(ctx context.Context, schoolID string, limit, offset int) ([]*model.Student, error) {
	if m.listBySchoolFn != nil {
		return m.listBySchoolFn(ctx, schoolID, limit, offset)
	}
	return []*model.Student{}, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *model.Student) error {
	if m.createFn != nil {
		return m.createFn(ctx, student)
	}
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *model.Student) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, student)
	}
	return nil
}

func (m *mockStudentRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockClassRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.Class, error)
	createFn     func(ctx context.Context, class *model.Class) error
	updateFn     func(ctx context.Context, class *model.Class) error
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*model.Class, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *model.Class) error {
	if m.createFn != nil {
		return m.createFn(ctx, class)
	}
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *model.Class) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, class)
	}
	return nil
}

func (m *mockClassRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockScheduleRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.Schedule, error)
	createFn     func(ctx context.Context, schedule *model.Schedule) error
	updateFn     func(ctx context.Context, schedule *model.Schedule) error
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*model.Schedule, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockScheduleRepo) Create(ctx context.Context, schedule *model.Schedule) error {
	if m.createFn != nil {
		return m.createFn(ctx, schedule)
	}
	return nil
}

func (m *mockScheduleRepo) Update(ctx context.Context, schedule *model.Schedule) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, schedule)
	}
	return nil
}

func (m *mockScheduleRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

// --- ヘルパー ---

const (
	schoolA = "aaaaaaaa-0000-0000-0000-000000000001"
	schoolB = "bbbbbbbb-0000-0000-0000-000000000002"
)

var fixedNow = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// tenantUser はschoolに所属する一般ユーザーのIdentityを返す。
func tenantUser(school string) *auth.Identity {
	return &auth.Identity{UserID: "user-1", Email: "staff@example.com", Active: true, TenantID: school}
}

func adminUser() *auth.Identity {
	return &auth.Identity{UserID: "admin-1", Email: "admin@example.com", Active: true, Admin: true, TenantID: schoolA}
}

// studentsIn は固定の学生をschoolに所属させて返すリポジトリを生成する。
func studentsIn(school string) *mockStudentRepo {
	return &mockStudentRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Student, error) {
			return &model.Student{
				ID: id, FirstName: "Ada", LastName: "Lovelace", Program: "Math",
				UserID: "user-1", SchoolID: school,
			}, nil
		},
	}
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError with code %s, got %v", code, err)
	}
	if apiErr.Code != code {
		t.Errorf("error code = %q, want %q", apiErr.Code, code)
	}
}
