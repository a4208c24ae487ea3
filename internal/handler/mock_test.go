package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/edurecords/internal/auth"
	"github.com/hitoshi/edurecords/internal/model"
	"github.com/hitoshi/edurecords/internal/school"
	"github.com/hitoshi/edurecords/internal/student"
	"github.com/hitoshi/edurecords/internal/user"
)

// --- モック定義 ---

type mockAuthService struct {
	loginFn func(ctx context.Context, creds auth.Credentials) (string, error)
}

func (m *mockAuthService) Login(ctx context.Context, creds auth.Credentials) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, creds)
	}
	return "", nil
}

type mockUserService struct {
	registerFn       func(ctx context.Context, in user.RegisterInput) (*model.User, error)
	getFn            func(ctx context.Context, caller *auth.Identity, id string) (*model.User, error)
	updateFn         func(ctx context.Context, caller *auth.Identity, id string, in user.UpdateInput) (*model.User, error)
	deleteFn         func(ctx context.Context, caller *auth.Identity, id string) error
	changePasswordFn func(ctx context.Context, caller *auth.Identity, id, oldPassword, newPassword string) error
}

func (m *mockUserService) Register(ctx context.Context, in user.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return &model.User{ID: "u", Email: in.Email, IsActive: true}, nil
}

func (m *mockUserService) Get(ctx context.Context, caller *auth.Identity, id string) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, caller, id)
	}
	return &model.User{ID: id}, nil
}

func (m *mockUserService) Update(ctx context.Context, caller *auth.Identity, id string, in user.UpdateInput) (*model.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, caller, id, in)
	}
	return &model.User{ID: id}, nil
}

func (m *mockUserService) Delete(ctx context.Context, caller *auth.Identity, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, caller, id)
	}
	return nil
}

func (m *mockUserService) ChangePassword(ctx context.Context, caller *auth.Identity, id, oldPassword, newPassword string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(ctx, caller, id, oldPassword, newPassword)
	}
	return nil
}

type mockSchoolService struct {
	createFn func(ctx context.Context, in school.Input) (*model.School, error)
	getFn    func(ctx context.Context, id string) (*model.School, error)
	listFn   func(ctx context.Context, limit, offset int) ([]*model.School, error)
	updateFn func(ctx context.Context, id string, in school.Input) (*model.School, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockSchoolService) Create(ctx context.Context, in school.Input) (*model.School, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.School{ID: "s", Name: in.Name, Website: in.Website}, nil
}

func (m *mockSchoolService) Get(ctx context.Context, id string) (*model.School, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.School{ID: id}, nil
}

func (m *mockSchoolService) List(ctx context.Context, limit, offset int) ([]*model.School, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return []*model.School{}, nil
}

func (m *mockSchoolService) Update(ctx context.Context, id string, in school.Input) (*model.School, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &model.School{ID: id, Name: in.Name, Website: in.Website}, nil
}

func (m *mockSchoolService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockStudentService struct {
	createFn       func(ctx context.Context, caller *auth.Identity, in student.CreateInput) (*model.Student, error)
	getFn          func(ctx context.Context, caller *auth.Identity, id string) (*model.Student, error)
	listBySchoolFn func(ctx context.Context, caller *auth.Identity, schoolID string, limit, offset int) ([]*model.Student, error)
	updateFn       func(ctx context.Context, caller *auth.Identity, id string, in student.UpdateInput) (*model.Student, error)
	deleteFn       func(ctx context.Context, caller *auth.Identity, id string) error
}

func (m *mockStudentService) Create(ctx context.Context, caller *auth.Identity, in student.CreateInput) (*model.Student, error) {
	if m.createFn != nil {
		return m.createFn(ctx, caller, in)
	}
	return &model.Student{ID: "st", SchoolID: in.SchoolID}, nil
}

func (m *mockStudentService) Get(ctx context.Context, caller *auth.Identity, id string) (*model.Student, error) {
	if m.getFn != nil {
		return m.getFn(ctx, caller, id)
	}
	return &model.Student{ID: id}, nil
}

func (m *mockStudentService) ListBySchool(ctx context.Context, caller *auth.Identity, schoolID string, limit, offset int) ([]*model.Student, error) {
	if m.listBySchoolFn != nil {
		return m.listBySchoolFn(ctx, caller, schoolID, limit, offset)
	}
	return []*model.Student{}, nil
}

func (m *mockStudentService) Update(ctx context.Context, caller *auth.Identity, id string, in student.UpdateInput) (*model.Student, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, caller, id, in)
	}
	return &model.Student{ID: id}, nil
}

func (m *mockStudentService) Delete(ctx context.Context, caller *auth.Identity, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, caller, id)
	}
	return nil
}

type mockClassService struct {
	createFn func(ctx context.Context, caller *auth.Identity, in student.ClassInput) (*model.Class, error)
	getFn    func(ctx context.Context, caller *auth.Identity, id string) (*model.Class, error)
	updateFn func(ctx context.Context, caller *auth.Identity, id string, in student.ClassInput) (*model.Class, error)
	deleteFn func(ctx context.Context, caller *auth.Identity, id string) error
}

func (m *mockClassService) Create(ctx context.Context, caller *auth.Identity, in student.ClassInput) (*model.Class, error) {
	if m.createFn != nil {
		return m.createFn(ctx, caller, in)
	}
	return &model.Class{ID: "cl", Name: in.Name, StudentID: in.StudentID}, nil
}

func (m *mockClassService) Get(ctx context.Context, caller *auth.Identity, id string) (*model.Class, error) {
	if m.getFn != nil {
		return m.getFn(ctx, caller, id)
	}
	return &model.Class{ID: id}, nil
}

func (m *mockClassService) Update(ctx context.Context, caller *auth.Identity, id string, in student.ClassInput) (*model.Class, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, caller, id, in)
	}
	return &model.Class{ID: id, Name: in.Name, StudentID: in.StudentID}, nil
}

func (m *mockClassService) Delete(ctx context.Context, caller *auth.Identity, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, caller, id)
	}
	return nil
}

type mockScheduleService struct {
	createFn func(ctx context.Context, caller *auth.Identity, in student.ScheduleInput) (*model.Schedule, error)
	getFn    func(ctx context.Context, caller *auth.Identity, id string) (*model.Schedule, error)
	updateFn func(ctx context.Context, caller *auth.Identity, id string, in student.ScheduleInput) (*model.Schedule, error)
	deleteFn func(ctx context.Context, caller *auth.Identity, id string) error
}

func (m *mockScheduleService) Create(ctx context.Context, caller *auth.Identity, in student.ScheduleInput) (*model.Schedule, error) {
	if m.createFn != nil {
		return m.createFn(ctx, caller, in)
	}
	return &model.Schedule{ID: "sc", StudentID: in.StudentID, ClassID: in.ClassID, DayOfWeek: int16(in.DayOfWeek)}, nil
}

func (m *mockScheduleService) Get(ctx context.Context, caller *auth.Identity, id string) (*model.Schedule, error) {
	if m.getFn != nil {
		return m.getFn(ctx, caller, id)
	}
	return &model.Schedule{ID: id}, nil
}

func (m *mockScheduleService) Update(ctx context.Context, caller *auth.Identity, id string, in student.ScheduleInput) (*model.Schedule, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, caller, id, in)
	}
	return &model.Schedule{ID: id}, nil
}

func (m *mockScheduleService) Delete(ctx context.Context, caller *auth.Identity, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, caller, id)
	}
	return nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}

// --- テストヘルパー ---

const (
	testUserID   = "11111111-1111-4111-8111-111111111111"
	testOtherID  = "22222222-2222-4222-8222-222222222222"
	testSchoolID = "33333333-3333-4333-8333-333333333333"
	testEntityID = "44444444-4444-4444-8444-444444444444"
)

// withIdentity はテスト用にリクエストコンテキストに認証主体を注入するヘルパー。
func withIdentity(r *http.Request, identity *auth.Identity) *http.Request {
	return r.WithContext(auth.ContextWithIdentity(r.Context(), identity))
}

func activeIdentity() *auth.Identity {
	return &auth.Identity{UserID: testUserID, Email: "user@example.com", Active: true, TenantID: testSchoolID}
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// assertErrorCode はステータスコードとエラーコードを検証するヘルパー。
func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Errorf("status = %d, want %d (body: %s)", w.Code, status, w.Body.String())
		return
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != code {
		t.Errorf("code = %q, want %q", body["code"], code)
	}
}
