package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/edurecords/internal/auth"
	"github.com/hitoshi/edurecords/internal/model"
	"github.com/hitoshi/edurecords/internal/student"
)

// StudentServiceInterface は学生ハンドラーが必要とするサービスインターフェース。
type StudentServiceInterface interface {
	Create(ctx context.Context, caller *auth.Identity, in student.CreateInput) (*model.Student, error)
	Get(ctx context.Context, caller *auth.Identity, id string) (*model.Student, error)
	ListBySchool(ctx context.Context, caller *auth.Identity, schoolID string, limit, offset int) ([]*model.Student, error)
	Update(ctx context.Context, caller *auth.Identity, id string, in student.UpdateInput) (*model.Student, error)
	Delete(ctx context.Context, caller *auth.Identity, id string) error
}

// StudentHandler は学生管理のHTTPハンドラー。
type StudentHandler struct {
	service StudentServiceInterface
}

// NewStudentHandler はStudentHandlerを生成する。
func NewStudentHandler(service StudentServiceInterface) *StudentHandler {
	return &StudentHandler{service: service}
}

type createStudentRequest struct {
	FirstName  string  `json:"first_name" validate:"required,max=255"`
	LastName   string  `json:"last_name" validate:"required,max=255"`
	Program    string  `json:"program" validate:"required,max=255"`
	Department *string `json:"department" validate:"omitempty,max=255"`
	UserID     string  `json:"user_id" validate:"omitempty,uuid"`
	SchoolID   string  `json:"school_id" validate:"required,uuid"`
}

type updateStudentRequest struct {
	FirstName  *string `json:"first_name" validate:"omitempty,max=255"`
	LastName   *string `json:"last_name" validate:"omitempty,max=255"`
	Program    *string `json:"program" validate:"omitempty,max=255"`
	Department *string `json:"department" validate:"omitempty,max=255"`
	SchoolID   *string `json:"school_id" validate:"omitempty,uuid"`
}

type studentResponse struct {
	ID         string     `json:"id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Program    string     `json:"program"`
	Department *string    `json:"department,omitempty"`
	UserID     string     `json:"user_id"`
	SchoolID   string     `json:"school_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

type studentListResponse struct {
	Students []studentResponse `json:"students"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

func toStudentResponse(s *model.Student) studentResponse {
	return studentResponse{
		ID:         s.ID,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
		Program:    s.Program,
		Department: s.Department,
		UserID:     s.UserID,
		SchoolID:   s.SchoolID,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// CreateStudent は学生を作成する。
// POST /students
func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req createStudentRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	s, err := h.service.Create(r.Context(), identity, student.CreateInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Program:    req.Program,
		Department: req.Department,
		UserID:     req.UserID,
		SchoolID:   req.SchoolID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toStudentResponse(s))
}

// GetStudent は学生を返す。
// GET /students/{id}
func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	s, err := h.service.Get(r.Context(), identity, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStudentResponse(s))
}

// ListSchoolStudents は学校に在籍する学生の一覧を返す。
// GET /schools/{id}/students
func (h *StudentHandler) ListSchoolStudents(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	schoolID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	limit, offset, apiErr := parsePage(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	students, err := h.service.ListBySchool(r.Context(), identity, schoolID, limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := studentListResponse{
		Students: make([]studentResponse, len(students)),
		Limit:    limit,
		Offset:   offset,
	}
	for i, s := range students {
		resp.Students[i] = toStudentResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStudent は学生情報を部分更新する。
// PATCH /students/{id}
func (h *StudentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req updateStudentRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	s, err := h.service.Update(r.Context(), identity, id, student.UpdateInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Program:    req.Program,
		Department: req.Department,
		SchoolID:   req.SchoolID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStudentResponse(s))
}

// DeleteStudent は学生を削除する。
// DELETE /students/{id}
func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
