package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/edurecords/internal/auth"
	"github.com/hitoshi/edurecords/internal/model"
	"github.com/hitoshi/edurecords/internal/student"
)

// ClassServiceInterface は授業ハンドラーが必要とするサービスインターフェース。
type ClassServiceInterface interface {
	Create(ctx context.Context, caller *auth.Identity, in student.ClassInput) (*model.Class, error)
	Get(ctx context.Context, caller *auth.Identity, id string) (*model.Class, error)
	Update(ctx context.Context, caller *auth.Identity, id string, in student.ClassInput) (*model.Class, error)
	Delete(ctx context.Context, caller *auth.Identity, id string) error
}

// ClassHandler は授業管理のHTTPハンドラー。
type ClassHandler struct {
	service ClassServiceInterface
}

// NewClassHandler はClassHandlerを生成する。
func NewClassHandler(service ClassServiceInterface) *ClassHandler {
	return &ClassHandler{service: service}
}

type classRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	StudentID string `json:"student_id" validate:"required,uuid"`
}

type classResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StudentID string     `json:"student_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func toClassResponse(c *model.Class) classResponse {
	return classResponse{
		ID:        c.ID,
		Name:      c.Name,
		StudentID: c.StudentID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// CreateClass は授業を作成する。
// POST /classes
func (h *ClassHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req classRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	c, err := h.service.Create(r.Context(), identity, student.ClassInput{Name: req.Name, StudentID: req.StudentID})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toClassResponse(c))
}

// GetClass は授業を返す。
// GET /classes/{id}
func (h *ClassHandler) GetClass(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), identity, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toClassResponse(c))
}

// UpdateClass は授業を更新する。
// PUT /classes/{id}
func (h *ClassHandler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req classRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	c, err := h.service.Update(r.Context(), identity, id, student.ClassInput{Name: req.Name, StudentID: req.StudentID})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toClassResponse(c))
}

// DeleteClass は授業を削除する。
// DELETE /classes/{id}
func (h *ClassHandler) DeleteClass(w http.ResponseWriter, r *http.Request) {
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
