package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/edurecords/internal/model"
	"github.com/hitoshi/edurecords/internal/school"
)

// SchoolServiceInterface は学校ハンドラーが必要とするサービスインターフェース。
type SchoolServiceInterface interface {
	Create(ctx context.Context, in school.Input) (*model.School, error)
	Get(ctx context.Context, id string) (*model.School, error)
	List(ctx context.Context, limit, offset int) ([]*model.School, error)
	Update(ctx context.Context, id string, in school.Input) (*model.School, error)
	Delete(ctx context.Context, id string) error
}

// SchoolHandler は学校管理のHTTPハンドラー。
type SchoolHandler struct {
	service SchoolServiceInterface
}

// NewSchoolHandler はSchoolHandlerを生成する。
func NewSchoolHandler(service SchoolServiceInterface) *SchoolHandler {
	return &SchoolHandler{service: service}
}

type schoolRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Website string `json:"website" validate:"required,url,max=255"`
}

type schoolResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Website   string     `json:"website"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type schoolListResponse struct {
	Schools []schoolResponse `json:"schools"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

func toSchoolResponse(s *model.School) schoolResponse {
	return schoolResponse{
		ID:        s.ID,
		Name:      s.Name,
		Website:   s.Website,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// CreateSchool は学校を作成する。
// POST /schools
func (h *SchoolHandler) CreateSchool(w http.ResponseWriter, r *http.Request) {
	var req schoolRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	s, err := h.service.Create(r.Context(), school.Input{Name: req.Name, Website: req.Website})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSchoolResponse(s))
}

// GetSchool は学校を返す。
// GET /schools/{id}
func (h *SchoolHandler) GetSchool(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	s, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSchoolResponse(s))
}

// ListSchools は学校一覧を返す。
// GET /schools?limit=50&offset=0
func (h *SchoolHandler) ListSchools(w http.ResponseWriter, r *http.Request) {
	limit, offset, apiErr := parsePage(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	schools, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := schoolListResponse{
		Schools: make([]schoolResponse, len(schools)),
		Limit:   limit,
		Offset:  offset,
	}
	for i, s := range schools {
		resp.Schools[i] = toSchoolResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateSchool は学校を更新する。
// PUT /schools/{id}
func (h *SchoolHandler) UpdateSchool(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req schoolRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	s, err := h.service.Update(r.Context(), id, school.Input{Name: req.Name, Website: req.Website})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSchoolResponse(s))
}

// DeleteSchool は学校を削除する。
// DELETE /schools/{id}
func (h *SchoolHandler) DeleteSchool(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
