package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hitoshi/edurecords/internal/model"
)

const (
	// maxRequestBodyBytes はJSONリクエストボディの上限。
	maxRequestBodyBytes = 1 << 20

	defaultPageLimit = 50
	maxPageLimit     = 100
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator はリクエストDTO用のvalidatorを返す。
// エラーメッセージのフィールド名にはjsonタグ名を使う。
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// decodeJSON はリクエストボディをdstにデコードし、validateタグで検証する。
// 失敗時はクライアント向けのAPIErrorを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) *model.APIError {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewInvalidRequestError()
	}

	if err := getValidator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return model.NewValidationError("invalid request")
		}
		messages := make([]string, 0, len(verrs))
		for _, e := range verrs {
			messages = append(messages, e.Field()+" "+describeRule(e))
		}
		return model.NewValidationError(strings.Join(messages, "; "))
	}
	return nil
}

func describeRule(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	default:
		return "is invalid"
	}
}

// pathUUID はURLパラメータをUUIDとして取り出す。
// 形式不正の場合は400を書き込んでfalseを返す。
func pathUUID(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidIDError(raw))
		return "", false
	}
	return id.String(), true
}

// parsePage はlimit/offsetクエリパラメータを解析する。
func parsePage(r *http.Request) (limit, offset int, apiErr *model.APIError) {
	limit = defaultPageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageLimit {
			return 0, 0, model.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", maxPageLimit))
		}
		limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, model.NewValidationError("offset must be a non-negative integer")
		}
		offset = n
	}
	return limit, offset, nil
}
