// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/edurecords/internal/auth"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login は資格情報を検証し、署名済みトークンを返す。
	Login(ctx context.Context, creds auth.Credentials) (string, error)
}

// AuthHandler はログインと認証主体参照のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// loginRequest はログインリクエストのボディ。
// メールアドレスの形式は検証しない（未登録と同じ扱いにする）。
type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type identityResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Admin    bool   `json:"admin"`
	Active   bool   `json:"active"`
	TenantID string `json:"tenant_id,omitempty"`
}

// Login はメールアドレスとパスワードでログインし、Bearerトークンを返す。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	token, err := h.service.Login(r.Context(), auth.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// Me は現在の認証主体を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, identityResponse{
		ID:       identity.UserID,
		Email:    identity.Email,
		Admin:    identity.Admin,
		Active:   identity.Active,
		TenantID: identity.TenantID,
	})
}
