// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/edurecords/internal/auth"
	"github.com/hitoshi/edurecords/internal/model"
)

// TokenDecoder はBearerトークンの検証に必要なインターフェース。
// auth.TokenCodecの部分集合として定義する。
type TokenDecoder interface {
	Decode(tokenString string) (*auth.Claims, error)
}

// RejectionRecorder は認証ゲートで拒否した理由を記録するメトリクスのインターフェース。
type RejectionRecorder interface {
	RecordTokenRejection(reason string)
}

// 拒否理由のラベル。ログとメトリクスでのみ使い、レスポンスには含めない。
const (
	RejectReasonMissingHeader = "missing_header"
	RejectReasonMalformed     = "malformed_header"
	RejectReasonInvalidToken  = "invalid_token"
)

// IdentityOption はIdentityミドルウェアの設定を変更する。
type IdentityOption func(*identityGate)

// WithRejectionRecorder は拒否理由の記録先を設定する。
func WithRejectionRecorder(r RejectionRecorder) IdentityOption {
	return func(g *identityGate) {
		g.recorder = r
	}
}

type identityGate struct {
	decoder  TokenDecoder
	recorder RejectionRecorder
}

// NewIdentityMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証主体をリクエストコンテキストに注入するミドルウェアを返す。
// ヘッダー欠落・形式不正・トークン不正のいずれも401 UNAUTHORIZEDを返し、理由はログにのみ残す。
func NewIdentityMiddleware(decoder TokenDecoder, opts ...IdentityOption) func(next http.Handler) http.Handler {
	g := &identityGate{decoder: decoder}
	for _, opt := range opts {
		opt(g)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, reason := bearerToken(r.Header.Get("Authorization"))
			if reason != "" {
				g.reject(w, r, reason, nil)
				return
			}

			claims, err := g.decoder.Decode(token)
			if err != nil {
				g.reject(w, r, RejectReasonInvalidToken, err)
				return
			}

			identity := auth.IdentityFromClaims(claims)
			annotateUserID(r.Context(), identity.UserID)

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (g *identityGate) reject(w http.ResponseWriter, r *http.Request, reason string, cause error) {
	attrs := []any{
		slog.String("reason", reason),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	slog.Warn("request rejected by identity gate", attrs...)

	if g.recorder != nil {
		g.recorder.RecordTokenRejection(reason)
	}
	WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
}

// bearerToken はAuthorizationヘッダーからトークンを取り出す。
// スキーム名は大文字小文字を区別しない。失敗時は拒否理由を返す。
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", RejectReasonMissingHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", RejectReasonMalformed
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", RejectReasonMalformed
	}
	return token, ""
}

// RequireActive は無効化されたアカウントによる更新系リクエストを403で拒否する。
// 参照系（GET/HEAD/OPTIONS）は通過させる。
func RequireActive() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if !identity.Active {
				slog.Warn("inactive account attempted mutation",
					slog.String("user_id", identity.UserID),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewInactiveAccountError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin は管理者以外のリクエストを403で拒否する。
func RequireAdmin() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if !identity.Admin {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
// Identityミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return "", fmt.Errorf("user ID not found in context")
	}
	return identity.UserID, nil
}
