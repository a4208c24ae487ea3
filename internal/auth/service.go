// Package auth はパスワード認証、トークンの発行と検証を提供する。
package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hitoshi/edurecords/internal/model"
)

// AccountFinder はログインに必要なアカウント検索のインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type AccountFinder interface {
	// FindByEmail はメールアドレスでアカウントを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// LoginRecorder はログイン結果を記録するメトリクスのインターフェース。
type LoginRecorder interface {
	RecordLogin(outcome string)
}

// ログイン結果のラベル。
const (
	LoginOutcomeSuccess       = "success"
	LoginOutcomeUnknownEmail  = "unknown_email"
	LoginOutcomeWrongPassword = "wrong_password"
	LoginOutcomeError         = "error"
)

// Credentials はログインリクエストの資格情報。永続化もログ出力もしない。
type Credentials struct {
	Email    string
	Password string
}

// Service はログインフローを提供する。
type Service struct {
	accounts  AccountFinder
	passwords *PasswordPolicy
	tokens    *TokenCodec
	recorder  LoginRecorder
	dummyHash string
}

// ServiceOption はServiceの設定を変更する。
type ServiceOption func(*Service)

// WithLoginRecorder はログイン結果の記録先を設定する。
func WithLoginRecorder(r LoginRecorder) ServiceOption {
	return func(s *Service) {
		s.recorder = r
	}
}

// NewService はServiceを生成する。
func NewService(accounts AccountFinder, passwords *PasswordPolicy, tokens *TokenCodec, opts ...ServiceOption) *Service {
	s := &Service{
		accounts:  accounts,
		passwords: passwords,
		tokens:    tokens,
	}
	for _, opt := range opts {
		opt(s)
	}

	// 未登録メールでも照合と同程度の時間をかけるためのハッシュ
	if h, err := passwords.Hash("edurecords-timing-equalizer"); err == nil {
		s.dummyHash = h
	}

	return s
}

// NormalizeEmail はメールアドレスを比較用の正規形（前後空白除去・小文字）にする。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login はメールアドレスとパスワードを検証し、成功時に署名済みトークンを返す。
// 未登録メールとパスワード不一致は同一のKindAuthenticationエラーになる。
func (s *Service) Login(ctx context.Context, creds Credentials) (string, error) {
	email := NormalizeEmail(creds.Email)

	user, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		slog.Error("login account lookup failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		s.record(LoginOutcomeError)
		return "", newError(KindInternal, "auth.Login", "failed to look up account", err)
	}

	if user == nil {
		s.passwords.Verify(creds.Password, s.dummyHash)
		slog.Warn("login rejected",
			slog.String("email", email),
			slog.String("reason", LoginOutcomeUnknownEmail),
		)
		s.record(LoginOutcomeUnknownEmail)
		return "", invalidCredentials()
	}

	if !s.passwords.Verify(creds.Password, user.PasswordHash) {
		slog.Warn("login rejected",
			slog.String("email", email),
			slog.String("user_id", user.ID),
			slog.String("reason", LoginOutcomeWrongPassword),
		)
		s.record(LoginOutcomeWrongPassword)
		return "", invalidCredentials()
	}

	token, err := s.tokens.Encode(s.tokens.NewClaims(user))
	if err != nil {
		slog.Error("token encoding failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		s.record(LoginOutcomeError)
		return "", err
	}

	slog.Info("login succeeded",
		slog.String("user_id", user.ID),
	)
	s.record(LoginOutcomeSuccess)

	return token, nil
}

func (s *Service) record(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordLogin(outcome)
	}
}

func invalidCredentials() *Error {
	return newError(KindAuthentication, "auth.Login", "invalid credentials", ErrInvalidCredentials)
}
