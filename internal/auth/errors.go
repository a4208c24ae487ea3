package auth

import (
	"errors"
	"fmt"
)

// Kind は認証サブシステムが返すエラーの分類。
// ハンドラー層はKindのみを見てHTTPステータスを決定する。
type Kind string

const (
	// KindValidation はパスワードポリシー等の入力検証エラー。
	KindValidation Kind = "validation"
	// KindAuthentication はログイン資格情報の不一致。
	KindAuthentication Kind = "authentication"
	// KindUnauthorized はBearerトークンの欠落・不正・期限切れ。
	KindUnauthorized Kind = "unauthorized"
	// KindEncoding はトークン署名時の内部エラー。
	KindEncoding Kind = "encoding"
	// KindInternal は永続化層などの内部エラー。
	KindInternal Kind = "internal"
)

var (
	// ErrInvalidCredentials はメールアドレス未登録とパスワード不一致の両方で使う。
	// 呼び出し側から両者を区別できないようにする。
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken はトークン検証失敗の唯一の分類。
	// 署名不正・形式不正・期限切れ・nbf前・iss/aud不一致のすべてを含む。
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthorized はリクエストゲートで拒否したことを表す。
	ErrUnauthorized = errors.New("unauthorized")
)

// Error は分類付きの認証エラー。
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
}

// Unwrap は原因エラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf はエラーチェーンからKindを取り出す。
// Errorを含まないエラーはKindInternalとして扱う。
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindInternal
}

// IsKind はerrが指定のKindに分類されるかを返す。
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
