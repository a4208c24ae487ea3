package auth

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost はパスワードハッシュのbcryptコスト。
	DefaultBcryptCost = 12
	// MinPasswordLength はパスワードの最小文字数（rune単位）。
	MinPasswordLength = 8
)

// defaultDenylist は長さ条件を満たしても拒否するパスワード。
var defaultDenylist = []string{"password", "12345678"}

// PasswordPolicy はパスワードのハッシュ化・照合・強度検証を提供する。
// 生成後は読み取り専用のため、複数goroutineから同時に使用できる。
type PasswordPolicy struct {
	cost     int
	denylist map[string]struct{}
}

// PasswordOption はPasswordPolicyの設定を変更する。
type PasswordOption func(*PasswordPolicy)

// WithCost はbcryptコストを変更する。範囲外の値は無視する。
func WithCost(cost int) PasswordOption {
	return func(p *PasswordPolicy) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			p.cost = cost
		}
	}
}

// WithDenylist は拒否リストに値を追加する。
func WithDenylist(values ...string) PasswordOption {
	return func(p *PasswordPolicy) {
		for _, v := range values {
			p.denylist[v] = struct{}{}
		}
	}
}

// NewPasswordPolicy はPasswordPolicyを生成する。
func NewPasswordPolicy(opts ...PasswordOption) *PasswordPolicy {
	p := &PasswordPolicy{
		cost:     DefaultBcryptCost,
		denylist: make(map[string]struct{}, len(defaultDenylist)),
	}
	for _, v := range defaultDenylist {
		p.denylist[v] = struct{}{}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Hash は平文パスワードのbcryptハッシュを返す。
// bcryptの入力上限（72バイト）を超える場合はKindValidation、それ以外の失敗はKindInternal。
func (p *PasswordPolicy) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", newError(KindValidation, "auth.Hash", "password is too long", err)
		}
		return "", newError(KindInternal, "auth.Hash", "failed to hash password", err)
	}
	return string(hash), nil
}

// Verify は平文パスワードが保存済みハッシュと一致するかを返す。
// 不一致・壊れたハッシュのいずれもfalseを返す。
func (p *PasswordPolicy) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// IsAcceptable はパスワードが最低限の強度条件を満たすかを返す。
func (p *PasswordPolicy) IsAcceptable(plaintext string) bool {
	if utf8.RuneCountInString(plaintext) < MinPasswordLength {
		return false
	}
	_, denied := p.denylist[plaintext]
	return !denied
}

// Validate はIsAcceptableの結果をKindValidationのエラーとして返す。
func (p *PasswordPolicy) Validate(plaintext string) error {
	if utf8.RuneCountInString(plaintext) < MinPasswordLength {
		return newError(KindValidation, "auth.Validate", "password must be at least 8 characters", nil)
	}
	if _, denied := p.denylist[plaintext]; denied {
		return newError(KindValidation, "auth.Validate", "password is too common", nil)
	}
	return nil
}
