package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// テストではハッシュ計算を軽くするため最小コストを使う
func newTestPolicy() *PasswordPolicy {
	return NewPasswordPolicy(WithCost(bcrypt.MinCost))
}

func TestNewPasswordPolicy_DefaultCost(t *testing.T) {
	p := NewPasswordPolicy()
	assert.Equal(t, DefaultBcryptCost, p.cost)
}

func TestWithCost_OutOfRangeIgnored(t *testing.T) {
	p := NewPasswordPolicy(WithCost(1))
	assert.Equal(t, DefaultBcryptCost, p.cost)

	p = NewPasswordPolicy(WithCost(bcrypt.MaxCost + 1))
	assert.Equal(t, DefaultBcryptCost, p.cost)
}

func TestPasswordPolicy_IsAcceptable(t *testing.T) {
	p := newTestPolicy()

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"空文字", "", false},
		{"7文字", "abcdefg", false},
		{"8文字", "abcdefgh", true},
		{"長いパスワード", "correcthorse1", true},
		{"拒否リスト_password", "password", false},
		{"拒否リスト_12345678", "12345678", false},
		{"拒否リストと大文字違い", "Password", true},
		{"マルチバイト7文字", "パスワードです", false},
		{"マルチバイト8文字", "パスワードですよ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsAcceptable(tt.password))
		})
	}
}

func TestPasswordPolicy_WithDenylist(t *testing.T) {
	p := NewPasswordPolicy(WithCost(bcrypt.MinCost), WithDenylist("qwertyuiop"))

	assert.False(t, p.IsAcceptable("qwertyuiop"))
	assert.False(t, p.IsAcceptable("password"))
}

func TestPasswordPolicy_Validate(t *testing.T) {
	p := newTestPolicy()

	require.NoError(t, p.Validate("correcthorse1"))

	err := p.Validate("short")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))

	err = p.Validate("12345678")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
	assert.Contains(t, err.Error(), "too common")
}

func TestPasswordPolicy_HashAndVerify(t *testing.T) {
	p := newTestPolicy()

	for _, pw := range []string{"correcthorse1", "abcdefgh", "パスワードですよ", ""} {
		hash, err := p.Hash(pw)
		require.NoError(t, err)

		assert.NotEqual(t, pw, hash)
		assert.True(t, p.Verify(pw, hash), "verify(%q, hash(%q))", pw, pw)
	}
}

func TestPasswordPolicy_Hash_IsSalted(t *testing.T) {
	p := newTestPolicy()

	h1, err := p.Hash("correcthorse1")
	require.NoError(t, err)
	h2, err := p.Hash("correcthorse1")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestPasswordPolicy_Hash_UsesConfiguredCost(t *testing.T) {
	p := newTestPolicy()

	hash, err := p.Hash("correcthorse1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestPasswordPolicy_Hash_TooLong(t *testing.T) {
	p := newTestPolicy()

	_, err := p.Hash(strings.Repeat("a", 73))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
}

func TestPasswordPolicy_Verify_Mismatch(t *testing.T) {
	p := newTestPolicy()

	hash, err := p.Hash("correcthorse1")
	require.NoError(t, err)

	assert.False(t, p.Verify("wrong-password", hash))
}

func TestPasswordPolicy_Verify_MalformedHash(t *testing.T) {
	p := newTestPolicy()

	assert.False(t, p.Verify("correcthorse1", ""))
	assert.False(t, p.Verify("correcthorse1", "not-a-bcrypt-hash"))
	assert.False(t, p.Verify("correcthorse1", "$2a$04$short"))
}
