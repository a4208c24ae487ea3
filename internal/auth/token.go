package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/edurecords/internal/model"
)

// Config はトークンの署名・検証設定。
// 起動時に1回生成し、以降は変更しない。
type Config struct {
	Secret        string
	TokenLifetime time.Duration
	Issuer        string
	Audience      string
}

// Claims はトークンに埋め込むクレーム。
// sub にアカウントID、tenant_id に所属学校IDを格納する。
type Claims struct {
	Email    string `json:"email"`
	TenantID string `json:"tenant_id,omitempty"`
	Admin    bool   `json:"admin"`
	Active   bool   `json:"active"`
	jwt.RegisteredClaims
}

// TokenOption はTokenCodecの設定を変更する。
type TokenOption func(*TokenCodec)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// TokenCodec はHS256で署名したJWTの発行と検証を行う。
type TokenCodec struct {
	cfg    Config
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenCodec はTokenCodecを生成する。
// 時刻比較に猶予は設けない。
func NewTokenCodec(cfg Config, opts ...TokenOption) *TokenCodec {
	c := &TokenCodec{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(cfg.Audience))
	}
	c.parser = jwt.NewParser(parserOpts...)

	return c
}

// NewClaims はアカウントの現在の属性からクレームを組み立てる。
// exp は常に iat + TokenLifetime となる。
func (c *TokenCodec) NewClaims(user *model.User) Claims {
	now := c.now()

	claims := Claims{
		Email:  user.Email,
		Admin:  user.IsAdmin,
		Active: user.IsActive,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.TokenLifetime)),
			Issuer:    c.cfg.Issuer,
		},
	}
	if user.SchoolID != nil {
		claims.TenantID = *user.SchoolID
	}
	if c.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{c.cfg.Audience}
	}
	return claims
}

// Encode はクレームをHS256で署名したトークン文字列にする。
func (c *TokenCodec) Encode(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.cfg.Secret))
	if err != nil {
		return "", newError(KindEncoding, "auth.Encode", "failed to sign token", err)
	}
	return signed, nil
}

// Decode はトークンの署名と有効期間、iss/audを検証してクレームを返す。
// 失敗時は原因を問わずErrInvalidTokenをラップしたエラーを返す。
func (c *TokenCodec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := c.parser.ParseWithClaims(tokenString, claims, c.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

func (c *TokenCodec) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return []byte(c.cfg.Secret), nil
}
