// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/hitoshi/edurecords/internal/auth"
	"github.com/hitoshi/edurecords/internal/database"
)

// MinSecretKeyLength はAUTH_SECRET_KEYに要求する最小バイト数。
const MinSecretKeyLength = 32

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL       string
	DBMaxPoolSize     int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Auth
	AuthSecretKey   string
	AuthTokenExpire time.Duration
	AuthIssuer      string
	AuthAudience    string

	// Rate Limit（リクエスト数/分）
	RateLimitGeneral int
	RateLimitLogin   int

	// Proxy
	// trueの場合のみX-Forwarded-For/X-Real-IPをクライアントIPとして扱う
	TrustProxyHeaders bool

	// Server
	ServerPort     string
	LogLevel       string
	MetricsEnabled bool

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// ENV_FILE（既定は.env）が存在すれば先に読み込むが、既存の環境変数は上書きしない。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := loadEnvFile(getEnvString("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.AuthSecretKey = os.Getenv("AUTH_SECRET_KEY")
	if cfg.AuthSecretKey == "" {
		missing = append(missing, "AUTH_SECRET_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if len(cfg.AuthSecretKey) < MinSecretKeyLength {
		return nil, fmt.Errorf("AUTH_SECRET_KEY must be at least %d bytes", MinSecretKeyLength)
	}

	cfg.AuthTokenExpire = time.Duration(getEnvInt("AUTH_TOKEN_EXPIRE_MINUTES", 60)) * time.Minute
	if cfg.AuthTokenExpire <= 0 {
		return nil, fmt.Errorf("AUTH_TOKEN_EXPIRE_MINUTES must be positive")
	}
	cfg.AuthIssuer = getEnvString("AUTH_ISSUER", "")
	cfg.AuthAudience = getEnvString("AUTH_AUDIENCE", "")

	cfg.DBMaxPoolSize = getEnvInt("DB_MAX_POOL_SIZE", 10)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	// 0以下はバーストが0になり全リクエストが429になる
	if cfg.RateLimitGeneral < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_GENERAL must be positive")
	}
	if cfg.RateLimitLogin < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_LOGIN must be positive")
	}
	cfg.TrustProxyHeaders = getEnvBool("TRUST_PROXY_HEADERS", false)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", true)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// AuthConfig はトークン発行・検証用の設定を返す。
func (c *Config) AuthConfig() auth.Config {
	return auth.Config{
		Secret:        c.AuthSecretKey,
		TokenLifetime: c.AuthTokenExpire,
		Issuer:        c.AuthIssuer,
		Audience:      c.AuthAudience,
	}
}

// PoolConfig はDBコネクションプールの設定を返す。
func (c *Config) PoolConfig() database.PoolConfig {
	return database.PoolConfig{
		MaxOpenConns:    c.DBMaxPoolSize,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
	}
}

// loadEnvFile はdotenvファイルを読み込む。ファイルが存在しない場合は何もしない。
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
