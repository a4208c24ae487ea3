// Package model はドメインモデルを定義する。
package model

import "time"

// User はログイン可能なアカウントを表す。
// PasswordHashには常にbcryptハッシュを格納し、平文は保持しない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	IsAdmin      bool
	SchoolID     *string // 所属テナント（学校）。未所属はnil
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
