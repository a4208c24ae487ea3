// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/edurecords/internal/model"
)

// UserRepository はアカウントデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレス（大文字小文字を区別しない）でユーザーを取得する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレス重複時はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// Update はメールアドレス・所属学校・有効/管理者フラグを更新する。
	Update(ctx context.Context, user *model.User) error

	// UpdatePassword はパスワードハッシュとupdated_atを更新する。
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するstudents、classes、schedulesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SchoolRepository は学校データの永続化インターフェース。
type SchoolRepository interface {
	// FindByID は指定IDの学校を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.School, error)

	// List は学校を名前順で返す。
	List(ctx context.Context, limit, offset int) ([]*model.School, error)

	// Create は学校を作成する。
	Create(ctx context.Context, school *model.School) error

	// Update は学校名とWebサイトを更新する。
	Update(ctx context.Context, school *model.School) error

	// DeleteByID は指定IDの学校を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// StudentRepository は学生データの永続化インターフェース。
type StudentRepository interface {
	// FindByID は指定IDの学生を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Student, error)

	// ListBySchool は学校に所属する学生を姓名順で返す。
	ListBySchool(ctx context.Context, schoolID string, limit, offset int) ([]*model.Student, error)

	// Create は学生を作成する。参照先が存在しない場合はErrReferenceNotFoundを返す。
	Create(ctx context.Context, student *model.Student) error

	// Update は学生情報を更新する。
	Update(ctx context.Context, student *model.Student) error

	// DeleteByID は指定IDの学生を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// ClassRepository は授業データの永続化インターフェース。
type ClassRepository interface {
	// FindByID は指定IDの授業を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Class, error)

	// Create は授業を作成する。
	Create(ctx context.Context, class *model.Class) error

	// Update は授業名と学生IDを更新する。
	Update(ctx context.Context, class *model.Class) error

	// DeleteByID は指定IDの授業を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// ScheduleRepository はスケジュールデータの永続化インターフェース。
type ScheduleRepository interface {
	// FindByID は指定IDのスケジュールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Schedule, error)

	// Create はスケジュールを作成する。
	Create(ctx context.Context, schedule *model.Schedule) error

	// Update はスケジュールを更新する。
	Update(ctx context.Context, schedule *model.Schedule) error

	// DeleteByID は指定IDのスケジュールを削除する。
	DeleteByID(ctx context.Context, id string) error
}
