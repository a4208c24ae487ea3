package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/edurecords/internal/model"
)

const userColumns = `id, email, password, is_active, is_admin, school_id, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを取得する。
// lower(email)のユニークインデックスを使い、大文字小文字を区別しない。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		email,
	)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password, is_active, is_admin, school_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.PasswordHash, user.IsActive, user.IsAdmin,
		nullString(user.SchoolID), user.CreatedAt,
	)
	if err != nil {
		return wrapError("insert user", err)
	}
	return nil
}

// Update はメールアドレス・所属学校・有効/管理者フラグを更新する。
// パスワードはUpdatePasswordでのみ変更する。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET email = $2, is_active = $3, is_admin = $4, school_id = $5, updated_at = $6
		 WHERE id = $1`,
		user.ID, user.Email, user.IsActive, user.IsAdmin,
		nullString(user.SchoolID), nullTime(user.UpdatedAt),
	)
	if err != nil {
		return wrapError("update user", err)
	}
	n, err := result.RowsAffected()
	return expectAffected("update user", n, err)
}

// UpdatePassword はパスワードハッシュとupdated_atを更新する。
func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, updatedAt,
	)
	if err != nil {
		return wrapError("update password", err)
	}
	n, err := result.RowsAffected()
	return expectAffected("update password", n, err)
}

// DeleteByID は指定IDのユーザーを削除する。
// 関連するstudents、classes、schedulesはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return wrapError("delete user", err)
	}
	n, err := result.RowsAffected()
	return expectAffected("delete user", n, err)
}

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var schoolID sql.NullString
	var updatedAt sql.NullTime

	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash,
		&user.IsActive, &user.IsAdmin, &schoolID,
		&user.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.SchoolID = stringPtr(schoolID)
	user.UpdatedAt = timePtr(updatedAt)
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
