package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/edurecords/internal/model"
)

// PostgresClassRepo はPostgreSQLを使用した授業リポジトリ。
type PostgresClassRepo struct {
	db *sql.DB
}

// NewPostgresClassRepo はPostgresClassRepoを生成する。
func NewPostgresClassRepo(db *sql.DB) *PostgresClassRepo {
	return &PostgresClassRepo{db: db}
}

// FindByID は指定IDの授業を取得する。見つからない場合はnilを返す。
func (r *PostgresClassRepo) FindByID(ctx context.Context, id string) (*model.Class, error) {
	class := &model.Class{}
	var updatedAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, student_id, created_at, updated_at FROM classes WHERE id = $1`,
		id,
	).Scan(&class.ID, &class.Name, &class.StudentID, &class.CreatedAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find class by ID: %w", err)
	}

	class.UpdatedAt = timePtr(updatedAt)
	return class, nil
}

// Create は授業を作成する。
func (r *PostgresClassRepo) Create(ctx context.Context, class *model.Class) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO classes (id, name, student_id, created_at) VALUES ($1, $2, $3, $4)`,
		class.ID, class.Name, class.StudentID, class.CreatedAt,
	)
	if err != nil {
		return wrapError("insert class", err)
	}
	return nil
}

// Update は授業名と学生IDを更新する。
func (r *PostgresClassRepo) Update(ctx context.Context, class *model.Class) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE classes SET name = $2, student_id = $3, updated_at = $4 WHERE id = $1`,
		class.ID, class.Name, class.StudentID, nullTime(class.UpdatedAt),
	)
	if err != nil {
		return wrapError("update class", err)
	}
	n, err := result.RowsAffected()
	return expectAffected("update class", n, err)
}

// DeleteByID は指定IDの授業を削除する。スケジュールはCASCADE削除される。
func (r *PostgresClassRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return wrapError("delete class", err)
	}
	n, err := result.RowsAffected()
	return expectAffected("delete class", n, err)
}

// compile-time interface check
var _ ClassRepository = (*PostgresClassRepo)(nil)
