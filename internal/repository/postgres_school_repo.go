package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/edurecords/internal/model"
)

// PostgresSchoolRepo はPostgreSQLを使用した学校リポジトリ。
type PostgresSchoolRepo struct {
	db *sql.DB
}

// NewPostgresSchoolRepo はPostgresSchoolRepoを生成する。
func NewPostgresSchoolRepo(db *sql.DB) *PostgresSchoolRepo {
	return &PostgresSchoolRepo{db: db}
}

// FindByID は指定IDの学校を取得する。見つからない場合はnilを返す。
func (r *PostgresSchoolRepo) FindByID(ctx context.Context, id string) (*model.School, error) {
	school := &model.School{}
	var updatedAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, website, created_at, updated_at FROM schools WHERE id = $1`,
		id,
	).Scan(&school.ID, &school.Name, &school.Website, &school.CreatedAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find school by ID: %w", err)
	}

	school.UpdatedAt = timePtr(updatedAt)
	return school, nil
}

// List は学校を名前順で返す。
func (r *PostgresSchoolRepo) List(ctx context.Context, limit, offset int) ([]*model.School, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, website, created_at, updated_at
		 FROM schools ORDER BY name, id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	defer rows.Close()

	schools := make([]*model.School, 0)
	for rows.Next() {
		school := &model.School{}
		var updatedAt sql.NullTime
		if err := rows.Scan(&school.ID, &school.Name, &school.Website, &school.CreatedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan school: %w", err)
		}
		school.UpdatedAt = timePtr(updatedAt)
		schools = append(schools, school)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schools: %w", err)
	}

	return schools, nil
}

// Create は学校を作成する。
func (r *PostgresSchoolRepo) Create(ctx context.Context, school *model.School) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO schools (id, name, website, created_at) VALUES ($1, $2, $3, $4)`,
		school.ID, school.Name, school.Website, school.CreatedAt,
	)
	if err != nil {
		return wrapError("insert school", err)
	}
	return nil
}

// Update は学校名とWebサイトを更新する。
func (r *PostgresSchoolRepo) Update(ctx context.Context, school *model.School) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE schools SET name = $2, website = $3, updated_at = $4 WHERE id = $1`,
		school.ID, school.Name, school.Website, nullTime(school.UpdatedAt),
	)
	if err != nil {
		return wrapError("update school", err)
	}
	n, err := result.RowsAffected()
	return expectAffected("update school", n, err)
}

// DeleteByID は指定IDの学校を削除する。
// 所属する学生はCASCADE削除され、ユーザーの所属はNULLになる。
func (r *PostgresSchoolRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schools WHERE id = $1`, id)
	if err != nil {
		return wrapError("delete school", err)
	}
	n, err := result.RowsAffected()
	return expectAffected("delete school", n, err)
}

// compile-time interface check
var _ SchoolRepository = (*PostgresSchoolRepo)(nil)
