package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/edurecords/internal/model"
)

const studentColumns = `id, first_name, last_name, program, department, user_id, school_id, created_at, updated_at`

// PostgresStudentRepo はPostgreSQLを使用した学生リポジトリ。
type PostgresStudentRepo struct {
	db *sql.DB
}

// NewPostgresStudentRepo はPostgresStudentRepoを生成する。
func NewPostgresStudentRepo(db *sql.DB) *PostgresStudentRepo {
	return &PostgresStudentRepo{db: db}
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(s rowScanner) (*model.Student, error) {
	student := &model.Student{}
	var department sql.NullString
	var updatedAt sql.NullTime

	err := s.Scan(
		&student.ID, &student.FirstName, &student.LastName, &student.Program,
		&department, &student.UserID, &student.SchoolID,
		&student.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	student.Department = stringPtr(department)
	student.UpdatedAt = timePtr(updatedAt)
	return student, nil
}

// FindByID は指定IDの学生を取得する。見つからない場合はnilを返す。
func (r *PostgresStudentRepo) FindByID(ctx context.Context, id string) (*model.Student, error) {
	student, err := scanStudent(r.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find student by ID: %w", err)
	}
	return student, nil
}

// ListBySchool は学校に所属する学生を姓名順で返す。
func (r *PostgresStudentRepo) ListBySchool(ctx context.Context, schoolID string, limit, offset int) ([]*model.Student, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+studentColumns+` FROM students
		 WHERE school_id = $1
		 ORDER BY last_name, first_name, id
		 LIMIT $2 OFFSET $3`,
		schoolID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	students := make([]*model.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}

	return students, nil
}

// Create は学生を作成する。
func (r *PostgresStudentRepo) Create(ctx context.Context, student *model.Student) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO students (id, first_name, last_name, program, department, user_id, school_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		student.ID, student.FirstName, student.LastName, student.Program,
		nullString(student.Department), student.UserID, student.SchoolID, student.CreatedAt,
	)
	if err != nil {
		return wrapError("insert student", err)
	}
	return nil
}

// Update は学生情報を更新する。user_idは変更しない。
func (r *PostgresStudentRepo) Update(ctx context.Context, student *model.Student) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE students
		 SET first_name = $2, last_name = $3, program = $4, department = $5, school_id = $6, updated_at = $7
		 WHERE id = $1`,
		student.ID, student.FirstName, student.LastName, student.Program,
		nullString(student.Department), student.SchoolID, nullTime(student.UpdatedAt),
	)
	if err != nil {
		return wrapError("update student", err)
	}
	n, err := result.RowsAffected()
	return expectAffected("update student", n, err)
}

// DeleteByID は指定IDの学生を削除する。
func (r *PostgresStudentRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return wrapError("delete student", err)
	}
	n, err := result.RowsAffected()
	return expectAffected("delete student", n, err)
}

// compile-time interface check
var _ StudentRepository = (*PostgresStudentRepo)(nil)
