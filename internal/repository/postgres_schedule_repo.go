package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/edurecords/internal/model"
)

// PostgresScheduleRepo はPostgreSQLを使用したスケジュールリポジトリ。
type PostgresScheduleRepo struct {
	db *sql.DB
}

// NewPostgresScheduleRepo はPostgresScheduleRepoを生成する。
func NewPostgresScheduleRepo(db *sql.DB) *PostgresScheduleRepo {
	return &PostgresScheduleRepo{db: db}
}

// FindByID は指定IDのスケジュールを取得する。見つからない場合はnilを返す。
// 時刻はHH:MM:SS形式の文字列として返す。
func (r *PostgresScheduleRepo) FindByID(ctx context.Context, id string) (*model.Schedule, error) {
	s := &model.Schedule{}
	var updatedAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, student_id, class_id, day_of_week,
		        to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'),
		        created_at, updated_at
		 FROM schedules WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.StudentID, &s.ClassID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.CreatedAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find schedule by ID: %w", err)
	}

	s.UpdatedAt = timePtr(updatedAt)
	return s, nil
}

// Create はスケジュールを作成する。
func (r *PostgresScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO schedules (id, student_id, class_id, day_of_week, start_time, end_time, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.StudentID, s.ClassID, s.DayOfWeek, s.StartTime, s.EndTime, s.CreatedAt,
	)
	if err != nil {
		return wrapError("insert schedule", err)
	}
	return nil
}

// Update はスケジュールを更新する。
func (r *PostgresScheduleRepo) Update(ctx context.Context, s *model.Schedule) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE schedules
		 SET student_id = $2, class_id = $3, day_of_week = $4, start_time = $5, end_time = $6, updated_at = $7
		 WHERE id = $1`,
		s.ID, s.StudentID, s.ClassID, s.DayOfWeek, s.StartTime, s.EndTime, nullTime(s.UpdatedAt),
	)
	if err != nil {
		return wrapError("update schedule", err)
	}
	n, err := result.RowsAffected()
	return expectAffected("update schedule", n, err)
}

// DeleteByID は指定IDのスケジュールを削除する。
func (r *PostgresScheduleRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return wrapError("delete schedule", err)
	}
	n, err := result.RowsAffected()
	return expectAffected("delete schedule", n, err)
}

// compile-time interface check
var _ ScheduleRepository = (*PostgresScheduleRepo)(nil)
