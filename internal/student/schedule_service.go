package student

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/edurecords/internal/auth"
	"github.com/hitoshi/edurecords/internal/model"
	"github.com/hitoshi/edurecords/internal/repository"
)

// ScheduleInput はスケジュールの作成・更新の入力。
// 時刻は"HH:MM"または"HH:MM:SS"形式で受け付ける。
type ScheduleInput struct {
	StudentID string
	ClassID   string
	DayOfWeek int
	StartTime string
	EndTime   string
}

// ScheduleService はスケジュール管理のサービス層。
type ScheduleService struct {
	scheduleRepo repository.ScheduleRepository
	classRepo    repository.ClassRepository
	studentRepo  repository.StudentRepository
	now          func() time.Time
}

// NewScheduleService はScheduleServiceの新しいインスタンスを生成する。
func NewScheduleService(
	scheduleRepo repository.ScheduleRepository,
	classRepo repository.ClassRepository,
	studentRepo repository.StudentRepository,
) *ScheduleService {
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		classRepo:    classRepo,
		studentRepo:  studentRepo,
		now:          time.Now,
	}
}

// Create はスケジュールを作成する。
func (s *ScheduleService) Create(ctx context.Context, caller *auth.Identity, in ScheduleInput) (*model.Schedule, error) {
	schedule := &model.Schedule{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.apply(ctx, caller, schedule, in); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, model.NewReferenceNotFoundError("student_id or class_id")
		}
		return nil, fmt.Errorf("スケジュールの作成に失敗しました: %w", err)
	}

	return schedule, nil
}

// Get は指定IDのスケジュールを返す。
func (s *ScheduleService) Get(ctx context.Context, caller *auth.Identity, id string) (*model.Schedule, error) {
	return s.load(ctx, caller, id)
}

// Update はスケジュールを置き換える。
func (s *ScheduleService) Update(ctx context.Context, caller *auth.Identity, id string, in ScheduleInput) (*model.Schedule, error) {
	schedule, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, caller, schedule, in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	schedule.UpdatedAt = &now

	if err := s.scheduleRepo.Update(ctx, schedule); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewScheduleNotFoundError(id)
		case errors.Is(err, repository.ErrReferenceNotFound):
			return nil, model.NewReferenceNotFoundError("student_id or class_id")
		}
		return nil, fmt.Errorf("スケジュールの更新に失敗しました: %w", err)
	}

	return schedule, nil
}

// Delete はスケジュールを削除する。
func (s *ScheduleService) Delete(ctx context.Context, caller *auth.Identity, id string) error {
	if _, err := s.load(ctx, caller, id); err != nil {
		return err
	}

	if err := s.scheduleRepo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewScheduleNotFoundError(id)
		}
		return fmt.Errorf("スケジュールの削除に失敗しました: %w", err)
	}
	return nil
}

// apply は入力を検証してスケジュールに反映する。
// 授業は同じ学生のものでなければならない。
func (s *ScheduleService) apply(ctx context.Context, caller *auth.Identity, schedule *model.Schedule, in ScheduleInput) error {
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return model.NewValidationError("day_of_week must be between 0 and 6")
	}
	start, startText, err := parseTimeOfDay(in.StartTime)
	if err != nil {
		return model.NewValidationError("start_time must be HH:MM or HH:MM:SS")
	}
	end, endText, err := parseTimeOfDay(in.EndTime)
	if err != nil {
		return model.NewValidationError("end_time must be HH:MM or HH:MM:SS")
	}
	if !end.After(start) {
		return model.NewValidationError("end_time must be after start_time")
	}

	if _, err := referencedStudent(ctx, s.studentRepo, caller, in.StudentID); err != nil {
		return err
	}
	class, err := s.classRepo.FindByID(ctx, in.ClassID)
	if err != nil {
		return fmt.Errorf("授業の取得に失敗しました: %w", err)
	}
	if class == nil {
		return model.NewReferenceNotFoundError("class_id")
	}
	if class.StudentID != in.StudentID {
		return model.NewValidationError("class_id does not belong to student_id")
	}

	schedule.StudentID = in.StudentID
	schedule.ClassID = in.ClassID
	schedule.DayOfWeek = int16(in.DayOfWeek)
	schedule.StartTime = startText
	schedule.EndTime = endText
	return nil
}

// load はスケジュールを取得し、学生の学校へのアクセス権を確認する。
func (s *ScheduleService) load(ctx context.Context, caller *auth.Identity, id string) (*model.Schedule, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("スケジュールの取得に失敗しました: %w", err)
	}
	if schedule == nil {
		return nil, model.NewScheduleNotFoundError(id)
	}
	if _, err := loadStudent(ctx, s.studentRepo, caller, schedule.StudentID); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeStudentNotFound {
			return nil, model.NewScheduleNotFoundError(id)
		}
		return nil, err
	}
	return schedule, nil
}

// parseTimeOfDay は時刻文字列を解析し、model.TimeOfDayLayout形式に正規化する。
func parseTimeOfDay(s string) (time.Time, string, error) {
	for _, layout := range []string{model.TimeOfDayLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, t.Format(model.TimeOfDayLayout), nil
		}
	}
	return time.Time{}, "", fmt.Errorf("invalid time of day: %q", s)
}
