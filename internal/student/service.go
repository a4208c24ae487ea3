// Package student は学生・授業・スケジュールの管理ロジックを提供する。
//
// テナント（学校）に紐付いた一般ユーザーは、自分の学校に在籍する学生と
// その授業・スケジュールのみを扱える。管理者は制限されない。
package student

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/edurecords/internal/auth"
	"github.com/hitoshi/edurecords/internal/model"
	"github.com/hitoshi/edurecords/internal/repository"
	"github.com/hitoshi/edurecords/internal/security"
)

// CreateInput は学生作成の入力。UserIDが空の場合は呼び出し元のアカウントを使う。
// 他人のアカウントを指定できるのは管理者のみ。
type CreateInput struct {
	FirstName  string
	LastName   string
	Program    string
	Department *string
	UserID     string
	SchoolID   string
}

// UpdateInput は学生の部分更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	FirstName  *string
	LastName   *string
	Program    *string
	Department *string
	SchoolID   *string
}

// Service は学生管理のサービス層。
type Service struct {
	studentRepo repository.StudentRepository
	sanitizer   security.TextSanitizer
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(studentRepo repository.StudentRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		studentRepo: studentRepo,
		sanitizer:   sanitizer,
		now:         time.Now,
	}
}

// Create は学生を作成する。
func (s *Service) Create(ctx context.Context, caller *auth.Identity, in CreateInput) (*model.Student, error) {
	if !caller.CanAccessTenant(in.SchoolID) {
		return nil, model.NewForbiddenError()
	}
	// 他人のアカウントへの紐付けは管理者のみ
	if !caller.Admin && in.UserID != "" && in.UserID != caller.UserID {
		slog.Warn("student create rejected",
			slog.String("caller_id", caller.UserID),
			slog.String("reason", "foreign_user_id"),
		)
		return nil, model.NewForbiddenError()
	}

	student := &model.Student{
		ID:         uuid.NewString(),
		FirstName:  s.sanitizer.Sanitize(in.FirstName),
		LastName:   s.sanitizer.Sanitize(in.LastName),
		Program:    s.sanitizer.Sanitize(in.Program),
		Department: security.SanitizePtr(s.sanitizer, in.Department),
		UserID:     in.UserID,
		SchoolID:   in.SchoolID,
		CreatedAt:  s.now().UTC(),
	}
	if student.UserID == "" {
		student.UserID = caller.UserID
	}
	if err := validateNames(student); err != nil {
		return nil, err
	}

	if err := s.studentRepo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, model.NewReferenceNotFoundError("user_id or school_id")
		}
		return nil, fmt.Errorf("学生の作成に失敗しました: %w", err)
	}

	slog.Info("student created",
		slog.String("student_id", student.ID),
		slog.String("school_id", student.SchoolID),
	)

	return student, nil
}

// Get は指定IDの学生を返す。
func (s *Service) Get(ctx context.Context, caller *auth.Identity, id string) (*model.Student, error) {
	return loadStudent(ctx, s.studentRepo, caller, id)
}

// ListBySchool は学校に在籍する学生を返す。
func (s *Service) ListBySchool(ctx context.Context, caller *auth.Identity, schoolID string, limit, offset int) ([]*model.Student, error) {
	if !caller.CanAccessTenant(schoolID) {
		return nil, model.NewForbiddenError()
	}

	students, err := s.studentRepo.ListBySchool(ctx, schoolID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("学生一覧の取得に失敗しました: %w", err)
	}
	return students, nil
}

// Update は学生情報を部分更新する。
// 学校を変更する場合は移動先の学校にもアクセスできる必要がある。
func (s *Service) Update(ctx context.Context, caller *auth.Identity, id string, in UpdateInput) (*model.Student, error) {
	student, err := loadStudent(ctx, s.studentRepo, caller, id)
	if err != nil {
		return nil, err
	}

	if in.SchoolID != nil && *in.SchoolID != student.SchoolID {
		if !caller.CanAccessTenant(*in.SchoolID) {
			return nil, model.NewForbiddenError()
		}
		student.SchoolID = *in.SchoolID
	}
	if in.FirstName != nil {
		student.FirstName = s.sanitizer.Sanitize(*in.FirstName)
	}
	if in.LastName != nil {
		student.LastName = s.sanitizer.Sanitize(*in.LastName)
	}
	if in.Program != nil {
		student.Program = s.sanitizer.Sanitize(*in.Program)
	}
	if in.Department != nil {
		student.Department = security.SanitizePtr(s.sanitizer, in.Department)
	}
	if err := validateNames(student); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	student.UpdatedAt = &now

	if err := s.studentRepo.Update(ctx, student); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewStudentNotFoundError(id)
		case errors.Is(err, repository.ErrReferenceNotFound):
			return nil, model.NewReferenceNotFoundError("school_id")
		}
		return nil, fmt.Errorf("学生の更新に失敗しました: %w", err)
	}

	return student, nil
}

// Delete は学生を削除する。授業とスケジュールはCASCADE削除される。
func (s *Service) Delete(ctx context.Context, caller *auth.Identity, id string) error {
	if _, err := loadStudent(ctx, s.studentRepo, caller, id); err != nil {
		return err
	}

	if err := s.studentRepo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewStudentNotFoundError(id)
		}
		return fmt.Errorf("学生の削除に失敗しました: %w", err)
	}

	slog.Info("student deleted",
		slog.String("student_id", id),
		slog.String("deleted_by", caller.UserID),
	)

	return nil
}

// loadStudent は学生を取得し、呼び出し元がその学校にアクセスできるかを確認する。
func loadStudent(ctx context.Context, repo repository.StudentRepository, caller *auth.Identity, id string) (*model.Student, error) {
	student, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("学生の取得に失敗しました: %w", err)
	}
	if student == nil {
		return nil, model.NewStudentNotFoundError(id)
	}
	if !caller.CanAccessTenant(student.SchoolID) {
		slog.Warn("cross-tenant access denied",
			slog.String("user_id", caller.UserID),
			slog.String("tenant_id", caller.TenantID),
			slog.String("student_id", id),
		)
		return nil, model.NewForbiddenError()
	}
	return student, nil
}

func validateNames(student *model.Student) error {
	switch {
	case student.FirstName == "":
		return model.NewValidationError("first_name must not be empty")
	case student.LastName == "":
		return model.NewValidationError("last_name must not be empty")
	case student.Program == "":
		return model.NewValidationError("program must not be empty")
	}
	return nil
}
