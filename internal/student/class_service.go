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
	"github.com/hitoshi/edurecords/internal/security"
)

// ClassInput は授業の作成・更新の入力。
type ClassInput struct {
	Name      string
	StudentID string
}

// ClassService は授業管理のサービス層。
// 授業へのアクセス可否は履修している学生の学校で判定する。
type ClassService struct {
	classRepo   repository.ClassRepository
	studentRepo repository.StudentRepository
	sanitizer   security.TextSanitizer
	now         func() time.Time
}

// NewClassService はClassServiceの新しいインスタンスを生成する。
func NewClassService(classRepo repository.ClassRepository, studentRepo repository.StudentRepository, sanitizer security.TextSanitizer) *ClassService {
	return &ClassService{
		classRepo:   classRepo,
		studentRepo: studentRepo,
		sanitizer:   sanitizer,
		now:         time.Now,
	}
}

// Create は授業を作成する。
func (s *ClassService) Create(ctx context.Context, caller *auth.Identity, in ClassInput) (*model.Class, error) {
	name := s.sanitizer.Sanitize(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name must not be empty")
	}
	if _, err := referencedStudent(ctx, s.studentRepo, caller, in.StudentID); err != nil {
		return nil, err
	}

	class := &model.Class{
		ID:        uuid.NewString(),
		Name:      name,
		StudentID: in.StudentID,
		CreatedAt: s.now().UTC(),
	}

	if err := s.classRepo.Create(ctx, class); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, model.NewReferenceNotFoundError("student_id")
		}
		return nil, fmt.Errorf("授業の作成に失敗しました: %w", err)
	}

	return class, nil
}

// Get は指定IDの授業を返す。
func (s *ClassService) Get(ctx context.Context, caller *auth.Identity, id string) (*model.Class, error) {
	return loadClass(ctx, s.classRepo, s.studentRepo, caller, id)
}

// Update は授業名と履修学生を更新する。
func (s *ClassService) Update(ctx context.Context, caller *auth.Identity, id string, in ClassInput) (*model.Class, error) {
	name := s.sanitizer.Sanitize(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name must not be empty")
	}

	class, err := loadClass(ctx, s.classRepo, s.studentRepo, caller, id)
	if err != nil {
		return nil, err
	}
	if in.StudentID != class.StudentID {
		if _, err := referencedStudent(ctx, s.studentRepo, caller, in.StudentID); err != nil {
			return nil, err
		}
	}

	class.Name = name
	class.StudentID = in.StudentID
	now := s.now().UTC()
	class.UpdatedAt = &now

	if err := s.classRepo.Update(ctx, class); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewClassNotFoundError(id)
		case errors.Is(err, repository.ErrReferenceNotFound):
			return nil, model.NewReferenceNotFoundError("student_id")
		}
		return nil, fmt.Errorf("授業の更新に失敗しました: %w", err)
	}

	return class, nil
}

// Delete は授業を削除する。スケジュールはCASCADE削除される。
func (s *ClassService) Delete(ctx context.Context, caller *auth.Identity, id string) error {
	if _, err := loadClass(ctx, s.classRepo, s.studentRepo, caller, id); err != nil {
		return err
	}

	if err := s.classRepo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewClassNotFoundError(id)
		}
		return fmt.Errorf("授業の削除に失敗しました: %w", err)
	}
	return nil
}

// referencedStudent はリクエストボディで参照された学生を取得する。
// 存在しない場合は404ではなく参照エラーにする。
func referencedStudent(ctx context.Context, repo repository.StudentRepository, caller *auth.Identity, studentID string) (*model.Student, error) {
	student, err := loadStudent(ctx, repo, caller, studentID)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeStudentNotFound {
			return nil, model.NewReferenceNotFoundError("student_id")
		}
		return nil, err
	}
	return student, nil
}

// loadClass は授業を取得し、履修学生の学校へのアクセス権を確認する。
func loadClass(ctx context.Context, classRepo repository.ClassRepository, studentRepo repository.StudentRepository, caller *auth.Identity, id string) (*model.Class, error) {
	class, err := classRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("授業の取得に失敗しました: %w", err)
	}
	if class == nil {
		return nil, model.NewClassNotFoundError(id)
	}
	if _, err := loadStudent(ctx, studentRepo, caller, class.StudentID); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeStudentNotFound {
			// 取得の間に学生が削除された場合、授業もCASCADE削除されている
			return nil, model.NewClassNotFoundError(id)
		}
		return nil, err
	}
	return class, nil
}
