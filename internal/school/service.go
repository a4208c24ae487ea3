// Package school はテナントである学校の管理ロジックを提供する。
package school

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/edurecords/internal/model"
	"github.com/hitoshi/edurecords/internal/repository"
	"github.com/hitoshi/edurecords/internal/security"
)

// Input は学校の作成・更新の入力。
type Input struct {
	Name    string
	Website string
}

// Service は学校管理のサービス層。
// 作成・更新・削除の権限チェックはルーター側の管理者ゲートで行う。
type Service struct {
	schoolRepo repository.SchoolRepository
	sanitizer  security.TextSanitizer
	now        func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(schoolRepo repository.SchoolRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		schoolRepo: schoolRepo,
		sanitizer:  sanitizer,
		now:        time.Now,
	}
}

// Create は学校を作成する。
func (s *Service) Create(ctx context.Context, in Input) (*model.School, error) {
	name := s.sanitizer.Sanitize(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name must not be empty")
	}

	school := &model.School{
		ID:        uuid.NewString(),
		Name:      name,
		Website:   in.Website,
		CreatedAt: s.now().UTC(),
	}

	if err := s.schoolRepo.Create(ctx, school); err != nil {
		return nil, fmt.Errorf("学校の作成に失敗しました: %w", err)
	}

	slog.Info("school created",
		slog.String("school_id", school.ID),
	)

	return school, nil
}

// Get は指定IDの学校を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.School, error) {
	school, err := s.schoolRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("学校の取得に失敗しました: %w", err)
	}
	if school == nil {
		return nil, model.NewSchoolNotFoundError(id)
	}
	return school, nil
}

// List は学校を名前順に返す。
func (s *Service) List(ctx context.Context, limit, offset int) ([]*model.School, error) {
	schools, err := s.schoolRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("学校一覧の取得に失敗しました: %w", err)
	}
	return schools, nil
}

// Update は学校名とWebサイトを更新する。
func (s *Service) Update(ctx context.Context, id string, in Input) (*model.School, error) {
	name := s.sanitizer.Sanitize(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name must not be empty")
	}

	school, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	school.Name = name
	school.Website = in.Website
	now := s.now().UTC()
	school.UpdatedAt = &now

	if err := s.schoolRepo.Update(ctx, school); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewSchoolNotFoundError(id)
		}
		return nil, fmt.Errorf("学校の更新に失敗しました: %w", err)
	}

	return school, nil
}

// Delete は学校を削除する。所属する学生とその授業・スケジュールも削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.schoolRepo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewSchoolNotFoundError(id)
		}
		return fmt.Errorf("学校の削除に失敗しました: %w", err)
	}

	slog.Info("school deleted",
		slog.String("school_id", id),
	)

	return nil
}
