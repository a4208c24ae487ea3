// Package user はアカウント管理のドメインロジックを提供する。
package user

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
)

// RegisterInput はアカウント登録の入力。
// 所属学校は登録後に管理者がUpdateで割り当てる。
type RegisterInput struct {
	Email    string
	Password string
}

// UpdateInput はアカウント更新の入力。nilのフィールドは変更しない。
// SchoolID、IsActive、IsAdminは管理者のみ変更できる。
type UpdateInput struct {
	Email    *string
	SchoolID *string
	IsActive *bool
	IsAdmin  *bool
}

// Service はアカウント管理のサービス層。
// 登録、取得、更新、削除、パスワード変更のビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	passwords *auth.PasswordPolicy
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, passwords *auth.PasswordPolicy) *Service {
	return &Service{
		userRepo:  userRepo,
		passwords: passwords,
		now:       time.Now,
	}
}

// Register は新しいアカウントを作成する。
// パスワードはポリシー検証後にbcryptでハッシュ化し、メールアドレスは小文字に正規化する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := s.passwords.Validate(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        auth.NormalizeEmail(in.Email),
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, translateWriteError(err, "アカウントの作成に失敗しました")
	}

	slog.Info("account registered",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Get は指定アカウントを返す。本人または管理者のみ取得できる。
func (s *Service) Get(ctx context.Context, caller *auth.Identity, id string) (*model.User, error) {
	if !caller.CanManageUser(id) {
		return nil, model.NewForbiddenError()
	}
	return s.find(ctx, id)
}

// Update はアカウント情報を更新する。
func (s *Service) Update(ctx context.Context, caller *auth.Identity, id string, in UpdateInput) (*model.User, error) {
	if !caller.CanManageUser(id) {
		return nil, model.NewForbiddenError()
	}
	// テナントの付け替えはトークンの所属を変えるため、フラグと同じく管理者に限る
	if !caller.Admin && (in.SchoolID != nil || in.IsActive != nil || in.IsAdmin != nil) {
		slog.Warn("account update rejected",
			slog.String("user_id", id),
			slog.String("caller_id", caller.UserID),
			slog.String("reason", "admin_only_field"),
		)
		return nil, model.NewForbiddenError()
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		user.Email = auth.NormalizeEmail(*in.Email)
	}
	if in.SchoolID != nil {
		user.SchoolID = in.SchoolID
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.IsAdmin != nil {
		user.IsAdmin = *in.IsAdmin
	}
	now := s.now().UTC()
	user.UpdatedAt = &now

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewUserNotFoundError(id)
		}
		return nil, translateWriteError(err, "アカウントの更新に失敗しました")
	}

	return user, nil
}

// Delete はアカウントを削除する。
// 関連するstudents、classes、schedulesはCASCADE削除される。
func (s *Service) Delete(ctx context.Context, caller *auth.Identity, id string) error {
	if !caller.CanManageUser(id) {
		return model.NewForbiddenError()
	}

	if err := s.userRepo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError(id)
		}
		return fmt.Errorf("アカウントの削除に失敗しました: %w", err)
	}

	slog.Info("account deleted",
		slog.String("user_id", id),
		slog.String("deleted_by", caller.UserID),
	)

	return nil
}

// ChangePassword は現在のパスワードを確認したうえでパスワードを変更する。
// 管理者であっても現在のパスワードの確認は省略しない。
func (s *Service) ChangePassword(ctx context.Context, caller *auth.Identity, id, oldPassword, newPassword string) error {
	if !caller.CanManageUser(id) {
		return model.NewForbiddenError()
	}

	if err := s.passwords.Validate(newPassword); err != nil {
		return err
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if !s.passwords.Verify(oldPassword, user.PasswordHash) {
		slog.Warn("password change rejected",
			slog.String("user_id", id),
			slog.String("reason", "wrong_password"),
		)
		return model.NewValidationError("old_password is incorrect")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, id, hash, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError(id)
		}
		return fmt.Errorf("パスワードの更新に失敗しました: %w", err)
	}

	slog.Info("password changed",
		slog.String("user_id", id),
	)

	return nil
}

func (s *Service) find(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

// translateWriteError は書き込み時の制約違反をクライアント向けエラーに変換する。
func translateWriteError(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return model.NewEmailTakenError()
	case errors.Is(err, repository.ErrReferenceNotFound):
		return model.NewReferenceNotFoundError("school_id")
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
