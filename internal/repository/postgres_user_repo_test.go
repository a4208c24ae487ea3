package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/hitoshi/edurecords/internal/model"
)

var repoTestTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "password", "is_active", "is_admin", "school_id", "created_at", "updated_at",
	})
}

// FindByEmailがlower()比較でユーザーを取得すること
func TestPostgresUserRepo_FindByEmail_Found(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	q := `(?s)^SELECT\s+id,\s*email,\s*password,.*FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)$`
	mock.ExpectQuery(q).
		WithArgs("alice@example.com").
		WillReturnRows(userRows().AddRow("u-1", "Alice@example.com", "$2a$12$hash", true, false, "s-1", repoTestTime, nil))

	got, err := repo.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got == nil {
		t.Fatal("expected user, got nil")
	}
	if got.ID != "u-1" || got.PasswordHash != "$2a$12$hash" {
		t.Errorf("unexpected user: %+v", got)
	}
	if got.SchoolID == nil || *got.SchoolID != "s-1" {
		t.Errorf("SchoolID = %v, want s-1", got.SchoolID)
	}
	if got.UpdatedAt != nil {
		t.Errorf("UpdatedAt = %v, want nil", got.UpdatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// 存在しないメールアドレスはnil, nilを返すこと
func TestPostgresUserRepo_FindByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectQuery(`(?s)^SELECT.+FROM\s+users\s+WHERE\s+lower\(email\)`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil user, got %+v", got)
	}
}

// DBエラーはラップして返すこと
func TestPostgresUserRepo_FindByID_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	dbErr := errors.New("db down")
	mock.ExpectQuery(`(?s)^SELECT.+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u-1").
		WillReturnError(dbErr)

	_, err := repo.FindByID(context.Background(), "u-1")
	if !errors.Is(err, dbErr) {
		t.Errorf("error = %v, want wrapped %v", err, dbErr)
	}
}

// school_idがnilの場合はNULLとして挿入すること
func TestPostgresUserRepo_Create_NullSchool(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*password,\s*is_active,\s*is_admin,\s*school_id,\s*created_at\)`
	mock.ExpectExec(q).
		WithArgs("u-1", "alice@example.com", "hash", true, false, nil, repoTestTime).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.User{
		ID:           "u-1",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    repoTestTime,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// 一意制約違反はErrDuplicateに変換されること
func TestPostgresUserRepo_Create_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &model.User{ID: "u-1", Email: "alice@example.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("error = %v, want ErrDuplicate", err)
	}
}

// 外部キー制約違反はErrReferenceNotFoundに変換されること
func TestPostgresUserRepo_Update_UnknownSchool(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+email`).
		WillReturnError(&pq.Error{Code: "23503"})

	schoolID := "missing"
	err := repo.Update(context.Background(), &model.User{ID: "u-1", SchoolID: &schoolID})
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Errorf("error = %v, want ErrReferenceNotFound", err)
	}
}

// 影響行数0の更新はErrNotFoundを返すこと
func TestPostgresUserRepo_Update_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+email`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.User{ID: "u-1"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// UpdatePasswordがパスワードとupdated_atのみを更新すること
func TestPostgresUserRepo_UpdatePassword(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	q := `(?s)^UPDATE\s+users\s+SET\s+password\s*=\s*\$2,\s*updated_at\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).
		WithArgs("u-1", "newhash", repoTestTime).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePassword(context.Background(), "u-1", "newhash", repoTestTime); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresUserRepo_DeleteByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(`^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteByID(context.Background(), "u-1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
