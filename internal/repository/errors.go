package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound は更新・削除対象の行が存在しないことを表す。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate は一意制約違反を表す。
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenceNotFound は外部キー制約違反（参照先なし）を表す。
	ErrReferenceNotFound = errors.New("referenced record not found")
)

// PostgreSQLのSQLSTATE
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// wrapError はドライバーエラーを操作名付きでラップする。
// 一意制約違反と外部キー制約違反はセンチネルエラーに変換する。
func wrapError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("failed to %s: %w", op, ErrDuplicate)
		case pqForeignKeyViolation:
			return fmt.Errorf("failed to %s: %w", op, ErrReferenceNotFound)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// expectAffected はExecの結果が1行以上に影響したことを確認する。
func expectAffected(op string, rowsAffected int64, err error) error {
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("failed to %s: %w", op, ErrNotFound)
	}
	return nil
}
