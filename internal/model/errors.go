package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, records, system
	Action   string // クライアント向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeWeakPassword       = "WEAK_PASSWORD"
	ErrCodeInvalidID          = "INVALID_ID"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInactiveAccount    = "INACTIVE_ACCOUNT"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeReferenceNotFound  = "REFERENCE_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeSchoolNotFound     = "SCHOOL_NOT_FOUND"
	ErrCodeStudentNotFound    = "STUDENT_NOT_FOUND"
	ErrCodeClassNotFound      = "CLASS_NOT_FOUND"
	ErrCodeScheduleNotFound   = "SCHEDULE_NOT_FOUND"
	ErrCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "failed to parse request body",
		Category: "validation",
		Action:   "Send a well-formed JSON body.",
	}
}

// NewValidationError は入力値の検証エラーを生成する。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("validation failed: %s", detail),
		Category: "validation",
		Action:   "Fix the listed fields and retry.",
	}
}

// NewWeakPasswordError はパスワードポリシー違反エラーを生成する。
func NewWeakPasswordError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  reason,
		Category: "validation",
		Action:   "Use at least 8 characters and avoid common passwords.",
	}
}

// NewInvalidIDError はパスパラメータのID形式エラーを生成する。
func NewInvalidIDError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("invalid id: %s", id),
		Category: "validation",
		Action:   "Specify a UUID.",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレスの存在有無にかかわらず同じ内容を返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "invalid credentials",
		Category: "auth",
		Action:   "Check your email address and password.",
	}
}

// NewUnauthorizedError は認証が必要なルートへの未認証アクセスエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "unauthorized",
		Category: "auth",
		Action:   "Log in and send the token as 'Authorization: Bearer <token>'.",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "forbidden",
		Category: "auth",
		Action:   "This operation is not allowed for your account.",
	}
}

// NewInactiveAccountError は無効化されたアカウントによる更新操作のエラーを生成する。
func NewInactiveAccountError() *APIError {
	return &APIError{
		Code:     ErrCodeInactiveAccount,
		Message:  "account is inactive",
		Category: "auth",
		Action:   "Contact an administrator to reactivate the account.",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "email address is already registered",
		Category: "validation",
		Action:   "Use another email address or log in.",
	}
}

// NewReferenceNotFoundError は参照先エンティティが存在しない場合のエラーを生成する。
func NewReferenceNotFoundError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeReferenceNotFound,
		Message:  fmt.Sprintf("referenced record does not exist: %s", field),
		Category: "validation",
		Action:   "Check the referenced id.",
	}
}

func newNotFoundError(code, resource, id string) *APIError {
	return &APIError{
		Code:     code,
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
		Category: "records",
		Action:   fmt.Sprintf("Check the %s id.", resource),
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(id string) *APIError {
	return newNotFoundError(ErrCodeUserNotFound, "user", id)
}

// NewSchoolNotFoundError は学校が見つからない場合のエラーを生成する。
func NewSchoolNotFoundError(id string) *APIError {
	return newNotFoundError(ErrCodeSchoolNotFound, "school", id)
}

// NewStudentNotFoundError は学生が見つからない場合のエラーを生成する。
func NewStudentNotFoundError(id string) *APIError {
	return newNotFoundError(ErrCodeStudentNotFound, "student", id)
}

// NewClassNotFoundError は授業が見つからない場合のエラーを生成する。
func NewClassNotFoundError(id string) *APIError {
	return newNotFoundError(ErrCodeClassNotFound, "class", id)
}

// NewScheduleNotFoundError はスケジュールが見つからない場合のエラーを生成する。
func NewScheduleNotFoundError(id string) *APIError {
	return newNotFoundError(ErrCodeScheduleNotFound, "schedule", id)
}

// NewRateLimitError はレート制限超過エラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "too many requests",
		Category: "system",
		Action:   "Wait and retry after the time given in Retry-After.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "internal server error",
		Category: "system",
		Action:   "Retry after a while.",
	}
}
