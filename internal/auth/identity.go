package auth

// Identity は検証済みトークンから得たリクエスト単位の認証主体。
type Identity struct {
	UserID   string
	Email    string
	Admin    bool
	Active   bool
	TenantID string
}

// IdentityFromClaims はクレームからIdentityを生成する。
func IdentityFromClaims(c *Claims) *Identity {
	return &Identity{
		UserID:   c.Subject,
		Email:    c.Email,
		Admin:    c.Admin,
		Active:   c.Active,
		TenantID: c.TenantID,
	}
}

// HasTenant はテナント（学校）に紐付いているかを返す。
func (i *Identity) HasTenant() bool {
	return i.TenantID != ""
}

// CanAccessTenant は指定の学校のデータを扱えるかを返す。
// 管理者は制限しない。テナント未所属の一般アカウントはどの学校も扱えない。
func (i *Identity) CanAccessTenant(schoolID string) bool {
	if i.Admin {
		return true
	}
	return i.HasTenant() && i.TenantID == schoolID
}

// CanManageUser は指定ユーザーの更新・削除・パスワード変更を行えるかを返す。
func (i *Identity) CanManageUser(userID string) bool {
	return i.Admin || i.UserID == userID
}
