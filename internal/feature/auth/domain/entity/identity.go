package entity

// Identity はトークン検証後にリクエストへ付与される主体です。
// 一般ユーザーの場合は User、管理者の場合は Admin が設定されます。
type Identity struct {
	UserID   uint
	UserName string
	Name     string
	Role     Role

	User  *User
	Admin *AdminPrincipal
}

// IsAdmin は管理者主体かどうかを返します。
func (i *Identity) IsAdmin() bool {
	return i.Admin != nil
}

// Email は通知先のメールアドレスを返します。管理者の場合は空です。
func (i *Identity) Email() string {
	if i.User == nil {
		return ""
	}
	return i.User.Email
}

// IdentityFromUser はユーザーレコードから Identity を生成します。
func IdentityFromUser(u *User) *Identity {
	return &Identity{
		UserID:   u.ID,
		UserName: u.UserName,
		Name:     u.Name,
		Role:     u.Role,
		User:     u,
	}
}

// IdentityFromAdmin は管理者レコードから Identity を生成します。
func IdentityFromAdmin(a *AdminPrincipal) *Identity {
	return &Identity{
		UserID:   a.ID,
		UserName: a.UserName,
		Name:     a.Name,
		Role:     RoleAdmin,
		Admin:    a,
	}
}
