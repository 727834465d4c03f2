package model

import (
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

// CanEdit reports whether the user may edit the given page.
// Admins edit everything; editors only their own pages.
func (u *User) CanEdit(page *Page) bool {
	if u == nil || page == nil {
		return false
	}
	return u.Role == RoleAdmin || u.ID == page.AuthorID
}
