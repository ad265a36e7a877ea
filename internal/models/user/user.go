package user

import (
	"time"

	"github.com/google/uuid"
)

// User хранится в хранилище пользователей; пароль только в виде bcrypt-хеша.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsStaff      bool      `json:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity - проверенная личность из access-токена.
type Identity struct {
	UserID      uuid.UUID
	Username    string
	IsStaff     bool
	IsSuperuser bool
}

func (u *User) Identity() Identity {
	return Identity{
		UserID:      u.ID,
		Username:    u.Username,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}
