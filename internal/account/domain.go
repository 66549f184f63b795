package account

import "time"

// User represents a stored account. PasswordHash never leaves the package in a
// response; use Public for anything handed to callers.
type User struct {
	ID           int64
	Email        string
	Username     string
	PhoneNumber  string
	Address      string
	PasswordHash string `json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the caller-facing projection of User.
type PublicUser struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Public drops the credential fields.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// NewUser carries the fields required to create an account.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	PhoneNumber  string
	Address      string
}

// UserPatch lists profile changes. Nil fields keep their stored value.
type UserPatch struct {
	Username    *string
	Email       *string
	PhoneNumber *string
	Address     *string
}
