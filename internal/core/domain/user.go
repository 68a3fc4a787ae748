package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	Email        string
	PasswordHash string
	Role         string
	Confirmed    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Claims is the authenticated-request envelope the platform attaches to every
// request: who the caller is and what they are allowed to do.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
