package models

import (
	"time"

	"github.com/google/uuid"
)

// OAuth providers supported for social login.
const (
	ProviderGoogle = "google"
	ProviderKakao  = "kakao"
	ProviderNaver  = "naver"
)

// User represents an account. An account is created either with a local
// username/password (PasswordHash set) or through an OAuth provider
// (Provider + OAuthID set). A local account that later signs in through a
// provider with the same email keeps its id and hash and carries both.
type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"`
	Name           string    `json:"name"`
	Provider       string    `json:"provider,omitempty"`
	OAuthID        string    `json:"-"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasPassword reports whether local password login is possible for this account.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// HasProvider reports whether the account is linked to an OAuth provider.
func (u *User) HasProvider() bool {
	return u.Provider != ""
}

// Public returns the fields safe to hand back to the client.
func (u *User) Public() map[string]interface{} {
	return map[string]interface{}{
		"id":              u.ID.String(),
		"username":        u.Username,
		"name":            u.Name,
		"provider":        u.Provider,
		"profile_picture": u.ProfilePicture,
	}
}
