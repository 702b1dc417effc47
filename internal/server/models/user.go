// Package models defines server-side records persisted in the database.
package models

import "time"

// ActionPurpose tags the pending single-use action token of a user.
type ActionPurpose string

const (
	PurposeNone          ActionPurpose = ""
	PurposeVerifyEmail   ActionPurpose = "verify_email"
	PurposeResetPassword ActionPurpose = "reset_password"
)

// User is the identity record. PasswordHash never leaves the server; use
// Public for any outward representation.
type User struct {
	ID             string
	Name           string
	Surname        string
	PersonalIDCode string
	Email          string
	PasswordHash   string `json:"-"`
	IsVerified     bool

	// ActionToken holds the one pending verification or reset token, nil
	// when none is outstanding. ActionPurpose says which flow issued it.
	ActionToken   *string
	ActionPurpose ActionPurpose

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SetActionToken stores token as the pending action for purpose.
func (u *User) SetActionToken(token string, purpose ActionPurpose) {
	u.ActionToken = &token
	u.ActionPurpose = purpose
}

// ClearActionToken drops any pending action token.
func (u *User) ClearActionToken() {
	u.ActionToken = nil
	u.ActionPurpose = PurposeNone
}

// HasActionToken reports whether token is the pending action token for purpose.
func (u *User) HasActionToken(token string, purpose ActionPurpose) bool {
	return u.ActionToken != nil && *u.ActionToken == token && u.ActionPurpose == purpose
}

// PublicUser is the externally visible projection of a User.
type PublicUser struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Surname        string    `json:"surname"`
	PersonalIDCode string    `json:"personalIdCode"`
	Email          string    `json:"email"`
	IsVerified     bool      `json:"isVerified"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:             u.ID,
		Name:           u.Name,
		Surname:        u.Surname,
		PersonalIDCode: u.PersonalIDCode,
		Email:          u.Email,
		IsVerified:     u.IsVerified,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
