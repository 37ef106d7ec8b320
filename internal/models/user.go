package models

import "time"

// User represents an account that owns tasks.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"created_at"`
}

// UserSummary is the public view of a user returned alongside tokens.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Summary strips everything but the public identity fields.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email}
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}
