package models

import (
	"time"
)

// User represents a reviewer account in the users registry
type User struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Email          string    `json:"email" yaml:"email"`
	HashedPassword string    `json:"-" yaml:"password_hash"` // Never expose in JSON
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

// LoginRequest represents authentication request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents authentication response with JWT token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// UserInfo represents safe user information (without sensitive data)
type UserInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserInfo converts User to UserInfo (safe for API responses)
func (u *User) ToUserInfo() UserInfo {
	return UserInfo{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// ToAuthor converts User to the Author identity used on annotations and in
// the snapshot's currentUser field.
func (u *User) ToAuthor() Author {
	return Author{
		ID:   u.ID,
		Name: u.Name,
		Type: AuthorTypeHuman,
	}
}
