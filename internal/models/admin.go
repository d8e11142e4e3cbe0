package models

import "time"

// Admin is an administrator account. Accounts are seeded at startup and
// never modified by the API.
type Admin struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // Don't include in JSON
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// AdminSummary is the public view of an admin returned on login
type AdminSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Summary drops everything but id and username
func (a *Admin) Summary() AdminSummary {
	return AdminSummary{ID: a.ID, Username: a.Username}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token string       `json:"token"`
	Admin AdminSummary `json:"admin"`
}
