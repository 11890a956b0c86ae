package model

import (
	"github.com/google/uuid"
)

// Identity is the authenticated caller, reconstructed per request from a
// verified token. It is never persisted and is threaded explicitly into
// every operation that needs it.
type Identity struct {
	AccountID uuid.UUID `json:"account_id"`
	Role      Role      `json:"role"`
}

// LoginRequest represents the login form
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the signed token and the sanitized account view
type LoginResponse struct {
	Token string   `json:"token"`
	User  *Account `json:"user"`
}
