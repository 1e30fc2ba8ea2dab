package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SignupRequest holds the fields accepted when creating an account.
type SignupRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	Pin            string `json:"pin,omitempty"`
	OutreachSource string `json:"outreach_source"`
}

// SignupResponse returns the identifier of the created account.
type SignupResponse struct {
	AccountID string   `json:"account_id"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
}

// LoginRequest holds credentials for authenticating an account.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Pin      string `json:"pin,omitempty"`
}

// LoginResponse returns the issued bearer token and identity.
type LoginResponse struct {
	Token     string   `json:"token"`
	AccountID string   `json:"account_id"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	ExpiresIn int64    `json:"expires_in"`
}

// JWTClaims represents the payload of an access token.
type JWTClaims struct {
	AccountID string   `json:"account_id"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	jwt.RegisteredClaims
}
