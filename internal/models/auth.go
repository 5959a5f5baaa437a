package models

import "github.com/golang-jwt/jwt/v5"

// UserRole names the role carried in access tokens.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleGuardian   UserRole = "REPRESENTANTE"
)

// ChangePasswordRequest is forwarded to the club auth service.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"password_actual"`
	NewPassword     string `json:"password_nuevo"`
	ConfirmPassword string `json:"password_confirmacion"`
}

// JWTClaims represents the JWT payload for access tokens issued by the club
// auth service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
