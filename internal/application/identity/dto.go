package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
)

// SendOTPRequest starts a signup by requesting a verification code
type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// VerifyOTPRequest checks a verification code
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

// VerifyOTPResponse reports the verification outcome
type VerifyOTPResponse struct {
	Verified   bool `json:"verified"`
	UserExists bool `json:"user_exists"`
}

// CreateAccountRequest finishes a signup with a verified code
type CreateAccountRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	OTP      string `json:"otp" binding:"required,len=6,numeric"`
}

// LoginRequest authenticates an existing account
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=72"`
}

// UserResponse represents an account in API responses. The password hash
// never appears here.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse carries a fresh session token
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// ToUserResponse converts a domain User to UserResponse
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		Confirmed: u.Confirmed,
		CreatedAt: u.CreatedAt,
	}
}
