package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Save creates or updates a user
	Save(ctx context.Context, user *User) error
}

// OTPRepository defines the interface for email OTP persistence
type OTPRepository interface {
	// Save persists a new OTP record
	Save(ctx context.Context, otp *EmailOTP) error

	// FindLatest returns the most recently created record matching both
	// email and code, or shared.ErrNotFound
	FindLatest(ctx context.Context, email, code string) (*EmailOTP, error)

	// Consume marks the record used if and only if it is still unused.
	// Returns true when this call performed the consumption. This is the
	// single atomic conditional update that makes consumption exactly-once
	// across concurrent verify/create flows.
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
}
