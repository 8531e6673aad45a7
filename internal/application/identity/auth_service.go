package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"go.uber.org/zap"
)

// AuthService handles signup, verification and session operations.
//
// Signup is OTP-first: a code is mailed to the address, then either the
// verify flow confirms an existing unconfirmed account or the
// create-account flow redeems the code for a brand-new one. A code can be
// consumed by exactly one of those two flows; consumption is a single
// conditional update in the repository, so two concurrent redemptions of
// the same code cannot both win.
type AuthService struct {
	userRepo   identity.UserRepository
	otpRepo    identity.OTPRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	otpLimiter auth.RateLimiter
	mailer     mail.Sender
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo identity.UserRepository,
	otpRepo identity.OTPRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	otpLimiter auth.RateLimiter,
	mailer mail.Sender,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		otpRepo:    otpRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		otpLimiter: otpLimiter,
		mailer:     mailer,
		logger:     logger,
	}
}

// SendOTP generates a verification code and emails it. Unlike the other
// outbound mail, delivery failure here is fatal: without the code the
// signup cannot continue. Requests are limited per email address so a
// single address cannot be flooded with codes.
func (s *AuthService) SendOTP(ctx context.Context, req SendOTPRequest) error {
	otp, err := identity.NewEmailOTP(req.Email)
	if err != nil {
		return err
	}

	if s.otpLimiter != nil {
		allowed, err := s.otpLimiter.Allow(ctx, "otp:"+otp.Email)
		if err != nil {
			// Fail open: a limiter outage must not stop signups.
			s.logger.Warn("OTP rate limiter unavailable",
				zap.String("email", otp.Email),
				zap.Error(err))
		} else if !allowed {
			return shared.NewDomainError("RATE_LIMITED",
				"Too many verification codes requested. Try again later.")
		}
	}

	if err := s.otpRepo.Save(ctx, otp); err != nil {
		return err
	}

	err = s.mailer.Send(ctx, mail.Message{
		To:      otp.Email,
		Subject: "Your verification code",
		Body:    fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", otp.Code),
	})
	if err != nil {
		s.logger.Error("failed to send verification code",
			zap.String("email", otp.Email),
			zap.Error(err))
		return err
	}
	return nil
}

// VerifyOTP checks a code. For an existing unconfirmed account it also
// confirms the account and consumes the code; for a brand-new email the
// code stays live so CreateAccount can redeem it.
func (s *AuthService) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*VerifyOTPResponse, error) {
	email, err := identity.NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	otp, err := s.findValidOTP(ctx, email, req.OTP)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, shared.ErrNotFound) {
		return &VerifyOTPResponse{Verified: true, UserExists: false}, nil
	}
	if err != nil {
		return nil, err
	}

	if !user.Confirmed {
		consumed, err := s.otpRepo.Consume(ctx, otp.ID)
		if err != nil {
			return nil, err
		}
		if !consumed {
			return nil, shared.ErrCodeUsed
		}
		user.Confirm()
		if err := s.userRepo.Save(ctx, user); err != nil {
			return nil, err
		}
	}
	return &VerifyOTPResponse{Verified: true, UserExists: true}, nil
}

// CreateAccount redeems a code for a new, pre-confirmed account
func (s *AuthService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*AuthResponse, error) {
	email, err := identity.NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	otp, err := s.findValidOTP(ctx, email, req.OTP)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, shared.ErrAlreadyExists
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	// Consume before creating the account so a raced duplicate request
	// loses here instead of tripping the unique index later.
	consumed, err := s.otpRepo.Consume(ctx, otp.ID)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, shared.ErrCodeUsed
	}

	user, err := identity.NewConfirmedUser(email, req.Password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("account created", zap.String("email", email))
	return s.issueToken(user)
}

// Login authenticates a confirmed account and issues a session token
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email, err := identity.NormalizeEmail(req.Email)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		// Same error for unknown email and wrong password.
		return nil, shared.ErrUnauthorized
	}
	if !user.VerifyPassword(req.Password) {
		return nil, shared.ErrUnauthorized
	}
	if !user.Confirmed {
		return nil, shared.NewDomainError("UNCONFIRMED", "Account email is not verified")
	}

	return s.issueToken(user)
}

// Logout revokes the presented token for its remaining lifetime
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	ttl := claims.RemainingValidity()
	if ttl <= 0 {
		return nil
	}
	return s.blacklist.Add(ctx, claims.ID, ttl)
}

// findValidOTP resolves a code to a live record, mapping every miss to the
// same taxonomy the callers expose: InvalidCode, CodeUsed, CodeExpired.
func (s *AuthService) findValidOTP(ctx context.Context, email, code string) (*identity.EmailOTP, error) {
	otp, err := s.otpRepo.FindLatest(ctx, email, code)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrInvalidCode
	}
	if err != nil {
		return nil, err
	}
	if err := otp.Validate(); err != nil {
		return nil, err
	}
	return otp, nil
}

func (s *AuthService) issueToken(user *identity.User) (*AuthResponse, error) {
	token, expiresAt, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      ToUserResponse(user),
	}, nil
}
