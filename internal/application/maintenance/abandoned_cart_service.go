package maintenance

import (
	"context"
	"time"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shopping"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"github.com/storefront/backend/internal/infrastructure/notify"
	"go.uber.org/zap"
)

// AbandonedCartService sends reminder emails for carts nobody has touched
// in a while. It is driven by an external cron hitting the maintenance
// endpoint, not by an in-process scheduler.
type AbandonedCartService struct {
	cartRepo shopping.CartRepository
	userRepo identity.UserRepository
	mailer   mail.Sender
	notifier notify.Notifier
	idleAge  time.Duration
	logger   *zap.Logger
}

// NewAbandonedCartService creates a new AbandonedCartService
func NewAbandonedCartService(
	cartRepo shopping.CartRepository,
	userRepo identity.UserRepository,
	mailer mail.Sender,
	notifier notify.Notifier,
	idleAge time.Duration,
	logger *zap.Logger,
) *AbandonedCartService {
	if idleAge <= 0 {
		idleAge = 24 * time.Hour
	}
	return &AbandonedCartService{
		cartRepo: cartRepo,
		userRepo: userRepo,
		mailer:   mailer,
		notifier: notifier,
		idleAge:  idleAge,
		logger:   logger,
	}
}

// Run sends one reminder per idle cart and returns how many were sent.
// Individual mail failures are logged and skipped; one bad address must
// not starve the rest of the sweep.
func (s *AbandonedCartService) Run(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.idleAge)
	userIDs, err := s.cartRepo.FindIdleUserIDs(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, userID := range userIDs {
		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			s.logger.Warn("abandoned cart user lookup failed",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			continue
		}

		err = s.mailer.Send(ctx, mail.Message{
			To:      user.Email,
			Subject: "You left something in your cart",
			Body:    "Your cart is still waiting for you. Come back and finish checking out!",
		})
		if err != nil {
			s.logger.Warn("abandoned cart reminder failed",
				zap.String("email", user.Email),
				zap.Error(err))
			continue
		}
		sent++
	}

	if s.notifier != nil && sent > 0 {
		if err := s.notifier.NotifyAbandonedCarts(ctx, sent); err != nil {
			s.logger.Warn("abandoned cart ops notification failed", zap.Error(err))
		}
	}

	s.logger.Info("abandoned cart sweep finished",
		zap.Int("idle_carts", len(userIDs)),
		zap.Int("reminders_sent", sent))
	return sent, nil
}
