package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shopping"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"github.com/storefront/backend/internal/infrastructure/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockCartRepository is a mock implementation of shopping.CartRepository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]shopping.CartItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]shopping.CartItem), args.Error(1)
}

func (m *MockCartRepository) FindItem(ctx context.Context, userID, productID uuid.UUID) (*shopping.CartItem, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopping.CartItem), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, item *shopping.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *MockCartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockCartRepository) FindIdleUserIDs(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockMailSender is a mock implementation of mail.Sender
type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockNotifier is a mock implementation of notify.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyOrderPlaced(ctx context.Context, event notify.OrderPlacedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockNotifier) NotifyAbandonedCarts(ctx context.Context, count int) error {
	args := m.Called(ctx, count)
	return args.Error(0)
}

func userWithEmail(t *testing.T, email string) *identity.User {
	t.Helper()
	user, err := identity.NewConfirmedUser(email, "longenoughpassword")
	require.NoError(t, err)
	return user
}

func TestAbandonedCartService_Run(t *testing.T) {
	t.Run("emails each idle cart owner and reports the count", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		userRepo := new(MockUserRepository)
		mailer := new(MockMailSender)
		notifier := new(MockNotifier)
		service := NewAbandonedCartService(cartRepo, userRepo, mailer, notifier, 24*time.Hour, zap.NewNop())

		alice := userWithEmail(t, "alice@example.com")
		bob := userWithEmail(t, "bob@example.com")

		cartRepo.On("FindIdleUserIDs", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
			return time.Since(cutoff) > 23*time.Hour
		})).Return([]uuid.UUID{alice.ID, bob.ID}, nil)
		userRepo.On("FindByID", mock.Anything, alice.ID).Return(alice, nil)
		userRepo.On("FindByID", mock.Anything, bob.ID).Return(bob, nil)
		mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Twice()
		notifier.On("NotifyAbandonedCarts", mock.Anything, 2).Return(nil)

		sent, err := service.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, sent)
		mailer.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("one bad address does not stop the sweep", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		userRepo := new(MockUserRepository)
		mailer := new(MockMailSender)
		notifier := new(MockNotifier)
		service := NewAbandonedCartService(cartRepo, userRepo, mailer, notifier, 24*time.Hour, zap.NewNop())

		alice := userWithEmail(t, "alice@example.com")
		bob := userWithEmail(t, "bob@example.com")

		cartRepo.On("FindIdleUserIDs", mock.Anything, mock.Anything).
			Return([]uuid.UUID{alice.ID, bob.ID}, nil)
		userRepo.On("FindByID", mock.Anything, alice.ID).Return(alice, nil)
		userRepo.On("FindByID", mock.Anything, bob.ID).Return(bob, nil)
		mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
			return msg.To == "alice@example.com"
		})).Return(assert.AnError)
		mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
			return msg.To == "bob@example.com"
		})).Return(nil)
		notifier.On("NotifyAbandonedCarts", mock.Anything, 1).Return(nil)

		sent, err := service.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, sent)
	})

	t.Run("missing user is skipped", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		userRepo := new(MockUserRepository)
		mailer := new(MockMailSender)
		service := NewAbandonedCartService(cartRepo, userRepo, mailer, nil, 0, zap.NewNop())

		ghost := uuid.New()
		cartRepo.On("FindIdleUserIDs", mock.Anything, mock.Anything).Return([]uuid.UUID{ghost}, nil)
		userRepo.On("FindByID", mock.Anything, ghost).Return(nil, shared.ErrNotFound)

		sent, err := service.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, sent)
		mailer.AssertNotCalled(t, "Send")
	})

	t.Run("no idle carts sends nothing", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		userRepo := new(MockUserRepository)
		mailer := new(MockMailSender)
		notifier := new(MockNotifier)
		service := NewAbandonedCartService(cartRepo, userRepo, mailer, notifier, 24*time.Hour, zap.NewNop())

		cartRepo.On("FindIdleUserIDs", mock.Anything, mock.Anything).Return([]uuid.UUID{}, nil)

		sent, err := service.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, sent)
		notifier.AssertNotCalled(t, "NotifyAbandonedCarts")
	})
}
