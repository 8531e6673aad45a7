package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/shopping"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"github.com/storefront/backend/internal/infrastructure/notify"
	"github.com/storefront/backend/internal/infrastructure/payment"
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

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
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

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockGateway is a mock implementation of payment.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, input payment.ChargeInput) (*payment.ChargeResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.ChargeResult), args.Error(1)
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

type checkoutFixture struct {
	cartRepo    *MockCartRepository
	orderRepo   *MockOrderRepository
	userRepo    *MockUserRepository
	productRepo *MockProductRepository
	gateway     *MockGateway
	mailer      *MockMailSender
	notifier    *MockNotifier
	service     *CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		cartRepo:    new(MockCartRepository),
		orderRepo:   new(MockOrderRepository),
		userRepo:    new(MockUserRepository),
		productRepo: new(MockProductRepository),
		gateway:     new(MockGateway),
		mailer:      new(MockMailSender),
		notifier:    new(MockNotifier),
	}
	f.service = NewCheckoutService(
		f.cartRepo, f.orderRepo, f.userRepo, f.productRepo,
		newTestCalculator(t), f.gateway, f.mailer, f.notifier,
		zap.NewNop(),
	)
	return f
}

func testUser(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewConfirmedUser("buyer@example.com", "longenoughpassword")
	require.NoError(t, err)
	return user
}

func cartLine(t *testing.T, userID uuid.UUID, name string, price float64, quantity int) shopping.CartItem {
	t.Helper()
	product, err := catalog.NewProduct(name, "", valueobject.NewMoneyUSDFromFloat(price))
	require.NoError(t, err)
	item, err := shopping.NewCartItem(userID, product.ID)
	require.NoError(t, err)
	require.NoError(t, item.SetQuantity(quantity))
	item.Product = product
	return *item
}

// liveProducts is what the catalog hands back for the given cart lines.
func liveProducts(items ...shopping.CartItem) []catalog.Product {
	products := make([]catalog.Product, 0, len(items))
	for _, item := range items {
		products = append(products, *item.Product)
	}
	return products
}

func TestCheckoutService_Checkout(t *testing.T) {
	t.Run("places an order above the free shipping threshold", func(t *testing.T) {
		f := newCheckoutFixture(t)
		user := testUser(t)

		lines := []shopping.CartItem{
			cartLine(t, user.ID, "Desk Lamp", 20.00, 2),
			cartLine(t, user.ID, "Cable Tray", 15.00, 1),
		}
		f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.cartRepo.On("FindByUser", mock.Anything, user.ID).Return(lines, nil)
		f.productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return(liveProducts(lines...), nil)
		f.gateway.On("Charge", mock.Anything, mock.MatchedBy(func(input payment.ChargeInput) bool {
			return input.Amount.Equal(decimal.RequireFromString("59.40"))
		})).Return(&payment.ChargeResult{CardBrand: "visa", CardLast4: "4242"}, nil)
		f.orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)
		f.cartRepo.On("Clear", mock.Anything, user.ID).Return(nil)
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
		f.notifier.On("NotifyOrderPlaced", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.service.Checkout(context.Background(), user.ID, CheckoutRequest{
			ShippingAddress: "12 Harbor Lane, Portland OR",
			PaymentToken:    "pm_test_visa",
		})

		require.NoError(t, err)
		assert.True(t, resp.Subtotal.Equal(decimal.RequireFromString("55.00")))
		assert.True(t, resp.ShippingFee.IsZero())
		assert.True(t, resp.Tax.Equal(decimal.RequireFromString("4.40")))
		assert.True(t, resp.Total.Equal(decimal.RequireFromString("59.40")))
		assert.Equal(t, "pending", resp.Status)
		assert.Equal(t, "ordered", resp.ShippingStage)
		assert.Equal(t, "buyer@example.com", resp.ContactEmail)
		f.cartRepo.AssertExpectations(t)
		f.orderRepo.AssertExpectations(t)
	})

	t.Run("charges flat shipping below the threshold", func(t *testing.T) {
		f := newCheckoutFixture(t)
		user := testUser(t)

		lines := []shopping.CartItem{cartLine(t, user.ID, "Coaster Set", 10.00, 1)}
		f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.cartRepo.On("FindByUser", mock.Anything, user.ID).Return(lines, nil)
		f.productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return(liveProducts(lines...), nil)
		f.gateway.On("Charge", mock.Anything, mock.MatchedBy(func(input payment.ChargeInput) bool {
			return input.Amount.Equal(decimal.RequireFromString("16.79"))
		})).Return(&payment.ChargeResult{}, nil)
		f.orderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.cartRepo.On("Clear", mock.Anything, user.ID).Return(nil)
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
		f.notifier.On("NotifyOrderPlaced", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.service.Checkout(context.Background(), user.ID, CheckoutRequest{
			ShippingAddress: "12 Harbor Lane, Portland OR",
		})

		require.NoError(t, err)
		assert.True(t, resp.ShippingFee.Equal(decimal.RequireFromString("5.99")))
		assert.True(t, resp.Tax.Equal(decimal.RequireFromString("0.80")))
		assert.True(t, resp.Total.Equal(decimal.RequireFromString("16.79")))
	})

	t.Run("rejects an empty cart without charging", func(t *testing.T) {
		f := newCheckoutFixture(t)
		user := testUser(t)

		f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.cartRepo.On("FindByUser", mock.Anything, user.ID).Return([]shopping.CartItem{}, nil)

		_, err := f.service.Checkout(context.Background(), user.ID, CheckoutRequest{
			ShippingAddress: "12 Harbor Lane, Portland OR",
		})

		assert.ErrorIs(t, err, shared.ErrEmptyCart)
		f.gateway.AssertNotCalled(t, "Charge")
		f.orderRepo.AssertNotCalled(t, "Create")
	})

	t.Run("failed charge leaves no order and keeps the cart", func(t *testing.T) {
		f := newCheckoutFixture(t)
		user := testUser(t)

		lines := []shopping.CartItem{cartLine(t, user.ID, "Coaster Set", 10.00, 1)}
		f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.cartRepo.On("FindByUser", mock.Anything, user.ID).Return(lines, nil)
		f.productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return(liveProducts(lines...), nil)
		f.gateway.On("Charge", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		_, err := f.service.Checkout(context.Background(), user.ID, CheckoutRequest{
			ShippingAddress: "12 Harbor Lane, Portland OR",
			PaymentToken:    "pm_test_declined",
		})

		assert.Error(t, err)
		f.orderRepo.AssertNotCalled(t, "Create")
		f.cartRepo.AssertNotCalled(t, "Clear")
	})

	t.Run("rejects cart lines whose product disappeared", func(t *testing.T) {
		f := newCheckoutFixture(t)
		user := testUser(t)

		dangling := cartLine(t, user.ID, "Ghost Product", 10.00, 1)

		f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.cartRepo.On("FindByUser", mock.Anything, user.ID).Return([]shopping.CartItem{dangling}, nil)
		f.productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{}, nil)

		_, err := f.service.Checkout(context.Background(), user.ID, CheckoutRequest{
			ShippingAddress: "12 Harbor Lane, Portland OR",
		})

		assert.Error(t, err)
		f.gateway.AssertNotCalled(t, "Charge")
	})

	t.Run("charges the live catalog price over a stale cart preload", func(t *testing.T) {
		f := newCheckoutFixture(t)
		user := testUser(t)

		line := cartLine(t, user.ID, "Coaster Set", 10.00, 1)
		repriced := *line.Product
		repriced.Price = decimal.RequireFromString("12.50")

		f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.cartRepo.On("FindByUser", mock.Anything, user.ID).Return([]shopping.CartItem{line}, nil)
		f.productRepo.On("FindByIDs", mock.Anything, []uuid.UUID{line.ProductID}).
			Return([]catalog.Product{repriced}, nil)
		f.gateway.On("Charge", mock.Anything, mock.Anything).Return(&payment.ChargeResult{}, nil)
		f.orderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.cartRepo.On("Clear", mock.Anything, user.ID).Return(nil)
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
		f.notifier.On("NotifyOrderPlaced", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.service.Checkout(context.Background(), user.ID, CheckoutRequest{
			ShippingAddress: "12 Harbor Lane, Portland OR",
		})

		require.NoError(t, err)
		assert.True(t, resp.Subtotal.Equal(decimal.RequireFromString("12.50")))
		require.Len(t, resp.Items, 1)
		assert.True(t, resp.Items[0].UnitPrice.Equal(decimal.RequireFromString("12.50")))
		f.productRepo.AssertExpectations(t)
	})

	t.Run("ops notification carries only card brand and last four", func(t *testing.T) {
		f := newCheckoutFixture(t)
		user := testUser(t)

		lines := []shopping.CartItem{cartLine(t, user.ID, "Coaster Set", 10.00, 1)}
		f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.cartRepo.On("FindByUser", mock.Anything, user.ID).Return(lines, nil)
		f.productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return(liveProducts(lines...), nil)
		f.gateway.On("Charge", mock.Anything, mock.Anything).
			Return(&payment.ChargeResult{ProviderChargeID: "ch_1", CardBrand: "visa", CardLast4: "4242"}, nil)
		f.orderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.cartRepo.On("Clear", mock.Anything, user.ID).Return(nil)
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
		f.notifier.On("NotifyOrderPlaced", mock.Anything, mock.MatchedBy(func(event notify.OrderPlacedEvent) bool {
			return event.Payment.CardBrand == "visa" && event.Payment.CardLast4 == "4242"
		})).Return(nil)

		_, err := f.service.Checkout(context.Background(), user.ID, CheckoutRequest{
			ShippingAddress: "12 Harbor Lane, Portland OR",
			PaymentToken:    "pm_test_visa",
		})

		require.NoError(t, err)
		f.notifier.AssertExpectations(t)
	})

	t.Run("mail and notify failures do not fail the checkout", func(t *testing.T) {
		f := newCheckoutFixture(t)
		user := testUser(t)

		lines := []shopping.CartItem{cartLine(t, user.ID, "Coaster Set", 10.00, 1)}
		f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.cartRepo.On("FindByUser", mock.Anything, user.ID).Return(lines, nil)
		f.productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return(liveProducts(lines...), nil)
		f.gateway.On("Charge", mock.Anything, mock.Anything).Return(&payment.ChargeResult{}, nil)
		f.orderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.cartRepo.On("Clear", mock.Anything, user.ID).Return(nil)
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(assert.AnError)
		f.notifier.On("NotifyOrderPlaced", mock.Anything, mock.Anything).Return(assert.AnError)

		resp, err := f.service.Checkout(context.Background(), user.ID, CheckoutRequest{
			ShippingAddress: "12 Harbor Lane, Portland OR",
		})

		require.NoError(t, err)
		assert.NotNil(t, resp)
	})
}
