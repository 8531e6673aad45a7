package broadcast

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/broadcast"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBroadcastRepository is a mock implementation of broadcast.Repository
type MockBroadcastRepository struct {
	mock.Mock
}

func (m *MockBroadcastRepository) FindByID(ctx context.Context, id uuid.UUID) (*broadcast.Broadcast, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*broadcast.Broadcast), args.Error(1)
}

func (m *MockBroadcastRepository) FindActive(ctx context.Context) ([]broadcast.Broadcast, error) {
	args := m.Called(ctx)
	return args.Get(0).([]broadcast.Broadcast), args.Error(1)
}

func (m *MockBroadcastRepository) Save(ctx context.Context, b *broadcast.Broadcast) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func TestService_Create(t *testing.T) {
	t.Run("publishes an active broadcast", func(t *testing.T) {
		repo := new(MockBroadcastRepository)
		service := NewService(repo)

		repo.On("Save", mock.Anything, mock.AnythingOfType("*broadcast.Broadcast")).Return(nil)

		resp, err := service.Create(context.Background(), CreateBroadcastRequest{
			Message: "Free shipping all weekend",
		})

		require.NoError(t, err)
		assert.True(t, resp.Active)
		assert.Equal(t, "Free shipping all weekend", resp.Message)
		repo.AssertExpectations(t)
	})

	t.Run("rejects empty message", func(t *testing.T) {
		repo := new(MockBroadcastRepository)
		service := NewService(repo)

		_, err := service.Create(context.Background(), CreateBroadcastRequest{Message: ""})

		assert.Error(t, err)
		repo.AssertNotCalled(t, "Save")
	})
}

func TestService_Cancel(t *testing.T) {
	t.Run("deactivates an active broadcast", func(t *testing.T) {
		repo := new(MockBroadcastRepository)
		service := NewService(repo)

		b, err := broadcast.NewBroadcast("Holiday sale")
		require.NoError(t, err)
		repo.On("FindByID", mock.Anything, b.ID).Return(b, nil)
		repo.On("Save", mock.Anything, b).Return(nil)

		resp, err := service.Cancel(context.Background(), b.ID)

		require.NoError(t, err)
		assert.False(t, resp.Active)
	})

	t.Run("cancelling twice fails", func(t *testing.T) {
		repo := new(MockBroadcastRepository)
		service := NewService(repo)

		b, err := broadcast.NewBroadcast("Holiday sale")
		require.NoError(t, err)
		require.NoError(t, b.Cancel())
		repo.On("FindByID", mock.Anything, b.ID).Return(b, nil)

		_, err = service.Cancel(context.Background(), b.ID)

		assert.Error(t, err)
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("propagates not found", func(t *testing.T) {
		repo := new(MockBroadcastRepository)
		service := NewService(repo)

		id := uuid.New()
		repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := service.Cancel(context.Background(), id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_ListActive(t *testing.T) {
	repo := new(MockBroadcastRepository)
	service := NewService(repo)

	b, err := broadcast.NewBroadcast("Holiday sale")
	require.NoError(t, err)
	repo.On("FindActive", mock.Anything).Return([]broadcast.Broadcast{*b}, nil)

	list, err := service.ListActive(context.Background())

	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.True(t, list[0].Active)
}
