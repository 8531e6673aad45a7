package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder(uuid.New(), "1 Main St, Springfield", "buyer@example.com")
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("starts pending and ordered", func(t *testing.T) {
		o := newTestOrder(t)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, StageOrdered, o.ShippingStage)
		assert.Equal(t, valueobject.DefaultCurrency, o.Currency)
	})

	t.Run("rejects empty address", func(t *testing.T) {
		_, err := NewOrder(uuid.New(), "", "")
		assert.Error(t, err)
	})

	t.Run("rejects nil user", func(t *testing.T) {
		_, err := NewOrder(uuid.Nil, "1 Main St", "")
		assert.Error(t, err)
	})
}

func TestOrder_AddItem(t *testing.T) {
	o := newTestOrder(t)

	item, err := o.AddItem(uuid.New(), "Mug", 2, valueobject.NewMoneyUSDFromFloat(12.345))
	require.NoError(t, err)

	// Snapshot price is rounded to cents at capture time.
	assert.True(t, item.UnitPrice.Equal(decimal.NewFromFloat(12.35)))
	assert.Equal(t, o.ID, item.OrderID)
	assert.Equal(t, 2, o.ItemCount())

	_, err = o.AddItem(uuid.New(), "Mug", 0, valueobject.ZeroUSD())
	assert.Error(t, err)

	_, err = o.AddItem(uuid.Nil, "Mug", 1, valueobject.ZeroUSD())
	assert.Error(t, err)

	_, err = o.AddItem(uuid.New(), "", 1, valueobject.ZeroUSD())
	assert.Error(t, err)
}

func TestOrder_ChangeStatus(t *testing.T) {
	o := newTestOrder(t)

	require.NoError(t, o.ChangeStatus(StatusProcessing))
	assert.Equal(t, StatusProcessing, o.Status)

	// Statuses are free-form transitions; even backwards moves are allowed.
	require.NoError(t, o.ChangeStatus(StatusPending))
	require.NoError(t, o.ChangeStatus(StatusRefunded))

	assert.Error(t, o.ChangeStatus(Status("mislabeled")))
}

func TestOrder_ChangeShippingStage(t *testing.T) {
	t.Run("advances stage independently of status", func(t *testing.T) {
		o := newTestOrder(t)

		require.NoError(t, o.ChangeShippingStage(StagePreparing))
		require.NoError(t, o.ChangeStatus(StatusProcessing))
		require.NoError(t, o.ChangeShippingStage(StageShipped))
		assert.Equal(t, StageShipped, o.ShippingStage)
	})

	t.Run("terminal status freezes stage", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.ChangeShippingStage(StageShipped))
		require.NoError(t, o.ChangeStatus(StatusCancelled))

		err := o.ChangeShippingStage(StageDelivered)
		assert.Error(t, err)
		assert.Equal(t, StageShipped, o.ShippingStage)
	})

	t.Run("rejects unknown stage", func(t *testing.T) {
		o := newTestOrder(t)
		assert.Error(t, o.ChangeShippingStage(ShippingStage("teleported")))
	})
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusRefunded.IsTerminal())
}

func TestItem_LineTotal(t *testing.T) {
	o := newTestOrder(t)
	item, err := o.AddItem(uuid.New(), "Mug", 3, valueobject.NewMoneyUSDFromFloat(20))
	require.NoError(t, err)
	assert.True(t, item.LineTotal().Equal(decimal.NewFromInt(60)))
}
