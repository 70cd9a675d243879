package orderflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
)

func TestDeliveryHappyPath(t *testing.T) {
	path := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusPreparing,
		enums.OrderStatusReady,
		enums.OrderStatusInTransit,
		enums.OrderStatusDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		got, err := Transition(path[i], path[i+1], enums.DeliveryTypeDelivery)
		require.NoError(t, err)
		assert.Equal(t, path[i+1], got)
	}
}

func TestPickupSkipsInTransit(t *testing.T) {
	assert.True(t, CanTransition(enums.OrderStatusReady, enums.OrderStatusDelivered, enums.DeliveryTypePickup))
	assert.False(t, CanTransition(enums.OrderStatusReady, enums.OrderStatusInTransit, enums.DeliveryTypePickup))
	assert.False(t, CanTransition(enums.OrderStatusReady, enums.OrderStatusDelivered, enums.DeliveryTypeDelivery))
}

func TestCancelFromAnyNonTerminal(t *testing.T) {
	for _, s := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusPreparing,
		enums.OrderStatusReady,
		enums.OrderStatusInTransit,
	} {
		assert.True(t, CanTransition(s, enums.OrderStatusCancelled, enums.DeliveryTypeDelivery), s)
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	assert.Empty(t, Next(enums.OrderStatusDelivered, enums.DeliveryTypeDelivery))
	assert.Empty(t, Next(enums.OrderStatusCancelled, enums.DeliveryTypePickup))

	_, err := Transition(enums.OrderStatusDelivered, enums.OrderStatusCancelled, enums.DeliveryTypeDelivery)
	var terr *TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, enums.OrderStatusDelivered, terr.From)
}

func TestNoSkippingSteps(t *testing.T) {
	assert.False(t, CanTransition(enums.OrderStatusPending, enums.OrderStatusReady, enums.DeliveryTypeDelivery))
	assert.False(t, CanTransition(enums.OrderStatusConfirmed, enums.OrderStatusPending, enums.DeliveryTypeDelivery))
	assert.Empty(t, Next("bogus", enums.DeliveryTypeDelivery))
}
