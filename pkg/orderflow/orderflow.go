// Package orderflow defines the allowed order status transitions.
package orderflow

import (
	"fmt"

	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
)

var forward = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed},
	enums.OrderStatusConfirmed: {enums.OrderStatusPreparing},
	enums.OrderStatusPreparing: {enums.OrderStatusReady},
	enums.OrderStatusInTransit: {enums.OrderStatusDelivered},
}

// Next lists the statuses reachable from current for the given delivery
// mode. Ready moves to in_transit for delivery orders and straight to
// delivered (handed over) for pickup orders. Cancelled is reachable from
// every non-terminal status.
func Next(current enums.OrderStatus, mode enums.DeliveryType) []enums.OrderStatus {
	if current.IsTerminal() || !current.IsValid() {
		return nil
	}
	var next []enums.OrderStatus
	if current == enums.OrderStatusReady {
		if mode == enums.DeliveryTypePickup {
			next = append(next, enums.OrderStatusDelivered)
		} else {
			next = append(next, enums.OrderStatusInTransit)
		}
	} else {
		next = append(next, forward[current]...)
	}
	return append(next, enums.OrderStatusCancelled)
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to enums.OrderStatus, mode enums.DeliveryType) bool {
	for _, candidate := range Next(from, mode) {
		if candidate == to {
			return true
		}
	}
	return false
}

// TransitionError describes a rejected transition.
type TransitionError struct {
	From enums.OrderStatus
	To   enums.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order cannot move from %s to %s", e.From, e.To)
}

// Transition validates from -> to and returns to, or a *TransitionError.
func Transition(from, to enums.OrderStatus, mode enums.DeliveryType) (enums.OrderStatus, error) {
	if !CanTransition(from, to, mode) {
		return from, &TransitionError{From: from, To: to}
	}
	return to, nil
}
