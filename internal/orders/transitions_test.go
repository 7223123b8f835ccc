package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
)

func TestCheckTransitionTable(t *testing.T) {
	all := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusProcessing,
		enums.OrderStatusWaiting,
		enums.OrderStatusOnway,
		enums.OrderStatusPickup,
		enums.OrderStatusDelivered,
	}
	delivery := map[enums.OrderStatus][]enums.OrderStatus{
		enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusWaiting, enums.OrderStatusOnway, enums.OrderStatusDelivered},
		enums.OrderStatusProcessing: {enums.OrderStatusWaiting, enums.OrderStatusOnway, enums.OrderStatusDelivered},
		enums.OrderStatusWaiting:    {enums.OrderStatusOnway, enums.OrderStatusDelivered},
		enums.OrderStatusOnway:      {enums.OrderStatusDelivered},
	}
	pickup := map[enums.OrderStatus][]enums.OrderStatus{
		enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusPickup, enums.OrderStatusDelivered},
		enums.OrderStatusProcessing: {enums.OrderStatusPickup, enums.OrderStatusDelivered},
		enums.OrderStatusPickup:     {enums.OrderStatusDelivered},
	}

	check := func(method enums.DeliveryMethod, allowed map[enums.OrderStatus][]enums.OrderStatus) {
		for _, from := range all {
			for _, to := range all {
				if from == to {
					continue
				}
				want := contains(allowed[from], to)
				err := CheckTransition(method, from, to)
				if want {
					assert.NoError(t, err, "%s: %s -> %s", method, from, to)
				} else {
					assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition), "%s: %s -> %s", method, from, to)
				}
			}
		}
	}
	check(enums.DeliveryCity, delivery)
	check(enums.DeliveryOut, delivery)
	check(enums.DeliveryPickup, pickup)
}

func TestCheckTransitionRejectsUnknownStatus(t *testing.T) {
	err := CheckTransition(enums.DeliveryCity, enums.OrderStatusPending, "shipped")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func contains(list []enums.OrderStatus, status enums.OrderStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}
