package orders

import (
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
)

// CheckTransition reports whether an order shipped with method may move from
// one status to another. Statuses only move forward; waiting and onway are
// for delivered orders, pickup is for collected ones.
func CheckTransition(method enums.DeliveryMethod, from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	if from.IsTerminal() || to.Rank() <= from.Rank() {
		return invalidTransition(from, to)
	}
	switch to {
	case enums.OrderStatusWaiting, enums.OrderStatusOnway:
		if method.IsPickup() {
			return invalidTransition(from, to)
		}
	case enums.OrderStatusPickup:
		if !method.IsPickup() {
			return invalidTransition(from, to)
		}
	}
	return nil
}

func invalidTransition(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status cannot move backwards or off its delivery path").
		WithDetails(map[string]any{"from": from, "to": to})
}
