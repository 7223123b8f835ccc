package enums

import "fmt"

// OutboxAggregateType names the document family an outbox event belongs to.
// It doubles as the change-feed topic.
type OutboxAggregateType string

const (
	AggregateOrder      OutboxAggregateType = "order"
	AggregateWithdrawal OutboxAggregateType = "withdrawal"
	AggregateVendor     OutboxAggregateType = "vendor"
	AggregateProduct    OutboxAggregateType = "product"
	AggregateUser       OutboxAggregateType = "user"
	AggregateActivity   OutboxAggregateType = "activity"
	AggregateSettings   OutboxAggregateType = "settings"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateWithdrawal,
	AggregateVendor,
	AggregateProduct,
	AggregateUser,
	AggregateActivity,
	AggregateSettings,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a committed domain change.
type OutboxEventType string

const (
	EventOrderCreated        OutboxEventType = "order_created"
	EventOrderStatusChanged  OutboxEventType = "order_status_changed"
	EventOrderDeleted        OutboxEventType = "order_deleted"
	EventPaymentApproved     OutboxEventType = "payment_approved"
	EventWithdrawalRequested OutboxEventType = "withdrawal_requested"
	EventWithdrawalSettled   OutboxEventType = "withdrawal_settled"
	EventVendorRegistered    OutboxEventType = "vendor_registered"
	EventVendorDecided       OutboxEventType = "vendor_decided"
	EventProductVisibility   OutboxEventType = "product_visibility_changed"
	EventProductUpdated      OutboxEventType = "product_updated"
	EventProductDeleted      OutboxEventType = "product_deleted"
	EventUserUpdated         OutboxEventType = "user_updated"
	EventUserDeleted         OutboxEventType = "user_deleted"
	EventActivityRecorded    OutboxEventType = "activity_recorded"
	EventSettingsUpdated     OutboxEventType = "settings_updated"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderDeleted,
	EventPaymentApproved,
	EventWithdrawalRequested,
	EventWithdrawalSettled,
	EventVendorRegistered,
	EventVendorDecided,
	EventProductVisibility,
	EventProductUpdated,
	EventProductDeleted,
	EventUserUpdated,
	EventUserDeleted,
	EventActivityRecorded,
	EventSettingsUpdated,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
