package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
)

// PayoutDetails says where a withdrawal should be sent.
type PayoutDetails struct {
	Method        enums.PayoutMethod `json:"method"`
	Network       string             `json:"network,omitempty"`
	PhoneNumber   string             `json:"phone_number,omitempty"`
	BankName      string             `json:"bank_name,omitempty"`
	AccountNumber string             `json:"account_number,omitempty"`
	AccountName   string             `json:"account_name,omitempty"`
}

// WithdrawalDTO is the withdrawal payload returned to vendors and admins.
type WithdrawalDTO struct {
	ID            uuid.UUID              `json:"id"`
	VendorID      uuid.UUID              `json:"vendor_id"`
	VendorName    string                 `json:"vendor_name"`
	Amount        int64                  `json:"amount"`
	Method        enums.PayoutMethod     `json:"method"`
	Network       string                 `json:"network,omitempty"`
	PhoneNumber   string                 `json:"phone_number,omitempty"`
	BankName      string                 `json:"bank_name,omitempty"`
	AccountNumber string                 `json:"account_number,omitempty"`
	AccountName   string                 `json:"account_name,omitempty"`
	Status        enums.WithdrawalStatus `json:"status"`
	SettledAt     *time.Time             `json:"settled_at,omitempty"`
	SettledBy     *uuid.UUID             `json:"settled_by,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// FromModel converts a withdrawal row into its API payload.
func FromModel(w *models.Withdrawal) *WithdrawalDTO {
	if w == nil {
		return nil
	}
	return &WithdrawalDTO{
		ID:            w.ID,
		VendorID:      w.VendorID,
		VendorName:    w.VendorName,
		Amount:        w.Amount,
		Method:        w.Method,
		Network:       w.Network,
		PhoneNumber:   w.PhoneNumber,
		BankName:      w.BankName,
		AccountNumber: w.AccountNumber,
		AccountName:   w.AccountName,
		Status:        w.Status,
		SettledAt:     w.SettledAt,
		SettledBy:     w.SettledBy,
		CreatedAt:     w.CreatedAt,
	}
}

// SettleInput is an admin decision on a pending withdrawal.
type SettleInput struct {
	WithdrawalID uuid.UUID
	Decision     enums.SettlementDecision
	AdminID      uuid.UUID
}
