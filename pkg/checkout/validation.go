package checkout

import (
	"fmt"
	"strings"

	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
)

// Request is the raw buyer input for a single-product checkout.
type Request struct {
	Qty            int64
	DeliveryMethod string
	PayMethod      string
	PayPhone       string
	PaymentProof   string
}

// Validated carries the parsed enums once a request passes validation.
type Validated struct {
	Qty            int64
	DeliveryMethod enums.DeliveryMethod
	PayMethod      enums.PaymentMethod
	PayPhone       string
	PaymentProof   string
}

// FieldViolation exposes the data returned to callers when a validation fails.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validate checks every field and reports all violations at once.
// Mobile and bank payments must carry the paying phone and a proof reference.
func Validate(req Request) (Validated, error) {
	var violations []FieldViolation
	out := Validated{
		Qty:          req.Qty,
		PayPhone:     strings.TrimSpace(req.PayPhone),
		PaymentProof: strings.TrimSpace(req.PaymentProof),
	}

	if req.Qty <= 0 {
		violations = append(violations, FieldViolation{Field: "qty", Reason: "must be greater than zero"})
	}
	delivery, err := enums.ParseDeliveryMethod(strings.TrimSpace(req.DeliveryMethod))
	if err != nil {
		violations = append(violations, FieldViolation{Field: "delivery_method", Reason: err.Error()})
	}
	out.DeliveryMethod = delivery

	payment, err := enums.ParsePaymentMethod(strings.TrimSpace(req.PayMethod))
	if err != nil {
		violations = append(violations, FieldViolation{Field: "pay_method", Reason: err.Error()})
	}
	out.PayMethod = payment

	if err == nil && payment.RequiresProof() {
		if out.PayPhone == "" {
			violations = append(violations, FieldViolation{Field: "pay_phone", Reason: "required for " + payment.String() + " payments"})
		}
		if out.PaymentProof == "" {
			violations = append(violations, FieldViolation{Field: "payment_proof", Reason: "required for " + payment.String() + " payments"})
		}
	}

	if len(violations) == 0 {
		return out, nil
	}
	return Validated{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("checkout request invalid: %d field(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
