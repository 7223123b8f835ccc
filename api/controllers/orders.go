package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/api/middleware"
	"github.com/kukumart/marketplace-backend/api/responses"
	"github.com/kukumart/marketplace-backend/api/validators"
	"github.com/kukumart/marketplace-backend/internal/orders"
	"github.com/kukumart/marketplace-backend/pkg/checkout"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/logger"
)

type checkoutRequest struct {
	ProductID      uuid.UUID `json:"product_id" validate:"required"`
	Qty            int64     `json:"qty" validate:"required,gt=0"`
	DeliveryMethod string    `json:"delivery_method" validate:"required"`
	PayMethod      string    `json:"pay_method" validate:"required"`
	PayPhone       string    `json:"pay_phone"`
	PaymentProof   string    `json:"payment_proof"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Checkout places a single-product order for the caller. The response
// includes the confirmation message the buyer sends to the admin.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("orders"))
			return
		}
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), orders.CheckoutInput{
			BuyerID:   buyerID,
			ProductID: req.ProductID,
			Request: checkout.Request{
				Qty:            req.Qty,
				DeliveryMethod: req.DeliveryMethod,
				PayMethod:      req.PayMethod,
				PayPhone:       req.PayPhone,
				PaymentProof:   req.PaymentProof,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// BuyerOrders lists the caller's own purchases, newest first.
func BuyerOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("orders"))
			return
		}
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForBuyer(r.Context(), buyerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("orders"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID, middleware.ViewerFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// VendorOrders lists orders placed against the caller's shop, with an
// optional ?status= filter.
func VendorOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("orders"))
			return
		}
		vendorID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseOptionalEnum(r, "status", enums.ParseOrderStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForVendor(r.Context(), vendorID, status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// VendorOrderStatus moves one of the vendor's orders forward and returns the
// buyer notification link when the new status has one.
func VendorOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("orders"))
			return
		}
		vendorID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := decodeStatus(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateStatus(r.Context(), orders.StatusInput{
			OrderID:   orderID,
			Status:    status,
			ActorID:   vendorID,
			ActorRole: enums.Role(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func decodeStatus(r *http.Request) (enums.OrderStatus, error) {
	var req statusRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		return "", err
	}
	status, err := enums.ParseOrderStatus(req.Status)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"})
	}
	return status, nil
}
