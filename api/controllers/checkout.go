package controllers

import (
	"net/http"

	"github.com/angelmondragon/seedshop-backend/api/middleware"
	"github.com/angelmondragon/seedshop-backend/api/responses"
	"github.com/angelmondragon/seedshop-backend/api/validators"
	"github.com/angelmondragon/seedshop-backend/internal/checkout"
	"github.com/angelmondragon/seedshop-backend/internal/payments"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
	"github.com/angelmondragon/seedshop-backend/pkg/types"
)

type checkoutRequest struct {
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	Notes           *string               `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type verifyPaymentRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// Checkout turns the caller's cart into a pending order and opens the hosted
// payment session.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		result, err := svc.Execute(ctx, checkout.CheckoutInput{
			UserID:    middleware.UserIDFromContext(ctx),
			Email:     middleware.EmailFromContext(ctx),
			ActorRole: middleware.RoleFromContext(ctx),
			Address:   body.ShippingAddress,
			Notes:     body.Notes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func VerifyPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		result, err := svc.Verify(ctx, payments.VerifyInput{
			UserID:    middleware.UserIDFromContext(ctx),
			ActorRole: middleware.RoleFromContext(ctx),
			SessionID: body.SessionID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
