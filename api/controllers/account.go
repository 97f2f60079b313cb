package controllers

import (
	"net/http"

	"github.com/angelmondragon/seedshop-backend/api/middleware"
	"github.com/angelmondragon/seedshop-backend/api/responses"
	"github.com/angelmondragon/seedshop-backend/api/validators"
	"github.com/angelmondragon/seedshop-backend/internal/orders"
	"github.com/angelmondragon/seedshop-backend/internal/users"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
)

// Me returns the caller's profile and role.
func Me(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user, err := svc.Me(ctx, middleware.UserIDFromContext(ctx), middleware.EmailFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func ListMyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListForUser(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// GetMyOrder answers 404 for orders of other users.
func GetMyOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetForUser(r.Context(), middleware.UserIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
