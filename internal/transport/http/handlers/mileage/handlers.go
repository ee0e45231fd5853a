package mileagehandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fleetpay/internal/mileage"
	"fleetpay/internal/transport/http/api"
	"fleetpay/internal/transport/http/middleware"
	"fleetpay/internal/transport/http/shared"
)

type Handler struct {
	Resolver *mileage.Resolver
}

func NewHandler(resolver *mileage.Resolver) *Handler {
	return &Handler{Resolver: resolver}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/mileage/resolve", h.handleResolve)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	v := shared.NewValidator()
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	v.Required("from", from, "origin zip is required")
	v.Required("to", to, "destination zip is required")
	if v.Reject(w, requestID) {
		return
	}

	api.Success(w, h.Resolver.Resolve(r.Context(), from, to), requestID)
}
