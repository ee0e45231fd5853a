package recurringhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fleetpay/internal/domain/recurring"
	"fleetpay/internal/transport/http/api"
	"fleetpay/internal/transport/http/middleware"
	"fleetpay/internal/transport/http/shared"
)

type Handler struct {
	Recurring *recurring.Service
}

func NewHandler(recurringService *recurring.Service) *Handler {
	return &Handler{Recurring: recurringService}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/recurring-deductions", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Post("/{deductionID}/deactivate", h.handleDeactivate)
	})
	r.Get("/drivers/{driverID}/recurring-deductions", h.handleDueForWeek)
}

type createPayload struct {
	DriverID  string `json:"driverId"`
	Type      string `json:"recurringType"`
	Amount    string `json:"amount"`
	WeekStart string `json:"weekStart"`
	Frequency string `json:"frequency"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("driverId", payload.DriverID, "driver is required")
	v.Required("recurringType", payload.Type, "recurring type is required")
	amount := v.PositiveMoney("amount", payload.Amount)
	weekStart, _ := v.Date("weekStart", payload.WeekStart)
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Recurring.Create(r.Context(), recurring.Deduction{
		DriverID:  payload.DriverID,
		Type:      payload.Type,
		Amount:    amount,
		WeekStart: weekStart,
		Frequency: payload.Frequency,
	})
	if err != nil {
		failRecurring(w, err, requestID)
		return
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Recurring.Deactivate(r.Context(), chi.URLParam(r, "deductionID")); err != nil {
		failRecurring(w, err, requestID)
		return
	}
	api.Success(w, map[string]bool{"isActive": false}, requestID)
}

func (h *Handler) handleDueForWeek(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	v := shared.NewValidator()
	weekStart, _ := v.Date("weekStart", r.URL.Query().Get("weekStart"))
	if v.Reject(w, requestID) {
		return
	}

	due, err := h.Recurring.DueForWeek(r.Context(), chi.URLParam(r, "driverID"), weekStart)
	if err != nil {
		failRecurring(w, err, requestID)
		return
	}
	api.Success(w, due, requestID)
}

func failRecurring(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, recurring.ErrInvalidAmount), errors.Is(err, recurring.ErrUnknownFrequency):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, recurring.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", requestID)
	}
}
