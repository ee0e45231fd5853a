package advancehandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fleetpay/internal/domain/advance"
	"fleetpay/internal/transport/http/api"
	"fleetpay/internal/transport/http/middleware"
	"fleetpay/internal/transport/http/shared"
)

type Handler struct {
	Advances *advance.Service
}

func NewHandler(advances *advance.Service) *Handler {
	return &Handler{Advances: advances}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/advances", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/{advanceID}", h.handleGet)
		r.Post("/{advanceID}/forgive", h.handleForgive)
		r.Post("/{advanceID}/cancel", h.handleCancel)
	})
	r.Get("/drivers/{driverID}/advances", h.handleListForDriver)
	r.Get("/drivers/{driverID}/advances/outstanding", h.handleOutstanding)
}

type createPayload struct {
	EmployeeID         string `json:"employeeId"`
	Amount             string `json:"amount"`
	WeeksToRepay       int    `json:"weeksToRepay"`
	FirstRepaymentDate string `json:"firstRepaymentDate"`
	Note               string `json:"note"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employee is required")
	amount := v.PositiveMoney("amount", payload.Amount)
	firstRepayment, _ := v.Date("firstRepaymentDate", payload.FirstRepaymentDate)
	if payload.WeeksToRepay < 1 {
		v.Add("weeksToRepay", "must be at least 1")
	}
	if v.Reject(w, requestID) {
		return
	}

	adv, entries, err := h.Advances.Create(r.Context(), advance.CreateRequest{
		EmployeeID:         payload.EmployeeID,
		Amount:             amount,
		WeeksToRepay:       payload.WeeksToRepay,
		FirstRepaymentDate: firstRepayment,
		Note:               payload.Note,
	})
	if err != nil {
		failAdvance(w, err, requestID)
		return
	}
	api.Created(w, map[string]any{"advance": adv, "entries": entries}, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	adv, entries, err := h.Advances.Get(r.Context(), chi.URLParam(r, "advanceID"))
	if err != nil {
		failAdvance(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{
		"advance":          adv,
		"entries":          entries,
		"remainingBalance": advance.RemainingBalance(entries),
	}, requestID)
}

func (h *Handler) handleForgive(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	weekStart, _ := v.Date("weekStart", r.URL.Query().Get("weekStart"))
	if v.Reject(w, requestID) {
		return
	}

	entry, err := h.Advances.Forgive(r.Context(), chi.URLParam(r, "advanceID"), weekStart)
	if err != nil {
		failAdvance(w, err, requestID)
		return
	}
	api.Success(w, entry, requestID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Advances.Cancel(r.Context(), chi.URLParam(r, "advanceID")); err != nil {
		failAdvance(w, err, requestID)
		return
	}
	api.Success(w, map[string]string{"status": string(advance.StatusCancelled)}, requestID)
}

func (h *Handler) handleListForDriver(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	advances, err := h.Advances.ListForEmployee(r.Context(), chi.URLParam(r, "driverID"))
	if err != nil {
		failAdvance(w, err, requestID)
		return
	}
	api.Success(w, advances, requestID)
}

func (h *Handler) handleOutstanding(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	outstanding, err := h.Advances.Outstanding(r.Context(), chi.URLParam(r, "driverID"))
	if err != nil {
		failAdvance(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{"outstanding": outstanding}, requestID)
}

func failAdvance(w http.ResponseWriter, err error, requestID string) {
	var ceiling *advance.CeilingError
	switch {
	case errors.Is(err, advance.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, advance.ErrAmountBounds), errors.Is(err, advance.ErrWeeksBounds):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.As(err, &ceiling):
		api.Fail(w, http.StatusUnprocessableEntity, "ceiling_exceeded", err.Error(), requestID)
	case errors.Is(err, advance.ErrNotActive), errors.Is(err, advance.ErrAlreadySettled):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", requestID)
	}
}
