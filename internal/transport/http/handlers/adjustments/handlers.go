package adjustmenthandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fleetpay/internal/domain/adjustment"
	"fleetpay/internal/transport/http/api"
	"fleetpay/internal/transport/http/middleware"
	"fleetpay/internal/transport/http/shared"
)

type Handler struct {
	Adjustments *adjustment.Service
}

func NewHandler(adjustments *adjustment.Service) *Handler {
	return &Handler{Adjustments: adjustments}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/adjustments", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Post("/{adjustmentID}/reverse", h.handleReverse)
	})
	r.Get("/drivers/{driverID}/adjustments", h.handleListForDriver)
	r.Get("/drivers/{driverID}/adjustments/week", h.handleForWeek)
}

type createPayload struct {
	EmployeeID    string `json:"employeeId"`
	Category      string `json:"category"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	EffectiveDate string `json:"effectiveDate"`
	LoadNumber    string `json:"loadNumber"`
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
	v.Required("category", payload.Category, "category is required")
	v.Required("type", payload.Type, "type is required")
	amount := v.PositiveMoney("amount", payload.Amount)
	effective, _ := v.Date("effectiveDate", payload.EffectiveDate)
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Adjustments.Create(r.Context(), adjustment.Adjustment{
		EmployeeID:    payload.EmployeeID,
		Category:      adjustment.Category(payload.Category),
		Type:          payload.Type,
		Amount:        amount,
		EffectiveDate: effective,
		LoadNumber:    payload.LoadNumber,
	})
	if err != nil {
		failAdjustment(w, err, requestID)
		return
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleReverse(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	v := shared.NewValidator()
	effective, _ := v.Date("effectiveDate", r.URL.Query().Get("effectiveDate"))
	if v.Reject(w, requestID) {
		return
	}

	reversalID, err := h.Adjustments.Reverse(r.Context(), chi.URLParam(r, "adjustmentID"), effective)
	if err != nil {
		failAdjustment(w, err, requestID)
		return
	}
	api.Created(w, map[string]string{"reversalId": reversalID}, requestID)
}

func (h *Handler) handleListForDriver(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePage(r.URL.Query(), 50, 200)
	adjustments, err := h.Adjustments.ListForEmployee(r.Context(), chi.URLParam(r, "driverID"), page.Limit, page.Offset)
	if err != nil {
		failAdjustment(w, err, requestID)
		return
	}
	api.Success(w, adjustments, requestID)
}

func (h *Handler) handleForWeek(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	v := shared.NewValidator()
	weekStart, _ := v.Date("weekStart", r.URL.Query().Get("weekStart"))
	if v.Reject(w, requestID) {
		return
	}

	adjustments, err := h.Adjustments.ForWeek(r.Context(), chi.URLParam(r, "driverID"), adjustment.WeekStartOf(weekStart))
	if err != nil {
		failAdjustment(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{
		"adjustments": adjustments,
		"breakdown":   adjustment.Split(adjustments),
	}, requestID)
}

func failAdjustment(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, adjustment.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, adjustment.ErrInvalidCategory), errors.Is(err, adjustment.ErrNegativeAmount):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, adjustment.ErrAlreadyReversed):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", requestID)
	}
}
