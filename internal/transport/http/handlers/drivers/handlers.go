package driverhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fleetpay/internal/domain/driver"
	"fleetpay/internal/transport/http/api"
	"fleetpay/internal/transport/http/middleware"
	"fleetpay/internal/transport/http/shared"
)

type Handler struct {
	Drivers *driver.Service
}

func NewHandler(drivers *driver.Service) *Handler {
	return &Handler{Drivers: drivers}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/drivers/{driverID}", h.handleGet)
	r.Get("/drivers/{driverID}/pay-configs", h.handleListConfigs)
	r.Get("/drivers/{driverID}/pay-config", h.handleConfigForWeek)
	r.Post("/drivers/{driverID}/pay-configs", h.handleChangePayTerms)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employee, err := h.Drivers.Employee(r.Context(), chi.URLParam(r, "driverID"))
	if err != nil {
		failDriver(w, err, requestID)
		return
	}
	api.Success(w, employee, requestID)
}

func (h *Handler) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	configs, err := h.Drivers.Configs(r.Context(), chi.URLParam(r, "driverID"))
	if err != nil {
		failDriver(w, err, requestID)
		return
	}
	api.Success(w, configs, requestID)
}

func (h *Handler) handleConfigForWeek(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	weekStart, _ := v.Date("weekStart", r.URL.Query().Get("weekStart"))
	if v.Reject(w, requestID) {
		return
	}

	cfg, err := h.Drivers.ConfigForPeriod(r.Context(), chi.URLParam(r, "driverID"), weekStart)
	if err != nil {
		failDriver(w, err, requestID)
		return
	}
	api.Success(w, cfg, requestID)
}

type payTermsPayload struct {
	Method            string `json:"method"`
	DriverPercent     string `json:"driverPercent"`
	CompanyPercent    string `json:"companyPercent"`
	ServiceFeePercent string `json:"serviceFeePercent"`
	PayPerMileRate    string `json:"payPerMileRate"`
	EffectiveDate     string `json:"effectiveDate"`
}

func (h *Handler) handleChangePayTerms(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload payTermsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("method", payload.Method, "payment method is required")
	effective, _ := v.Date("effectiveDate", payload.EffectiveDate)
	cfg := driver.PaymentConfig{
		EmployeeID:        chi.URLParam(r, "driverID"),
		Method:            driver.PayMethod(payload.Method),
		DriverPercent:     v.Money("driverPercent", payload.DriverPercent),
		CompanyPercent:    v.Money("companyPercent", payload.CompanyPercent),
		ServiceFeePercent: v.Money("serviceFeePercent", payload.ServiceFeePercent),
		PayPerMileRate:    v.Money("payPerMileRate", payload.PayPerMileRate),
		EffectiveDate:     effective,
	}
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Drivers.ChangePayTerms(r.Context(), cfg)
	if err != nil {
		failDriver(w, err, requestID)
		return
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func failDriver(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, driver.ErrEmployeeNotFound), errors.Is(err, driver.ErrNoPaymentConfig):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, driver.ErrInvalidMethod), errors.Is(err, driver.ErrPercentOutOfRange):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", requestID)
	}
}
