package payrollhandler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fleetpay/internal/domain/driver"
	"fleetpay/internal/domain/payroll"
	"fleetpay/internal/transport/http/api"
	"fleetpay/internal/transport/http/middleware"
	"fleetpay/internal/transport/http/shared"
)

type Handler struct {
	Payroll *payroll.Service
	Batch   *payroll.Orchestrator
}

func NewHandler(payrollService *payroll.Service, batch *payroll.Orchestrator) *Handler {
	return &Handler{Payroll: payrollService, Batch: batch}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Post("/calculate", h.handleCalculate)
		r.Post("/batch", h.handleBatch)
		r.Route("/records/{recordID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleDelete)
			r.Post("/review", h.handleReview)
			r.Post("/process", h.handleProcess)
			r.Post("/pay", h.handlePay)
			r.Post("/unlock", h.handleUnlock)
			r.Get("/paystub", h.handlePaystub)
			r.Post("/paystub/regenerate", h.handleRegeneratePaystub)
		})
		r.Route("/periods/{weekStart}", func(r chi.Router) {
			r.Get("/summary", h.handlePeriodSummary)
			r.Get("/register.csv", h.handleRegisterCSV)
		})
	})
	r.Get("/drivers/{driverID}/payroll", h.handleListForDriver)
}

type calculatePayload struct {
	EmployeeID string `json:"employeeId"`
	WeekStart  string `json:"weekStart"`
	Recalc     bool   `json:"recalc"`
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload calculatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employee is required")
	weekStart, _ := v.Date("weekStart", payload.WeekStart)
	if v.Reject(w, requestID) {
		return
	}

	rec, err := h.Payroll.Calculate(r.Context(), payload.EmployeeID, weekStart, payload.Recalc)
	if err != nil {
		failPayroll(w, err, requestID)
		return
	}
	api.Created(w, rec, requestID)
}

type batchPayload struct {
	WeekStart   string   `json:"weekStart"`
	EmployeeIDs []string `json:"employeeIds"`
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload batchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body", requestID)
		return
	}

	v := shared.NewValidator()
	weekStart, _ := v.Date("weekStart", payload.WeekStart)
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Batch.Run(r.Context(), weekStart, payload.EmployeeIDs)
	if err != nil {
		failPayroll(w, err, requestID)
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	rec, err := h.Payroll.Get(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		failPayroll(w, err, requestID)
		return
	}
	api.Success(w, rec, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Payroll.Delete(r.Context(), chi.URLParam(r, "recordID")); err != nil {
		failPayroll(w, err, requestID)
		return
	}
	api.Success(w, map[string]bool{"deleted": true}, requestID)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	rec, err := h.Payroll.Review(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		failPayroll(w, err, requestID)
		return
	}
	api.Success(w, rec, requestID)
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	stub, err := h.Payroll.Process(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		failPayroll(w, err, requestID)
		return
	}
	api.Success(w, stub, requestID)
}

func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	rec, err := h.Payroll.Pay(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		failPayroll(w, err, requestID)
		return
	}
	api.Success(w, rec, requestID)
}

func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	rec, err := h.Payroll.Unlock(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		failPayroll(w, err, requestID)
		return
	}
	api.Success(w, rec, requestID)
}

func (h *Handler) handlePaystub(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	stub, err := h.Payroll.Paystub(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		failPayroll(w, err, requestID)
		return
	}
	if r.URL.Query().Get("format") == "pdf" && stub.PDFPath != "" {
		w.Header().Set("Content-Type", "application/pdf")
		http.ServeFile(w, r, stub.PDFPath)
		return
	}
	api.Success(w, stub, requestID)
}

func (h *Handler) handleRegeneratePaystub(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	stub, err := h.Payroll.RegeneratePaystub(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		failPayroll(w, err, requestID)
		return
	}
	api.Success(w, stub, requestID)
}

func (h *Handler) handleListForDriver(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePage(r.URL.Query(), 26, 104)
	records, err := h.Payroll.ListForEmployee(r.Context(), chi.URLParam(r, "driverID"), page.Limit, page.Offset)
	if err != nil {
		failPayroll(w, err, requestID)
		return
	}
	api.Success(w, records, requestID)
}

func (h *Handler) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	v := shared.NewValidator()
	weekStart, _ := v.Date("weekStart", chi.URLParam(r, "weekStart"))
	if v.Reject(w, requestID) {
		return
	}

	totals, err := h.Payroll.PeriodSummary(r.Context(), weekStart)
	if err != nil {
		failPayroll(w, err, requestID)
		return
	}
	api.Success(w, totals, requestID)
}

// handleRegisterCSV streams the weekly payroll register, one row per record,
// in the layout the accounting export expects.
func (h *Handler) handleRegisterCSV(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	v := shared.NewValidator()
	weekStart, _ := v.Date("weekStart", chi.URLParam(r, "weekStart"))
	if v.Reject(w, requestID) {
		return
	}

	records, err := h.Payroll.PeriodRecords(r.Context(), weekStart)
	if err != nil {
		failPayroll(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		`attachment; filename="payroll-register-`+weekStart.Format("2006-01-02")+`.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"employee_id", "week_start", "status", "loads", "miles",
		"gross_revenue", "service_fee", "base_pay", "reimbursements",
		"gross_pay", "total_deductions", "net_pay",
	})
	for i := range records {
		rec := &records[i]
		_ = cw.Write([]string{
			rec.EmployeeID,
			rec.WeekStart.Format("2006-01-02"),
			string(rec.Status),
			strconv.Itoa(rec.TotalLoads),
			rec.TotalMiles.StringFixed(1),
			rec.GrossRevenue.StringFixed(2),
			rec.ServiceFee.StringFixed(2),
			rec.BasePay.StringFixed(2),
			rec.Reimbursements.StringFixed(2),
			rec.GrossPay.StringFixed(2),
			rec.TotalDeductions.StringFixed(2),
			rec.NetPay.StringFixed(2),
		})
	}
	cw.Flush()
}

func failPayroll(w http.ResponseWriter, err error, requestID string) {
	var calcErr *payroll.CalculationError
	switch {
	case errors.Is(err, payroll.ErrRecordNotFound), errors.Is(err, payroll.ErrPaystubNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, payroll.ErrRecordLocked):
		api.Fail(w, http.StatusLocked, "record_locked", err.Error(), requestID)
	case errors.Is(err, payroll.ErrRecordConflict):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	case errors.Is(err, payroll.ErrNotCalculated), errors.Is(err, payroll.ErrNotProcessed),
		errors.Is(err, payroll.ErrNotDeletable), errors.Is(err, payroll.ErrNotLocked):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.As(err, &calcErr):
		api.Fail(w, http.StatusUnprocessableEntity, "calculation_failed", err.Error(), requestID)
	case errors.Is(err, driver.ErrNoPaymentConfig):
		api.Fail(w, http.StatusUnprocessableEntity, "calculation_failed", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", requestID)
	}
}
