package escrowhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fleetpay/internal/domain/escrow"
	"fleetpay/internal/transport/http/api"
	"fleetpay/internal/transport/http/middleware"
	"fleetpay/internal/transport/http/shared"
)

type Handler struct {
	Escrow *escrow.Service
}

func NewHandler(escrowService *escrow.Service) *Handler {
	return &Handler{Escrow: escrowService}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/drivers/{driverID}/escrow", func(r chi.Router) {
		r.Get("/", h.handleAccount)
		r.Post("/", h.handleCreateAccount)
		r.Post("/transactions", h.handlePost)
		r.Get("/suggestion", h.handleSuggestion)
	})
	r.Get("/escrow/accounts/{accountID}/transactions", h.handleTransactions)
	r.Put("/escrow/accounts/{accountID}/weekly-amount", h.handleWeeklyOverride)
}

func (h *Handler) handleAccount(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	account, err := h.Escrow.Account(r.Context(), chi.URLParam(r, "driverID"))
	if err != nil {
		failEscrow(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{
		"account":  account,
		"isFunded": account.IsFunded(),
		"policy":   escrow.PolicyFor(account),
	}, requestID)
}

type accountPayload struct {
	TargetAmount string `json:"targetAmount"`
	WeeklyAmount string `json:"weeklyAmount"`
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload accountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body", requestID)
		return
	}

	v := shared.NewValidator()
	target := v.PositiveMoney("targetAmount", payload.TargetAmount)
	weekly := v.Money("weeklyAmount", payload.WeeklyAmount)
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Escrow.CreateAccount(r.Context(), escrow.Account{
		EmployeeID:   chi.URLParam(r, "driverID"),
		TargetAmount: target,
		WeeklyAmount: weekly,
	})
	if err != nil {
		failEscrow(w, err, requestID)
		return
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

type transactionPayload struct {
	Type      string `json:"transactionType"`
	Amount    string `json:"amount"`
	WeekStart string `json:"weekStart"`
	Note      string `json:"note"`
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("transactionType", payload.Type, "transaction type is required")
	amount := v.Money("amount", payload.Amount)
	weekStart, _ := v.Date("weekStart", payload.WeekStart)
	if v.Reject(w, requestID) {
		return
	}

	movement, account, err := h.Escrow.Post(r.Context(), chi.URLParam(r, "driverID"),
		escrow.TransactionType(payload.Type), amount, weekStart, payload.Note)
	if err != nil {
		failEscrow(w, err, requestID)
		return
	}
	api.Created(w, map[string]any{
		"transaction": movement,
		"newBalance":  account.CurrentBalance,
	}, requestID)
}

func (h *Handler) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	v := shared.NewValidator()
	potentialNet := v.Money("potentialNet", r.URL.Query().Get("potentialNet"))
	if v.Reject(w, requestID) {
		return
	}

	suggested, ok, err := h.Escrow.Suggestion(r.Context(), chi.URLParam(r, "driverID"), potentialNet)
	if err != nil {
		failEscrow(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{"suggested": suggested, "surfaced": ok}, requestID)
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePage(r.URL.Query(), 50, 200)
	transactions, err := h.Escrow.Transactions(r.Context(), chi.URLParam(r, "accountID"), page.Limit, page.Offset)
	if err != nil {
		failEscrow(w, err, requestID)
		return
	}
	api.Success(w, transactions, requestID)
}

type overridePayload struct {
	WeeklyAmount string `json:"weeklyAmount"`
}

func (h *Handler) handleWeeklyOverride(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload overridePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body", requestID)
		return
	}

	v := shared.NewValidator()
	weekly := v.Money("weeklyAmount", payload.WeeklyAmount)
	if weekly.IsNegative() {
		v.Add("weeklyAmount", "must not be negative")
	}
	if v.Reject(w, requestID) {
		return
	}

	if err := h.Escrow.SetWeeklyOverride(r.Context(), chi.URLParam(r, "accountID"), weekly); err != nil {
		failEscrow(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{"weeklyAmount": weekly}, requestID)
}

func failEscrow(w http.ResponseWriter, err error, requestID string) {
	var insufficient *escrow.InsufficientBalanceError
	switch {
	case errors.Is(err, escrow.ErrAccountNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, escrow.ErrInvalidType), errors.Is(err, escrow.ErrNonPositive):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.As(err, &insufficient):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error(), requestID)
	case errors.Is(err, escrow.ErrAccountInactive):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", requestID)
	}
}
