package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetpay/internal/auth"
	"fleetpay/internal/transport/http/api"
	"fleetpay/internal/transport/http/middleware"
)

const tokenTTL = 12 * time.Hour

type Handler struct {
	DB     *pgxpool.Pool
	Secret string
}

func NewHandler(db *pgxpool.Pool, secret string) *Handler {
	return &Handler{DB: db, Secret: secret}
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", "invalid JSON body", requestID)
		return
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" || payload.Password == "" {
		api.Fail(w, http.StatusBadRequest, "bad_request", "email and password are required", requestID)
		return
	}

	var userID, passwordHash, role string
	err := h.DB.QueryRow(r.Context(),
		"SELECT id, password_hash, role FROM users WHERE email = $1 AND status = 'active'",
		email).Scan(&userID, &passwordHash, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal_error", "login failed", requestID)
		return
	}
	if err := auth.CheckPassword(passwordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", requestID)
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{UserID: userID, Email: email, Role: role}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal_error", "login failed", requestID)
		return
	}
	api.Success(w, map[string]any{"token": token, "role": role}, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	api.Success(w, map[string]any{"userId": user.UserID, "email": user.Email, "role": user.Role}, requestID)
}
