package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/wolfman30/salon-scheduler/internal/http/middleware"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

type adminLoginRequest struct {
	Password string `json:"password"`
}

type adminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminLoginHandler exchanges the shared admin password for a JWT.
type AdminLoginHandler struct {
	password string
	secret   string
	ttl      time.Duration
	now      func() time.Time
	logger   *logging.Logger
}

func NewAdminLoginHandler(password, secret string, ttl time.Duration, logger *logging.Logger) *AdminLoginHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AdminLoginHandler{password: password, secret: secret, ttl: ttl, now: time.Now, logger: logger}
}

func (h *AdminLoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.password == "" || h.secret == "" {
		jsonError(w, "admin login disabled", http.StatusServiceUnavailable)
		return
	}
	var req adminLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.password)) != 1 {
		h.logger.Warn("admin login rejected", "remote_ip", r.RemoteAddr)
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	token, expires, err := middleware.IssueAdminToken(h.secret, "admin", h.ttl, h.now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, adminLoginResponse{Token: token, ExpiresAt: expires})
}
