package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/finchworks/gatehouse/internal/security"
	"github.com/finchworks/gatehouse/internal/services"
	pkghttp "github.com/finchworks/gatehouse/pkg/http"
	"github.com/google/uuid"
)

// SessionHandler exposes idle-timeout checks to the HR app's request path.
type SessionHandler struct {
	guard  *security.SessionGuard
	policy *services.PolicyService
	ipCfg  *pkghttp.IPConfig
	logger *slog.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(guard *security.SessionGuard, policy *services.PolicyService, ipCfg *pkghttp.IPConfig, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{guard: guard, policy: policy, ipCfg: ipCfg, logger: logger}
}

type sessionRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
}

// CheckResponse reports whether the session idled out.
type CheckResponse struct {
	Expired bool `json:"expired"`
}

// TouchResponse carries the new last-activity timestamp.
type TouchResponse struct {
	LastActivity time.Time `json:"last_activity"`
}

// Check handles POST /v1/sessions/check. An expired session means the caller
// must force re-authentication.
func (h *SessionHandler) Check(w http.ResponseWriter, r *http.Request) {
	employeeID, meta, ok := h.decode(w, r)
	if !ok {
		return
	}

	policy := h.policy.Get(r.Context())
	expired := h.guard.CheckSession(r.Context(), employeeID, meta, policy)

	pkghttp.WriteJSON(w, http.StatusOK, CheckResponse{Expired: expired})
}

// Touch handles POST /v1/sessions/touch, sliding the idle window forward.
func (h *SessionHandler) Touch(w http.ResponseWriter, r *http.Request) {
	employeeID, _, ok := h.decode(w, r)
	if !ok {
		return
	}

	ts, err := h.guard.Touch(r.Context(), employeeID)
	if err != nil {
		h.logger.Error("failed to touch session", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "failed to update session activity")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, TouchResponse{LastActivity: ts})
}

func (h *SessionHandler) decode(w http.ResponseWriter, r *http.Request) (uuid.UUID, security.RequestMeta, bool) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return uuid.Nil, security.RequestMeta{}, false
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return uuid.Nil, security.RequestMeta{}, false
	}

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		pkghttp.WriteBadRequest(w, "invalid employee id")
		return uuid.Nil, security.RequestMeta{}, false
	}

	meta := security.RequestMeta{
		IPAddress:     pkghttp.ExtractClientIP(r, h.ipCfg),
		UserAgent:     r.UserAgent(),
		RequestMethod: r.Method,
		RequestURL:    r.URL.Path,
	}
	return employeeID, meta, true
}
