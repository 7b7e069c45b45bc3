package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/finchworks/gatehouse/internal/auth"
	"github.com/finchworks/gatehouse/internal/models"
	"github.com/finchworks/gatehouse/internal/security"
	"github.com/finchworks/gatehouse/internal/services"
	pkghttp "github.com/finchworks/gatehouse/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AdminHandler serves the administrative unlock and policy endpoints.
type AdminHandler struct {
	lockout   *security.AccountLockPolicy
	tracker   *security.AttemptTracker
	blocklist *security.IPBlocklist
	policy    *services.PolicyService
	audit     security.AuditSink
	ipCfg     *pkghttp.IPConfig
	logger    *slog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	lockout *security.AccountLockPolicy,
	tracker *security.AttemptTracker,
	blocklist *security.IPBlocklist,
	policy *services.PolicyService,
	audit security.AuditSink,
	ipCfg *pkghttp.IPConfig,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		lockout:   lockout,
		tracker:   tracker,
		blocklist: blocklist,
		policy:    policy,
		audit:     audit,
		ipCfg:     ipCfg,
		logger:    logger,
	}
}

// UnlockEmployee handles POST /v1/admin/employees/{id}/unlock. Explicit
// administrative unlock is the only path that clears an account lock.
func (h *AdminHandler) UnlockEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "invalid employee id")
		return
	}

	meta := h.adminMeta(r)

	h.audit.Log(r.Context(), meta.Event(models.EventAdminAction, models.SeverityMedium, models.EventDetails{
		"action":    "unlock_employee",
		"target_id": employeeID.String(),
	}))

	if err := h.lockout.Unlock(r.Context(), employeeID, meta); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "employee not found")
			return
		}
		h.logger.Error("failed to unlock employee", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "failed to unlock employee")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"unlocked": true})
}

// ClearAttemptsRequest is the payload for clearing a failure counter.
type ClearAttemptsRequest struct {
	Email     string `json:"email" validate:"required,email"`
	IPAddress string `json:"ip_address" validate:"required,ip"`
}

// ClearAttempts handles POST /v1/admin/attempts/clear. Clearing a counter
// does not touch an existing account lock or IP block.
func (h *AdminHandler) ClearAttempts(w http.ResponseWriter, r *http.Request) {
	var req ClearAttemptsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	meta := h.adminMeta(r)
	h.audit.Log(r.Context(), meta.Event(models.EventAdminAction, models.SeverityMedium, models.EventDetails{
		"action":       "clear_attempts",
		"target_email": req.Email,
		"target_ip":    req.IPAddress,
	}))

	h.tracker.Clear(req.Email, req.IPAddress)
	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"cleared": true})
}

// BlockedIPResponse represents one active IP block.
type BlockedIPResponse struct {
	IP        string    `json:"ip"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ListBlockedIPs handles GET /v1/admin/blocklist.
func (h *AdminHandler) ListBlockedIPs(w http.ResponseWriter, r *http.Request) {
	snapshot := h.blocklist.Snapshot()

	blocked := make([]BlockedIPResponse, 0, len(snapshot))
	for _, origin := range snapshot {
		blocked = append(blocked, BlockedIPResponse{IP: origin.IP, ExpiresAt: origin.ExpiresAt})
	}
	sort.Slice(blocked, func(i, j int) bool { return blocked[i].IP < blocked[j].IP })

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"blocked": blocked})
}

// UnblockIPRequest is the payload for lifting an IP block early.
type UnblockIPRequest struct {
	IPAddress string `json:"ip_address" validate:"required,ip"`
}

// UnblockIP handles POST /v1/admin/blocklist/unblock. Lifting a block does
// not touch any account lock that escalated alongside it.
func (h *AdminHandler) UnblockIP(w http.ResponseWriter, r *http.Request) {
	var req UnblockIPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	meta := h.adminMeta(r)
	h.audit.Log(r.Context(), meta.Event(models.EventAdminAction, models.SeverityMedium, models.EventDetails{
		"action":    "unblock_ip",
		"target_ip": req.IPAddress,
	}))

	h.blocklist.Unblock(req.IPAddress)
	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"unblocked": true})
}

// GetPolicy handles GET /v1/admin/policy
func (h *AdminHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, h.policy.Get(r.Context()))
}

// UpdatePolicy handles PUT /v1/admin/policy. Numeric fields are clamped into
// their sane ranges rather than rejected.
func (h *AdminHandler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var policy models.SecurityPolicy
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}

	updated, err := h.policy.Update(r.Context(), policy, h.adminMeta(r))
	if err != nil {
		h.logger.Error("failed to update security policy", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "failed to update security policy")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) adminMeta(r *http.Request) security.RequestMeta {
	meta := security.RequestMeta{
		IPAddress:     pkghttp.ExtractClientIP(r, h.ipCfg),
		UserAgent:     r.UserAgent(),
		RequestMethod: r.Method,
		RequestURL:    r.URL.Path,
	}
	if claims := auth.GetUserFromContext(r); claims != nil {
		meta.Email = claims.Email
		if actorID, err := uuid.Parse(claims.UserID); err == nil {
			meta.UserID = &actorID
		}
	}
	return meta
}
