package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/finchworks/gatehouse/internal/security"
	"github.com/finchworks/gatehouse/internal/services"
	pkghttp "github.com/finchworks/gatehouse/pkg/http"
)

// AttemptHandler receives login outcomes from the HR app's login flow.
type AttemptHandler struct {
	defense *services.DefenseService
	policy  *services.PolicyService
	ipCfg   *pkghttp.IPConfig
	logger  *slog.Logger
}

// NewAttemptHandler creates a new AttemptHandler
func NewAttemptHandler(defense *services.DefenseService, policy *services.PolicyService, ipCfg *pkghttp.IPConfig, logger *slog.Logger) *AttemptHandler {
	return &AttemptHandler{defense: defense, policy: policy, ipCfg: ipCfg, logger: logger}
}

// RecordAttemptRequest is the payload the login flow posts after checking
// credentials. The origin IP and user agent come from the request itself,
// not the payload, so a compromised caller cannot spoof them.
type RecordAttemptRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Success       bool   `json:"success"`
	FailureReason string `json:"failure_reason,omitempty" validate:"max=200"`
}

// RecordAttemptResponse reports the escalation outcome back to the login
// flow. AccountLocked is distinct from invalid credentials on purpose.
type RecordAttemptResponse struct {
	Escalated     bool `json:"escalated"`
	AttemptCount  int  `json:"attempt_count"`
	AccountLocked bool `json:"account_locked"`
}

// RecordAttempt handles POST /v1/attempts
func (h *AttemptHandler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	var req RecordAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	meta := security.RequestMeta{
		Email:         req.Email,
		IPAddress:     pkghttp.ExtractClientIP(r, h.ipCfg),
		UserAgent:     r.UserAgent(),
		RequestMethod: r.Method,
		RequestURL:    r.URL.Path,
	}

	policy := h.policy.Get(r.Context())

	result, err := h.defense.RecordAttempt(r.Context(), meta, req.Success, policy)
	if err != nil {
		if errors.Is(err, models.ErrAccountLocked) {
			pkghttp.WriteAccountLocked(w)
			return
		}
		h.logger.Error("failed to record login attempt", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "failed to record attempt")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, RecordAttemptResponse{
		Escalated:     result.Escalated,
		AttemptCount:  result.CurrentCount,
		AccountLocked: result.AccountLocked,
	})
}
