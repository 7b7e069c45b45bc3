package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/finchworks/gatehouse/internal/services"
	pkghttp "github.com/finchworks/gatehouse/pkg/http"
	"github.com/finchworks/gatehouse/pkg/password"
)

// PasswordHandler exposes the complexity validator to the HR app's
// password-change and account-creation flows.
type PasswordHandler struct {
	policy *services.PolicyService
}

// NewPasswordHandler creates a new PasswordHandler
func NewPasswordHandler(policy *services.PolicyService) *PasswordHandler {
	return &PasswordHandler{policy: policy}
}

type validatePasswordRequest struct {
	Password string `json:"password" validate:"required,max=128"`
}

// ValidatePasswordResponse lists every violated rule so the caller can show
// them all at once.
type ValidatePasswordResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

// Validate handles POST /v1/passwords/validate. The candidate password is
// never logged or audited.
func (h *PasswordHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	policy := h.policy.Get(r.Context())
	violations := password.Validate(req.Password, policy)
	if violations == nil {
		violations = []string{}
	}

	pkghttp.WriteJSON(w, http.StatusOK, ValidatePasswordResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
	})
}
