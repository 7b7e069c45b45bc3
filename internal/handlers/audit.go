package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/finchworks/gatehouse/internal/repositories"
	"github.com/finchworks/gatehouse/internal/services"
	pkghttp "github.com/finchworks/gatehouse/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultWindowSeconds = 3600
	maxWindowSeconds     = 30 * 24 * 3600
)

// AuditHandler serves the admin security dashboard queries.
type AuditHandler struct {
	audit  *services.AuditService
	logger *slog.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit *services.AuditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: logger}
}

// AuditEventResponse represents an audit event in HTTP responses
type AuditEventResponse struct {
	ID            int64                  `json:"id"`
	EventType     string                 `json:"event_type"`
	Severity      string                 `json:"severity"`
	UserID        *string                `json:"user_id,omitempty"`
	UserEmail     *string                `json:"user_email,omitempty"`
	IPAddress     string                 `json:"ip_address"`
	UserAgent     *string                `json:"user_agent,omitempty"`
	RequestMethod *string                `json:"request_method,omitempty"`
	RequestURL    *string                `json:"request_url,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

func toEventResponses(events []*models.AuditEvent) []AuditEventResponse {
	out := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		resp := AuditEventResponse{
			ID:            e.ID,
			EventType:     e.EventType,
			Severity:      e.Severity,
			UserEmail:     e.UserEmail,
			IPAddress:     e.IPAddress,
			UserAgent:     e.UserAgent,
			RequestMethod: e.RequestMethod,
			RequestURL:    e.RequestURL,
			Details:       e.Details,
			CreatedAt:     e.CreatedAt,
		}
		if e.UserID != nil {
			id := e.UserID.String()
			resp.UserID = &id
		}
		out = append(out, resp)
	}
	return out
}

// Recent handles GET /v1/audit/recent
func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	filters := repositories.AuditFilters{
		EventType: r.URL.Query().Get("event_type"),
		Severity:  r.URL.Query().Get("severity"),
	}
	if filters.EventType != "" && !models.ValidEventType(filters.EventType) {
		pkghttp.WriteBadRequest(w, "unknown event type")
		return
	}
	if filters.Severity != "" && !models.ValidSeverity(filters.Severity) {
		pkghttp.WriteBadRequest(w, "unknown severity")
		return
	}

	events, err := h.audit.Recent(r.Context(), queryLimit(r), filters)
	if err != nil {
		h.logger.Error("failed to query recent audit events", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "failed to query audit events")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": toEventResponses(events),
	})
}

// ByUser handles GET /v1/audit/users/{id}
func (h *AuditHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "invalid user id")
		return
	}

	events, err := h.audit.ByUser(r.Context(), userID, queryLimit(r))
	if err != nil {
		h.logger.Error("failed to query user audit trail", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "failed to query audit events")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": toEventResponses(events),
	})
}

// FailedLogins handles GET /v1/audit/failed-logins
func (h *AuditHandler) FailedLogins(w http.ResponseWriter, r *http.Request) {
	events, err := h.audit.FailedLogins(r.Context(), queryWindow(r))
	if err != nil {
		h.logger.Error("failed to query failed logins", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "failed to query audit events")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": toEventResponses(events),
	})
}

// Suspicious handles GET /v1/audit/suspicious
func (h *AuditHandler) Suspicious(w http.ResponseWriter, r *http.Request) {
	events, err := h.audit.Suspicious(r.Context(), queryWindow(r))
	if err != nil {
		h.logger.Error("failed to query suspicious events", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "failed to query audit events")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": toEventResponses(events),
	})
}

func queryLimit(r *http.Request) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil {
			return l
		}
	}
	return 0
}

func queryWindow(r *http.Request) time.Duration {
	seconds := defaultWindowSeconds
	if s := r.URL.Query().Get("window_seconds"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= maxWindowSeconds {
			seconds = v
		}
	}
	return time.Duration(seconds) * time.Second
}
