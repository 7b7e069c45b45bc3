package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/finchworks/gatehouse/internal/database"
	"github.com/finchworks/gatehouse/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const auditEventColumns = `id, event_type, severity, user_id, user_email, ip_address,
	       user_agent, request_method, request_url, details, created_at`

// AuditEventRepository handles audit event data access. The table is
// append-only: this repository inserts, queries and prunes by retention, but
// never updates a row.
type AuditEventRepository struct {
	db *database.DB
}

// NewAuditEventRepository creates a new AuditEventRepository
func NewAuditEventRepository(db *database.DB) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuditEventRow(row rowScanner) (*models.AuditEvent, error) {
	var event models.AuditEvent

	err := row.Scan(
		&event.ID, &event.EventType, &event.Severity, &event.UserID,
		&event.UserEmail, &event.IPAddress, &event.UserAgent,
		&event.RequestMethod, &event.RequestURL, &event.Details,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &event, nil
}

func scanAuditEventRows(rows pgx.Rows) ([]*models.AuditEvent, error) {
	defer rows.Close()

	events := make([]*models.AuditEvent, 0)

	for rows.Next() {
		event, err := scanAuditEventRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit event rows: %w", err)
	}

	return events, nil
}

// Create appends a new audit event.
func (r *AuditEventRepository) Create(ctx context.Context, event *models.AuditEvent) error {
	query := `
		INSERT INTO audit_events (
			event_type, severity, user_id, user_email, ip_address,
			user_agent, request_method, request_url, details, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	// The event carries the timestamp of the decision being recorded, not of
	// the (asynchronous) insert.
	_, err := r.db.Pool.Exec(ctx, query,
		event.EventType, event.Severity, event.UserID, event.UserEmail,
		event.IPAddress, event.UserAgent, event.RequestMethod,
		event.RequestURL, event.Details, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit event: %w", err)
	}
	return nil
}

// AuditFilters narrows Recent queries. Zero values mean no filter.
type AuditFilters struct {
	EventType string
	Severity  string
}

// Recent retrieves the newest events, ordered by created_at descending with
// the serial id breaking ties in insertion order.
func (r *AuditEventRepository) Recent(ctx context.Context, limit int, filters AuditFilters) ([]*models.AuditEvent, error) {
	query := `
		SELECT ` + auditEventColumns + `
		FROM audit_events
		WHERE ($2 = '' OR event_type = $2)
		  AND ($3 = '' OR severity = $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit, filters.EventType, filters.Severity)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}

	return scanAuditEventRows(rows)
}

// ByUser retrieves events for a specific user.
func (r *AuditEventRepository) ByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AuditEvent, error) {
	query := `
		SELECT ` + auditEventColumns + `
		FROM audit_events
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events by user: %w", err)
	}

	return scanAuditEventRows(rows)
}

// FailedLoginsSince retrieves LOGIN_FAILED events at or after the cutoff.
func (r *AuditEventRepository) FailedLoginsSince(ctx context.Context, since time.Time, limit int) ([]*models.AuditEvent, error) {
	query := `
		SELECT ` + auditEventColumns + `
		FROM audit_events
		WHERE event_type = $1 AND created_at >= $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.db.Pool.Query(ctx, query, models.EventLoginFailed, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query failed logins: %w", err)
	}

	return scanAuditEventRows(rows)
}

// SuspiciousSince retrieves HIGH and CRITICAL events at or after the cutoff.
func (r *AuditEventRepository) SuspiciousSince(ctx context.Context, since time.Time, limit int) ([]*models.AuditEvent, error) {
	query := `
		SELECT ` + auditEventColumns + `
		FROM audit_events
		WHERE severity IN ($1, $2) AND created_at >= $3
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`

	rows, err := r.db.Pool.Query(ctx, query, models.SeverityHigh, models.SeverityCritical, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query suspicious events: %w", err)
	}

	return scanAuditEventRows(rows)
}

// Cleanup removes audit events older than the specified number of days.
// Retention pruning is the single deletion path for this table.
func (r *AuditEventRepository) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	query := `
		DELETE FROM audit_events
		WHERE created_at < CURRENT_TIMESTAMP - INTERVAL '1 day' * $1
	`

	result, err := r.db.Pool.Exec(ctx, query, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit events: %w", err)
	}

	return result.RowsAffected(), nil
}
