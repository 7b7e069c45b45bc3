package repositories

import (
	"context"

	"github.com/finchworks/gatehouse/internal/database"
	"github.com/finchworks/gatehouse/internal/models"
)

// PolicyRepository persists the singleton security policy row.
type PolicyRepository struct {
	db *database.DB
}

// NewPolicyRepository creates a new PolicyRepository
func NewPolicyRepository(db *database.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// Get reads the singleton policy row.
func (r *PolicyRepository) Get(ctx context.Context) (models.SecurityPolicy, error) {
	query := `
		SELECT max_login_attempts, lockout_duration_minutes, session_timeout_minutes,
		       require_strong_passwords, min_password_length, require_uppercase,
		       require_lowercase, require_numbers, require_special_chars
		FROM security_policies
		WHERE id = 1
	`

	var policy models.SecurityPolicy
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&policy.MaxLoginAttempts, &policy.LockoutDurationMinutes, &policy.SessionTimeoutMinutes,
		&policy.RequireStrongPasswords, &policy.MinPasswordLength, &policy.RequireUppercase,
		&policy.RequireLowercase, &policy.RequireNumbers, &policy.RequireSpecialChars,
	)
	if err != nil {
		return models.SecurityPolicy{}, database.MapPostgresError(err)
	}

	return policy, nil
}

// Update overwrites the singleton policy row.
func (r *PolicyRepository) Update(ctx context.Context, policy models.SecurityPolicy) error {
	query := `
		UPDATE security_policies
		SET max_login_attempts = $1, lockout_duration_minutes = $2,
		    session_timeout_minutes = $3, require_strong_passwords = $4,
		    min_password_length = $5, require_uppercase = $6,
		    require_lowercase = $7, require_numbers = $8,
		    require_special_chars = $9, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		policy.MaxLoginAttempts, policy.LockoutDurationMinutes, policy.SessionTimeoutMinutes,
		policy.RequireStrongPasswords, policy.MinPasswordLength, policy.RequireUppercase,
		policy.RequireLowercase, policy.RequireNumbers, policy.RequireSpecialChars,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
