package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/finchworks/gatehouse/internal/database"
	"github.com/finchworks/gatehouse/internal/models"
	"github.com/google/uuid"
)

// EmployeeRepository exposes the lock-state and activity fields of the HR
// app's employee records. Everything else about employees is owned elsewhere.
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new EmployeeRepository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// GetByID retrieves an employee's security-relevant fields.
func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	query := `
		SELECT id, email, role, is_locked, locked_at, last_activity_at
		FROM employees
		WHERE id = $1
	`

	var emp models.Employee
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&emp.ID, &emp.Email, &emp.Role, &emp.IsLocked, &emp.LockedAt, &emp.LastActivityAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &emp, nil
}

// GetByEmail retrieves an employee by normalized email.
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	query := `
		SELECT id, email, role, is_locked, locked_at, last_activity_at
		FROM employees
		WHERE LOWER(email) = LOWER($1)
	`

	var emp models.Employee
	err := r.db.Pool.QueryRow(ctx, query, email).Scan(
		&emp.ID, &emp.Email, &emp.Role, &emp.IsLocked, &emp.LockedAt, &emp.LastActivityAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &emp, nil
}

// GetLockState reads the lock flag pair for an employee.
func (r *EmployeeRepository) GetLockState(ctx context.Context, employeeID uuid.UUID) (models.LockState, error) {
	query := `SELECT is_locked, locked_at FROM employees WHERE id = $1`

	var state models.LockState
	err := r.db.Pool.QueryRow(ctx, query, employeeID).Scan(&state.IsLocked, &state.LockedAt)
	if err != nil {
		return models.LockState{}, database.MapPostgresError(err)
	}

	return state, nil
}

// SetLockState writes the lock flag pair for an employee.
func (r *EmployeeRepository) SetLockState(ctx context.Context, employeeID uuid.UUID, state models.LockState) error {
	query := `UPDATE employees SET is_locked = $2, locked_at = $3 WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, employeeID, state.IsLocked, state.LockedAt)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetLastActivity reads the sliding last-activity timestamp, nil when the
// employee has never been touched.
func (r *EmployeeRepository) GetLastActivity(ctx context.Context, employeeID uuid.UUID) (*time.Time, error) {
	query := `SELECT last_activity_at FROM employees WHERE id = $1`

	var lastActivity *time.Time
	err := r.db.Pool.QueryRow(ctx, query, employeeID).Scan(&lastActivity)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return lastActivity, nil
}

// SetLastActivity slides the activity window forward.
func (r *EmployeeRepository) SetLastActivity(ctx context.Context, employeeID uuid.UUID, ts time.Time) error {
	query := `UPDATE employees SET last_activity_at = $2 WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, employeeID, ts)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Create inserts an employee row. Used by tests and provisioning tooling; the
// HR app owns employee lifecycle in production.
func (r *EmployeeRepository) Create(ctx context.Context, email, role string) (*models.Employee, error) {
	query := `
		INSERT INTO employees (email, role)
		VALUES ($1, $2)
		RETURNING id, email, role, is_locked, locked_at, last_activity_at
	`

	var emp models.Employee
	err := r.db.Pool.QueryRow(ctx, query, email, role).Scan(
		&emp.ID, &emp.Email, &emp.Role, &emp.IsLocked, &emp.LockedAt, &emp.LastActivityAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", database.MapPostgresError(err))
	}

	return &emp, nil
}
