package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/finchworks/gatehouse/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeRepository_GetByEmailIsCaseInsensitive(t *testing.T) {
	freshDB(t)
	repo := repositories.NewEmployeeRepository(testDB.DB)
	ctx := context.Background()

	seeded, err := SeedEmployee(ctx, testDB.Pool, "casey@example.com", "collaborator")
	require.NoError(t, err)

	found, err := repo.GetByEmail(ctx, "CASEY@example.com")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
}

func TestEmployeeRepository_GetByEmailNotFound(t *testing.T) {
	freshDB(t)
	repo := repositories.NewEmployeeRepository(testDB.DB)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestEmployeeRepository_LockStateRoundTrip(t *testing.T) {
	freshDB(t)
	repo := repositories.NewEmployeeRepository(testDB.DB)
	ctx := context.Background()

	emp, err := SeedEmployee(ctx, testDB.Pool, "lock@example.com", "collaborator")
	require.NoError(t, err)

	state, err := repo.GetLockState(ctx, emp.ID)
	require.NoError(t, err)
	assert.False(t, state.IsLocked)
	assert.Nil(t, state.LockedAt)

	lockedAt := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.SetLockState(ctx, emp.ID, models.LockState{IsLocked: true, LockedAt: &lockedAt}))

	state, err = repo.GetLockState(ctx, emp.ID)
	require.NoError(t, err)
	assert.True(t, state.IsLocked)
	require.NotNil(t, state.LockedAt)
	assert.WithinDuration(t, lockedAt, *state.LockedAt, time.Second)

	// Full record view agrees with the lock-state view
	full, err := repo.GetByID(ctx, emp.ID)
	require.NoError(t, err)
	assert.True(t, full.IsLocked)

	// Clearing the lock also clears locked_at
	require.NoError(t, repo.SetLockState(ctx, emp.ID, models.LockState{}))
	state, err = repo.GetLockState(ctx, emp.ID)
	require.NoError(t, err)
	assert.False(t, state.IsLocked)
	assert.Nil(t, state.LockedAt)
}

func TestEmployeeRepository_SetLockStateUnknownEmployee(t *testing.T) {
	freshDB(t)
	repo := repositories.NewEmployeeRepository(testDB.DB)

	err := repo.SetLockState(context.Background(), uuid.New(), models.LockState{IsLocked: true})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestEmployeeRepository_LastActivityRoundTrip(t *testing.T) {
	freshDB(t)
	repo := repositories.NewEmployeeRepository(testDB.DB)
	ctx := context.Background()

	emp, err := SeedEmployee(ctx, testDB.Pool, "active@example.com", "collaborator")
	require.NoError(t, err)

	last, err := repo.GetLastActivity(ctx, emp.ID)
	require.NoError(t, err)
	assert.Nil(t, last)

	ts := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.SetLastActivity(ctx, emp.ID, ts))

	last, err = repo.GetLastActivity(ctx, emp.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.WithinDuration(t, ts, *last, time.Second)
}

func TestPolicyRepository_RoundTrip(t *testing.T) {
	repo := repositories.NewPolicyRepository(testDB.DB)
	ctx := context.Background()

	// Seeded singleton row carries the defaults
	policy, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSecurityPolicy(), policy)

	updated := policy
	updated.MaxLoginAttempts = 3
	updated.LockoutDurationMinutes = 60
	require.NoError(t, repo.Update(ctx, updated))

	policy, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, policy.MaxLoginAttempts)
	assert.Equal(t, 60, policy.LockoutDurationMinutes)

	// Restore defaults for other tests
	require.NoError(t, repo.Update(ctx, models.DefaultSecurityPolicy()))
}
