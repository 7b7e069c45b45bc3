package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/finchworks/gatehouse/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	db, err := SetupTestDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "skipping integration tests: %v\n", err)
		os.Exit(0)
	}
	testDB = db

	code := m.Run()

	testDB.Teardown(ctx)
	os.Exit(code)
}

func freshDB(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
}

func seedEvent(t *testing.T, repo *repositories.AuditEventRepository, eventType, severity string, userID *uuid.UUID, createdAt time.Time) {
	t.Helper()
	err := repo.Create(context.Background(), &models.AuditEvent{
		EventType: eventType,
		Severity:  severity,
		UserID:    userID,
		IPAddress: "203.0.113.7",
		Details:   models.EventDetails{"seed": true},
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
}

func TestAuditEventRepository_RecentOrdering(t *testing.T) {
	freshDB(t)
	repo := repositories.NewAuditEventRepository(testDB.DB)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	seedEvent(t, repo, models.EventLoginFailed, models.SeverityMedium, nil, base.Add(-2*time.Minute))
	seedEvent(t, repo, models.EventLoginSuccess, models.SeverityLow, nil, base.Add(-time.Minute))
	seedEvent(t, repo, models.EventAccountLocked, models.SeverityHigh, nil, base)

	events, err := repo.Recent(ctx, 10, repositories.AuditFilters{})
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Newest first
	assert.Equal(t, models.EventAccountLocked, events[0].EventType)
	assert.Equal(t, models.EventLoginSuccess, events[1].EventType)
	assert.Equal(t, models.EventLoginFailed, events[2].EventType)
}

func TestAuditEventRepository_RecentTiebreakOnID(t *testing.T) {
	freshDB(t)
	repo := repositories.NewAuditEventRepository(testDB.DB)
	ctx := context.Background()

	// Identical timestamps: insertion order decides, newest insert first
	ts := time.Now().UTC().Truncate(time.Second)
	seedEvent(t, repo, models.EventLoginFailed, models.SeverityMedium, nil, ts)
	seedEvent(t, repo, models.EventLoginSuccess, models.SeverityLow, nil, ts)

	events, err := repo.Recent(ctx, 10, repositories.AuditFilters{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventLoginSuccess, events[0].EventType)
	assert.Greater(t, events[0].ID, events[1].ID)
}

func TestAuditEventRepository_RecentFilters(t *testing.T) {
	freshDB(t)
	repo := repositories.NewAuditEventRepository(testDB.DB)
	ctx := context.Background()

	now := time.Now().UTC()
	seedEvent(t, repo, models.EventLoginFailed, models.SeverityMedium, nil, now)
	seedEvent(t, repo, models.EventLoginFailed, models.SeverityHigh, nil, now)
	seedEvent(t, repo, models.EventAccountLocked, models.SeverityHigh, nil, now)

	events, err := repo.Recent(ctx, 10, repositories.AuditFilters{EventType: models.EventLoginFailed})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = repo.Recent(ctx, 10, repositories.AuditFilters{Severity: models.SeverityHigh})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = repo.Recent(ctx, 10, repositories.AuditFilters{
		EventType: models.EventLoginFailed,
		Severity:  models.SeverityHigh,
	})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestAuditEventRepository_ByUser(t *testing.T) {
	freshDB(t)
	repo := repositories.NewAuditEventRepository(testDB.DB)
	ctx := context.Background()

	userA := uuid.New()
	userB := uuid.New()
	now := time.Now().UTC()
	seedEvent(t, repo, models.EventLoginFailed, models.SeverityMedium, &userA, now)
	seedEvent(t, repo, models.EventLoginSuccess, models.SeverityLow, &userA, now)
	seedEvent(t, repo, models.EventLoginFailed, models.SeverityMedium, &userB, now)

	events, err := repo.ByUser(ctx, userA, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, e := range events {
		require.NotNil(t, e.UserID)
		assert.Equal(t, userA, *e.UserID)
	}
}

func TestAuditEventRepository_WindowQueries(t *testing.T) {
	freshDB(t)
	repo := repositories.NewAuditEventRepository(testDB.DB)
	ctx := context.Background()

	now := time.Now().UTC()
	seedEvent(t, repo, models.EventLoginFailed, models.SeverityMedium, nil, now.Add(-2*time.Hour))
	seedEvent(t, repo, models.EventLoginFailed, models.SeverityMedium, nil, now.Add(-10*time.Minute))
	seedEvent(t, repo, models.EventSuspiciousActivity, models.SeverityHigh, nil, now.Add(-5*time.Minute))
	seedEvent(t, repo, models.EventAccountLocked, models.SeverityCritical, nil, now.Add(-time.Minute))
	seedEvent(t, repo, models.EventLoginSuccess, models.SeverityLow, nil, now)

	failed, err := repo.FailedLoginsSince(ctx, now.Add(-time.Hour), 100)
	require.NoError(t, err)
	assert.Len(t, failed, 1)

	suspicious, err := repo.SuspiciousSince(ctx, now.Add(-time.Hour), 100)
	require.NoError(t, err)
	// HIGH and CRITICAL only
	require.Len(t, suspicious, 2)
	assert.Equal(t, models.EventAccountLocked, suspicious[0].EventType)
	assert.Equal(t, models.EventSuspiciousActivity, suspicious[1].EventType)
}

func TestAuditEventRepository_Cleanup(t *testing.T) {
	freshDB(t)
	repo := repositories.NewAuditEventRepository(testDB.DB)
	ctx := context.Background()

	now := time.Now().UTC()
	seedEvent(t, repo, models.EventLoginFailed, models.SeverityMedium, nil, now.AddDate(0, 0, -400))
	seedEvent(t, repo, models.EventLoginFailed, models.SeverityMedium, nil, now)

	deleted, err := repo.Cleanup(ctx, 365)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, err := repo.Recent(ctx, 10, repositories.AuditFilters{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestAuditEventRepository_DetailsRoundTrip(t *testing.T) {
	freshDB(t)
	repo := repositories.NewAuditEventRepository(testDB.DB)
	ctx := context.Background()

	err := repo.Create(ctx, &models.AuditEvent{
		EventType: models.EventAccountLocked,
		Severity:  models.SeverityHigh,
		IPAddress: "203.0.113.7",
		Details: models.EventDetails{
			"reason":         "5 consecutive failed login attempts",
			"already_locked": false,
		},
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	events, err := repo.Recent(ctx, 1, repositories.AuditFilters{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "5 consecutive failed login attempts", events[0].Details["reason"])
	assert.Equal(t, false, events[0].Details["already_locked"])
}
