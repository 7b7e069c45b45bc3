package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/finchworks/gatehouse/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAuditStore struct {
	mu        sync.Mutex
	created   []*models.AuditEvent
	createErr error

	recentEvents []*models.AuditEvent
	queryErr     error
	lastLimit    int
	lastSince    time.Time
}

func (m *mockAuditStore) Create(ctx context.Context, event *models.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, event)
	return nil
}

func (m *mockAuditStore) Recent(ctx context.Context, limit int, filters repositories.AuditFilters) ([]*models.AuditEvent, error) {
	m.lastLimit = limit
	return m.recentEvents, m.queryErr
}

func (m *mockAuditStore) ByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AuditEvent, error) {
	m.lastLimit = limit
	return m.recentEvents, m.queryErr
}

func (m *mockAuditStore) FailedLoginsSince(ctx context.Context, since time.Time, limit int) ([]*models.AuditEvent, error) {
	m.lastSince = since
	m.lastLimit = limit
	return m.recentEvents, m.queryErr
}

func (m *mockAuditStore) SuspiciousSince(ctx context.Context, since time.Time, limit int) ([]*models.AuditEvent, error) {
	m.lastSince = since
	m.lastLimit = limit
	return m.recentEvents, m.queryErr
}

func (m *mockAuditStore) createdCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

func newTestAuditService(store *mockAuditStore) *AuditService {
	svc := NewAuditService(store, slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	svc.persisted = make(chan struct{}, 16)
	return svc
}

func waitPersisted(t *testing.T, svc *AuditService) {
	t.Helper()
	select {
	case <-svc.persisted:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event to persist")
	}
}

func TestAuditService_LogPersistsAsynchronously(t *testing.T) {
	store := &mockAuditStore{}
	svc := newTestAuditService(store)

	svc.Log(context.Background(), &models.AuditEvent{
		EventType: models.EventLoginFailed,
		Severity:  models.SeverityMedium,
		IPAddress: "1.2.3.4",
	})

	waitPersisted(t, svc)
	require.Equal(t, 1, store.createdCount())
	assert.Equal(t, models.EventLoginFailed, store.created[0].EventType)
	assert.False(t, store.created[0].CreatedAt.IsZero())
}

func TestAuditService_LogSwallowsPersistFailure(t *testing.T) {
	store := &mockAuditStore{createErr: errors.New("connection refused")}
	svc := newTestAuditService(store)

	// Must not panic or surface the store error to the caller
	svc.Log(context.Background(), &models.AuditEvent{
		EventType: models.EventAccountLocked,
		Severity:  models.SeverityHigh,
		IPAddress: "1.2.3.4",
	})

	waitPersisted(t, svc)
	assert.Equal(t, 0, store.createdCount())
}

func TestAuditService_LogSurvivesCancelledRequestContext(t *testing.T) {
	store := &mockAuditStore{}
	svc := newTestAuditService(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The request context is already dead; the persist still goes through
	svc.Log(ctx, &models.AuditEvent{
		EventType: models.EventLoginSuccess,
		Severity:  models.SeverityLow,
		IPAddress: "1.2.3.4",
	})

	waitPersisted(t, svc)
	assert.Equal(t, 1, store.createdCount())
}

func TestAuditService_LogPreservesExplicitTimestamp(t *testing.T) {
	store := &mockAuditStore{}
	svc := newTestAuditService(store)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.Log(context.Background(), &models.AuditEvent{
		EventType: models.EventAdminAction,
		Severity:  models.SeverityMedium,
		IPAddress: "1.2.3.4",
		CreatedAt: ts,
	})

	waitPersisted(t, svc)
	require.Equal(t, 1, store.createdCount())
	assert.True(t, store.created[0].CreatedAt.Equal(ts))
}

func TestAuditService_QueryLimitClamping(t *testing.T) {
	store := &mockAuditStore{}
	svc := newTestAuditService(store)
	ctx := context.Background()

	_, err := svc.Recent(ctx, 0, repositories.AuditFilters{})
	require.NoError(t, err)
	assert.Equal(t, defaultQueryLimit, store.lastLimit)

	_, err = svc.Recent(ctx, 10000, repositories.AuditFilters{})
	require.NoError(t, err)
	assert.Equal(t, maxQueryLimit, store.lastLimit)

	_, err = svc.ByUser(ctx, uuid.New(), 25)
	require.NoError(t, err)
	assert.Equal(t, 25, store.lastLimit)
}

func TestAuditService_WindowQueries(t *testing.T) {
	store := &mockAuditStore{}
	svc := newTestAuditService(store)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	_, err := svc.FailedLogins(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.True(t, store.lastSince.Equal(fixed.Add(-time.Hour)))

	_, err = svc.Suspicious(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, store.lastSince.Equal(fixed.Add(-24*time.Hour)))
}

func TestAuditService_QueryErrorsPropagate(t *testing.T) {
	store := &mockAuditStore{queryErr: errors.New("connection refused")}
	svc := newTestAuditService(store)

	_, err := svc.Recent(context.Background(), 10, repositories.AuditFilters{})
	assert.Error(t, err)

	_, err = svc.FailedLogins(context.Background(), time.Hour)
	assert.Error(t, err)
}
