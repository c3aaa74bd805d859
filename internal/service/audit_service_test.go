package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-portal-api/internal/models"
	"github.com/noah-isme/tms-portal-api/pkg/config"
)

type mockAuditStore struct {
	mu       sync.Mutex
	inserted []models.AuditEntry
	notify   chan struct{}
}

func (m *mockAuditStore) Insert(ctx context.Context, entry *models.AuditEntry) error {
	m.mu.Lock()
	m.inserted = append(m.inserted, *entry)
	m.mu.Unlock()
	if m.notify != nil {
		m.notify <- struct{}{}
	}
	return nil
}

func (m *mockAuditStore) List(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AuditEntry, len(m.inserted))
	copy(out, m.inserted)
	return out, nil
}

func TestAuditServicePersistsAsynchronously(t *testing.T) {
	store := &mockAuditStore{notify: make(chan struct{}, 1)}
	svc := NewAuditService(store, config.AuditConfig{Workers: 1, BufferSize: 4}, zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Record(models.AuditEntry{Actor: "admin", Action: models.AuditActionCourseCreate, Resource: "course"})

	select {
	case <-store.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("entry was never persisted")
	}

	entries, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID, "id is filled in before enqueue")
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestAuditServiceRecordBeforeStartDoesNotPanic(t *testing.T) {
	store := &mockAuditStore{}
	svc := NewAuditService(store, config.AuditConfig{}, zap.NewNop())

	// Enqueue fails and is logged; the caller is never affected.
	svc.Record(models.AuditEntry{Actor: "admin", Action: models.AuditActionUserDelete})
}
