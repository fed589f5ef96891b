package sync

import (
	"context"
	"errors"
	gosync "sync"

	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/store"
)

// mockStore serves the reads an export needs and records backups. Methods
// the scheduler never calls fall through to the nil embedded Store.
type mockStore struct {
	store.Store

	mu      gosync.Mutex
	owners  []*model.Owner
	assets  []*model.Asset
	backups []*model.Backup
	listErr error
}

func newMockStore() *mockStore {
	return &mockStore{}
}

func (m *mockStore) ListOwners(context.Context) ([]*model.Owner, error) {
	return m.owners, m.listErr
}

func (m *mockStore) ListAllAssets(context.Context) ([]*model.Asset, error) {
	return m.assets, m.listErr
}

func (m *mockStore) RecordBackup(_ context.Context, b *model.Backup) error {
	if b.ID == "" {
		return errors.New("backup without id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backups = append(m.backups, b)
	return nil
}

func (m *mockStore) recorded() []*model.Backup {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Backup(nil), m.backups...)
}
