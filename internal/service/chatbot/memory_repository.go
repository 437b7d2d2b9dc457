package chatbot

import (
	"context"
	"sync"

	"docvia-widget/internal/model"
)

// MemoryRepository keeps everything in process memory. It backs the
// server's --in-memory mode and tests.
type MemoryRepository struct {
	mu       sync.Mutex
	apps     map[string]model.AppItem
	keys     map[string]model.AppKeyItem
	visitors map[string]model.VisitorItem
	queries  []model.QueryItem
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		apps:     make(map[string]model.AppItem),
		keys:     make(map[string]model.AppKeyItem),
		visitors: make(map[string]model.VisitorItem),
	}
}

func (m *MemoryRepository) GetApp(ctx context.Context, appID string) (model.AppItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[appID]
	if !ok {
		return model.AppItem{}, ErrNotFound
	}
	return app, nil
}

func (m *MemoryRepository) CreateApp(ctx context.Context, app model.AppItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[app.AppID]; ok {
		return ErrAlreadyExists
	}
	m.apps[app.AppID] = app
	return nil
}

func (m *MemoryRepository) GetAppKey(ctx context.Context, keyID string) (model.AppKeyItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.keys[keyID]
	if !ok {
		return model.AppKeyItem{}, ErrNotFound
	}
	return key, nil
}

func (m *MemoryRepository) CreateAppKey(ctx context.Context, key model.AppKeyItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key.KeyID]; ok {
		return ErrAlreadyExists
	}
	m.keys[key.KeyID] = key
	return nil
}

func (m *MemoryRepository) TouchAppKey(ctx context.Context, keyID, usedAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.keys[keyID]
	if !ok {
		return ErrNotFound
	}
	key.LastUsedAt = usedAt
	m.keys[keyID] = key
	return nil
}

func (m *MemoryRepository) GetVisitor(ctx context.Context, appID, visitorID string) (model.VisitorItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	visitor, ok := m.visitors[model.AppScopedPK(appID, visitorID)]
	if !ok {
		return model.VisitorItem{}, ErrNotFound
	}
	return visitor, nil
}

func (m *MemoryRepository) CreateVisitor(ctx context.Context, visitor model.VisitorItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	visitor.PK = model.AppScopedPK(visitor.AppID, visitor.VisitorID)
	if _, ok := m.visitors[visitor.PK]; ok {
		return ErrAlreadyExists
	}
	m.visitors[visitor.PK] = visitor
	return nil
}

func (m *MemoryRepository) TouchVisitor(ctx context.Context, appID, visitorID, seenAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := model.AppScopedPK(appID, visitorID)
	visitor, ok := m.visitors[pk]
	if !ok {
		return ErrNotFound
	}
	visitor.LastSeenAt = seenAt
	m.visitors[pk] = visitor
	return nil
}

func (m *MemoryRepository) CreateQuery(ctx context.Context, query model.QueryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	return nil
}

// Queries returns a copy of every recorded query.
func (m *MemoryRepository) Queries() []model.QueryItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.QueryItem(nil), m.queries...)
}
