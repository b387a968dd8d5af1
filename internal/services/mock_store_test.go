package services

import (
	"context"
	"sort"

	"github.com/journeymate/backend/internal/models"
	"github.com/journeymate/backend/internal/repositories"
)

// mockStore is an in-memory implementation of repositories.ResourceStore
type mockStore struct {
	resources  map[string]models.Resource
	acquireErr error
	getErr     error
	findErr    error
	createErr  error
	commitErr  error
	sessions   []*mockSession
}

func newMockStore(paths ...string) *mockStore {
	m := &mockStore{resources: map[string]models.Resource{}}
	for _, path := range paths {
		m.put(path, nil)
	}
	return m
}

func (m *mockStore) put(path string, properties map[string]string) {
	if properties == nil {
		properties = map[string]string{}
	}
	m.resources[path] = models.Resource{
		Path:         path,
		Name:         models.BaseName(path),
		ResourceType: models.DefaultResourceType,
		Properties:   properties,
	}
}

func (m *mockStore) countChildren(path string) int {
	n := 0
	for p := range m.resources {
		if models.ParentPath(p) == path {
			n++
		}
	}
	return n
}

func (m *mockStore) Acquire(ctx context.Context, scope models.Scope) (repositories.ResourceSession, error) {
	if m.acquireErr != nil {
		return nil, m.acquireErr
	}
	s := &mockSession{store: m, scope: scope}
	m.sessions = append(m.sessions, s)
	return s, nil
}

func (m *mockStore) Ping(ctx context.Context) error {
	return nil
}

// mockSession stages writes until Commit
type mockSession struct {
	store     *mockStore
	scope     models.Scope
	staged    []models.Resource
	committed bool
	closed    int
}

func (s *mockSession) GetResource(ctx context.Context, path string) (*models.Resource, error) {
	if s.store.getErr != nil {
		return nil, s.store.getErr
	}
	r, ok := s.store.resources[path]
	if !ok {
		return nil, models.ErrResourceNotFound
	}
	return &r, nil
}

func (s *mockSession) GetChildren(ctx context.Context, path string) ([]models.Resource, error) {
	var children []models.Resource
	keys := make([]string, 0, len(s.store.resources))
	for k := range s.store.resources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, p := range keys {
		if models.ParentPath(p) == path {
			children = append(children, s.store.resources[p])
		}
	}
	return children, nil
}

func (s *mockSession) FindChildByProperty(ctx context.Context, parentPath, property, value string) (*models.Resource, error) {
	if s.store.findErr != nil {
		return nil, s.store.findErr
	}
	children, _ := s.GetChildren(ctx, parentPath)
	for i := range children {
		if children[i].Properties[property] == value {
			return &children[i], nil
		}
	}
	return nil, models.ErrResourceNotFound
}

func (s *mockSession) CreateResource(ctx context.Context, parentPath, name string, properties map[string]string) (*models.Resource, error) {
	if s.scope != models.ScopeWrite {
		return nil, models.ErrReadOnlySession
	}
	if s.store.createErr != nil {
		return nil, s.store.createErr
	}
	r := models.Resource{
		Path:         models.ChildPath(parentPath, name),
		Name:         name,
		ResourceType: models.DefaultResourceType,
		Properties:   properties,
	}
	s.staged = append(s.staged, r)
	return &r, nil
}

func (s *mockSession) Commit(ctx context.Context) error {
	if s.store.commitErr != nil {
		return s.store.commitErr
	}
	for _, r := range s.staged {
		s.store.resources[r.Path] = r
	}
	s.staged = nil
	s.committed = true
	return nil
}

func (s *mockSession) Close() error {
	s.closed++
	s.staged = nil
	return nil
}
