package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/journeymate/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// indexedProperties are kept in a value -> child name lookup key per parent
var indexedProperties = []string{models.PropEmail}

// redisResourceStore implements ResourceStore on Redis.
//
// Keys:
//
//	<prefix>res:<path>                          JSON encoded resource
//	<prefix>children:<path>                     set of child names
//	<prefix>idx:<parent>:<property>:<value>     name of the indexed child
type redisResourceStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisResourceStore creates a Redis backed resource store. Prefix may be empty.
func NewRedisResourceStore(client *redis.Client, prefix string, logger *zap.Logger) *redisResourceStore {
	return &redisResourceStore{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (s *redisResourceStore) resourceKey(path string) string {
	return s.prefix + "res:" + path
}

func (s *redisResourceStore) childrenKey(path string) string {
	return s.prefix + "children:" + path
}

func (s *redisResourceStore) indexKey(parent, property, value string) string {
	return s.prefix + "idx:" + parent + ":" + property + ":" + value
}

// Acquire opens a session. Writes are buffered until Commit.
func (s *redisResourceStore) Acquire(ctx context.Context, scope models.Scope) (ResourceSession, error) {
	if scope != models.ScopeRead && scope != models.ScopeWrite {
		return nil, fmt.Errorf("unknown scope: %s", scope)
	}
	return &redisResourceSession{store: s, scope: scope}, nil
}

// Ping checks the Redis connection
func (s *redisResourceStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// EnsureRoots creates the given resources (and links them to their parents) if they do not exist yet
func (s *redisResourceStore) EnsureRoots(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		resource := models.Resource{
			Path:         path,
			Name:         models.BaseName(path),
			ResourceType: models.DefaultResourceType,
			Properties:   map[string]string{},
		}

		encoded, err := json.Marshal(resource)
		if err != nil {
			return fmt.Errorf("failed to encode resource: %w", err)
		}

		created, err := s.client.SetNX(ctx, s.resourceKey(path), encoded, 0).Result()
		if err != nil {
			s.logger.Error("failed to create root resource", zap.Error(err), zap.String("path", path))
			return fmt.Errorf("failed to create root resource %s: %w", path, err)
		}
		if created && resource.Name != "" {
			if err := s.client.SAdd(ctx, s.childrenKey(models.ParentPath(path)), resource.Name).Err(); err != nil {
				return fmt.Errorf("failed to link root resource %s: %w", path, err)
			}
		}
	}
	return nil
}

func (s *redisResourceStore) get(ctx context.Context, path string) (*models.Resource, error) {
	data, err := s.client.Get(ctx, s.resourceKey(path)).Bytes()
	if err == redis.Nil {
		return nil, models.ErrResourceNotFound
	}
	if err != nil {
		s.logger.Error("failed to get resource", zap.Error(err), zap.String("path", path))
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}

	var resource models.Resource
	if err := json.Unmarshal(data, &resource); err != nil {
		return nil, fmt.Errorf("failed to decode resource %s: %w", path, err)
	}
	if resource.Properties == nil {
		resource.Properties = map[string]string{}
	}
	return &resource, nil
}

// redisResourceSession implements ResourceSession. Staged resources are visible to the session's own reads.
type redisResourceSession struct {
	store   *redisResourceStore
	scope   models.Scope
	pending []models.Resource
	closed  bool
}

func (s *redisResourceSession) staged(path string) *models.Resource {
	for i := range s.pending {
		if s.pending[i].Path == path {
			return &s.pending[i]
		}
	}
	return nil
}

// GetResource retrieves a resource by its path
func (s *redisResourceSession) GetResource(ctx context.Context, path string) (*models.Resource, error) {
	if s.closed {
		return nil, models.ErrSessionClosed
	}
	if r := s.staged(path); r != nil {
		return r, nil
	}
	return s.store.get(ctx, path)
}

// GetChildren retrieves the direct children of a resource ordered by name
func (s *redisResourceSession) GetChildren(ctx context.Context, path string) ([]models.Resource, error) {
	if s.closed {
		return nil, models.ErrSessionClosed
	}

	names, err := s.store.client.SMembers(ctx, s.store.childrenKey(path)).Result()
	if err != nil {
		s.store.logger.Error("failed to list children", zap.Error(err), zap.String("path", path))
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	for _, r := range s.pending {
		if models.ParentPath(r.Path) == path && !slices.Contains(names, r.Name) {
			names = append(names, r.Name)
		}
	}
	slices.Sort(names)

	children := make([]models.Resource, 0, len(names))
	for _, name := range names {
		child, err := s.GetResource(ctx, models.ChildPath(path, name))
		if errors.Is(err, models.ErrResourceNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		children = append(children, *child)
	}

	return children, nil
}

// FindChildByProperty resolves indexed properties through their lookup key and scans the children otherwise
func (s *redisResourceSession) FindChildByProperty(ctx context.Context, parentPath, property, value string) (*models.Resource, error) {
	if s.closed {
		return nil, models.ErrSessionClosed
	}

	if slices.Contains(indexedProperties, property) {
		for i := range s.pending {
			if models.ParentPath(s.pending[i].Path) == parentPath && s.pending[i].Properties[property] == value {
				return &s.pending[i], nil
			}
		}

		name, err := s.store.client.Get(ctx, s.store.indexKey(parentPath, property, value)).Result()
		if err == redis.Nil {
			return nil, models.ErrResourceNotFound
		}
		if err != nil {
			s.store.logger.Error("failed to read index", zap.Error(err), zap.String("property", property))
			return nil, fmt.Errorf("failed to read index: %w", err)
		}
		return s.store.get(ctx, models.ChildPath(parentPath, name))
	}

	children, err := s.GetChildren(ctx, parentPath)
	if err != nil {
		return nil, err
	}
	for i := range children {
		if children[i].Properties[property] == value {
			return &children[i], nil
		}
	}
	return nil, models.ErrResourceNotFound
}

// CreateResource stages a new resource
func (s *redisResourceSession) CreateResource(ctx context.Context, parentPath, name string, properties map[string]string) (*models.Resource, error) {
	if s.closed {
		return nil, models.ErrSessionClosed
	}
	if s.scope != models.ScopeWrite {
		return nil, models.ErrReadOnlySession
	}
	if !models.IsValidName(name) {
		return nil, fmt.Errorf("invalid resource name %q", name)
	}

	path := models.ChildPath(parentPath, name)
	if s.staged(path) != nil {
		return nil, fmt.Errorf("failed to create resource %s: %w", path, models.ErrResourceExists)
	}

	if properties == nil {
		properties = map[string]string{}
	}
	s.pending = append(s.pending, models.Resource{
		Path:         path,
		Name:         name,
		ResourceType: models.DefaultResourceType,
		Properties:   properties,
	})

	return &s.pending[len(s.pending)-1], nil
}

// Commit applies staged resources atomically. The resource and index keys are watched,
// so a concurrent writer taking the same path or indexed value makes the commit fail with models.ErrResourceExists.
func (s *redisResourceSession) Commit(ctx context.Context) error {
	if s.closed {
		return models.ErrSessionClosed
	}
	s.closed = true

	if len(s.pending) == 0 {
		return nil
	}

	var keys []string
	for _, r := range s.pending {
		keys = append(keys, s.store.resourceKey(r.Path))
		keys = append(keys, s.indexKeys(r)...)
	}

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, keys...).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return models.ErrResourceExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, r := range s.pending {
				encoded, err := json.Marshal(r)
				if err != nil {
					return err
				}
				parent := models.ParentPath(r.Path)
				pipe.Set(ctx, s.store.resourceKey(r.Path), encoded, 0)
				pipe.SAdd(ctx, s.store.childrenKey(parent), r.Name)
				for _, key := range s.indexKeys(r) {
					pipe.Set(ctx, key, r.Name, 0)
				}
			}
			return nil
		})
		return err
	}

	err := s.store.client.Watch(ctx, txf, keys...)
	if errors.Is(err, models.ErrResourceExists) || errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("failed to commit: %w", models.ErrResourceExists)
	}
	if err != nil {
		s.store.logger.Error("failed to commit resources", zap.Error(err))
		return fmt.Errorf("failed to commit resources: %w", err)
	}

	s.pending = nil
	return nil
}

func (s *redisResourceSession) indexKeys(r models.Resource) []string {
	var keys []string
	for _, property := range indexedProperties {
		if value, ok := r.Properties[property]; ok {
			keys = append(keys, s.store.indexKey(models.ParentPath(r.Path), property, value))
		}
	}
	return keys
}

// Close discards staged resources
func (s *redisResourceSession) Close() error {
	s.closed = true
	s.pending = nil
	return nil
}
