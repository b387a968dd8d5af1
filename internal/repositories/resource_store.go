package repositories

import (
	"context"

	"github.com/journeymate/backend/internal/models"
)

// ResourceStore is the interface that wraps access to the content tree.
type ResourceStore interface {
	// Method Acquire opens a session authorized for the given scope.
	//
	// Sessions acquired with models.ScopeRead reject every write with models.ErrReadOnlySession.
	// The caller must Close the session on every exit path.
	Acquire(ctx context.Context, scope models.Scope) (ResourceSession, error)
	// Method Ping checks that the backing storage is reachable.
	Ping(ctx context.Context) error
}

// ResourceSession is a scoped connection to the content tree.
type ResourceSession interface {
	// Method GetResource retrieves a resource by its absolute path.
	//
	// If there is no resource at "path", models.ErrResourceNotFound is returned.
	GetResource(ctx context.Context, path string) (*models.Resource, error)
	// Method GetChildren retrieves all direct children of the resource at "path" ordered by name.
	GetChildren(ctx context.Context, path string) ([]models.Resource, error)
	// Method FindChildByProperty retrieves the first child of "parentPath" whose "property" equals "value".
	//
	// Indexed properties are resolved without scanning the children.
	// If no child matches, models.ErrResourceNotFound is returned.
	FindChildByProperty(ctx context.Context, parentPath, property, value string) (*models.Resource, error)
	// Method CreateResource stages a new child "name" of "parentPath" with the given properties.
	//
	// The resource becomes visible to other sessions only after Commit.
	// If the path is already taken, models.ErrResourceExists is returned either here or from Commit.
	CreateResource(ctx context.Context, parentPath, name string, properties map[string]string) (*models.Resource, error)
	// Method Commit persists all staged changes.
	Commit(ctx context.Context) error
	// Method Close releases the session and discards uncommitted changes. It is safe to call more than once.
	Close() error
}
