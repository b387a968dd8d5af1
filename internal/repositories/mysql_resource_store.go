package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/journeymate/backend/internal/models"
	"go.uber.org/zap"
)

// mysqlDuplicateEntry is the MySQL error number for unique key violations
const mysqlDuplicateEntry = 1062

// indexedColumns maps resource properties to generated columns that carry an index
var indexedColumns = map[string]string{
	models.PropEmail: "email",
}

// mysqlResourceStore implements ResourceStore on top of the "resources" table
type mysqlResourceStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLResourceStore creates a new MySQL backed resource store
func NewMySQLResourceStore(db *sql.DB, logger *zap.Logger) *mysqlResourceStore {
	return &mysqlResourceStore{
		db:     db,
		logger: logger,
	}
}

// Acquire starts a transaction for the given scope. Read scoped sessions use a read only transaction.
func (s *mysqlResourceStore) Acquire(ctx context.Context, scope models.Scope) (ResourceSession, error) {
	if scope != models.ScopeRead && scope != models.ScopeWrite {
		return nil, fmt.Errorf("unknown scope: %s", scope)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: scope == models.ScopeRead})
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err), zap.String("scope", string(scope)))
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &mysqlResourceSession{
		tx:     tx,
		scope:  scope,
		logger: s.logger,
	}, nil
}

// Ping checks the database connection
func (s *mysqlResourceStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// mysqlResourceSession implements ResourceSession over a single transaction
type mysqlResourceSession struct {
	tx     *sql.Tx
	scope  models.Scope
	logger *zap.Logger
	done   bool
}

const resourceColumns = `path, name, resource_type, properties`

// GetResource retrieves a resource by its path
func (s *mysqlResourceSession) GetResource(ctx context.Context, path string) (*models.Resource, error) {
	if s.done {
		return nil, models.ErrSessionClosed
	}

	query := `SELECT ` + resourceColumns + ` FROM resources WHERE path = ?`

	resource, err := scanResource(s.tx.QueryRowContext(ctx, query, path))
	if err == sql.ErrNoRows {
		return nil, models.ErrResourceNotFound
	}
	if err != nil {
		s.logger.Error("failed to get resource", zap.Error(err), zap.String("path", path))
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}

	return resource, nil
}

// GetChildren retrieves the direct children of a resource
func (s *mysqlResourceSession) GetChildren(ctx context.Context, path string) ([]models.Resource, error) {
	if s.done {
		return nil, models.ErrSessionClosed
	}

	query := `SELECT ` + resourceColumns + ` FROM resources WHERE parent_path = ? ORDER BY name`

	rows, err := s.tx.QueryContext(ctx, query, path)
	if err != nil {
		s.logger.Error("failed to query children", zap.Error(err), zap.String("path", path))
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	children := []models.Resource{}
	for rows.Next() {
		child, err := scanResource(rows)
		if err != nil {
			s.logger.Error("failed to scan resource", zap.Error(err))
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		children = append(children, *child)
	}

	if err := rows.Err(); err != nil {
		s.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return children, nil
}

// FindChildByProperty retrieves the first child of parentPath with a matching property.
// Properties listed in indexedColumns are compared against their generated column.
func (s *mysqlResourceSession) FindChildByProperty(ctx context.Context, parentPath, property, value string) (*models.Resource, error) {
	if s.done {
		return nil, models.ErrSessionClosed
	}

	var row *sql.Row
	if column, ok := indexedColumns[property]; ok {
		query := `SELECT ` + resourceColumns + ` FROM resources WHERE parent_path = ? AND ` + column + ` = ? ORDER BY name LIMIT 1`
		row = s.tx.QueryRowContext(ctx, query, parentPath, value)
	} else {
		query := `SELECT ` + resourceColumns + ` FROM resources WHERE parent_path = ? AND JSON_UNQUOTE(JSON_EXTRACT(properties, ?)) = ? ORDER BY name LIMIT 1`
		row = s.tx.QueryRowContext(ctx, query, parentPath, "$."+strconv.Quote(property), value)
	}

	resource, err := scanResource(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrResourceNotFound
	}
	if err != nil {
		s.logger.Error("failed to find child by property", zap.Error(err), zap.String("parent", parentPath), zap.String("property", property))
		return nil, fmt.Errorf("failed to find child by property: %w", err)
	}

	return resource, nil
}

// CreateResource inserts a new resource inside the session transaction
func (s *mysqlResourceSession) CreateResource(ctx context.Context, parentPath, name string, properties map[string]string) (*models.Resource, error) {
	if s.done {
		return nil, models.ErrSessionClosed
	}
	if s.scope != models.ScopeWrite {
		return nil, models.ErrReadOnlySession
	}
	if !models.IsValidName(name) {
		return nil, fmt.Errorf("invalid resource name %q", name)
	}

	if properties == nil {
		properties = map[string]string{}
	}
	encoded, err := json.Marshal(properties)
	if err != nil {
		return nil, fmt.Errorf("failed to encode properties: %w", err)
	}

	resource := &models.Resource{
		Path:         models.ChildPath(parentPath, name),
		Name:         name,
		ResourceType: models.DefaultResourceType,
		Properties:   properties,
	}

	query := `
		INSERT INTO resources (path, parent_path, name, resource_type, properties)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = s.tx.ExecContext(ctx, query, resource.Path, parentPath, resource.Name, resource.ResourceType, encoded)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return nil, fmt.Errorf("failed to create resource %s: %w", resource.Path, models.ErrResourceExists)
		}
		s.logger.Error("failed to create resource", zap.Error(err), zap.String("path", resource.Path))
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return resource, nil
}

// Commit commits the session transaction
func (s *mysqlResourceSession) Commit(ctx context.Context) error {
	if s.done {
		return models.ErrSessionClosed
	}
	s.done = true

	if err := s.tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close rolls back the transaction unless it was already committed
func (s *mysqlResourceSession) Close() error {
	if s.done {
		return nil
	}
	s.done = true

	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.logger.Error("failed to rollback transaction", zap.Error(err))
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (*models.Resource, error) {
	var resource models.Resource
	var properties []byte
	if err := row.Scan(&resource.Path, &resource.Name, &resource.ResourceType, &properties); err != nil {
		return nil, err
	}

	resource.Properties = map[string]string{}
	if len(properties) > 0 {
		if err := json.Unmarshal(properties, &resource.Properties); err != nil {
			return nil, fmt.Errorf("failed to decode properties of %s: %w", resource.Path, err)
		}
		// JSON null decodes to a nil map
		if resource.Properties == nil {
			resource.Properties = map[string]string{}
		}
	}

	return &resource, nil
}
