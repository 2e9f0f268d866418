package manager

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/csvload/pkg/csvload"
)

const querySchemaExists = "SELECT EXISTS(SELECT 1 FROM pg_namespace WHERE nspname = $1)"

// Manager creates schemas on one database session. Safe for concurrent use
// when the injected DBConnection is.
type Manager struct {
	conn   csvload.DBConnection
	logger csvload.Logger
}

var _ csvload.SchemaProvisioner = (*Manager)(nil)

// New creates a Manager. Panics if conn or logger is nil.
func New(conn csvload.DBConnection, logger csvload.Logger) *Manager {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Manager{conn: conn, logger: logger}
}

// SchemaExists checks the catalog for name.
func (m *Manager) SchemaExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := m.conn.QueryRow(ctx, querySchemaExists, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check schema %q: %w", name, err)
	}
	return exists, nil
}

// EnsureSchema runs CREATE SCHEMA IF NOT EXISTS for name.
func (m *Manager) EnsureSchema(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("schema name is empty: %w", csvload.ErrSchemaProvisioning)
	}

	query := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{name}.Sanitize())
	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema %q: %w: %w", name, csvload.ErrSchemaProvisioning, err)
	}

	m.logger.Verbose("Schema %s ensured", name)
	return nil
}
