package csvload

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connector is a unified interface for establishing database connections.
// Different implementations handle the supported authentication methods
// (standard credentials, AWS IAM, Azure Entra ID, Google Cloud SQL IAM).
type Connector interface {
	// Connect establishes a connection pool to the database.
	// The returned pool should be closed by the caller when done.
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// ConnectorFactory builds the Connector matching a ConnectionConfig. The
// logger receives retry and server notice messages.
type ConnectorFactory func(config *ConnectionConfig, logger Logger) (Connector, error)
