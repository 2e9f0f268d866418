package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/csvload/pkg/csvload"
)

const queryConnectivityCheck = "SELECT 1"

// ConnectionManager owns the single database session of a run. It opens the
// pool, proves it with a trivial query and releases it exactly once.
type ConnectionManager struct {
	config  *csvload.ConnectionConfig
	factory csvload.ConnectorFactory
	logger  csvload.Logger

	mu        sync.Mutex
	connector csvload.Connector
	pool      *pgxpool.Pool
	conn      csvload.DBConnection
	closed    bool
}

// NewConnectionManager creates a manager that builds its connector with
// factory. Panics if any argument is nil.
func NewConnectionManager(config *csvload.ConnectionConfig, factory csvload.ConnectorFactory, logger csvload.Logger) *ConnectionManager {
	if config == nil {
		panic("config cannot be nil")
	}
	if factory == nil {
		panic("factory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ConnectionManager{config: config, factory: factory, logger: logger}
}

// Connect opens the session and runs SELECT 1 on it. Failures are logged
// and wrap csvload.ErrConnectionFailed. Calling Connect on an open manager
// is a no-op.
func (m *ConnectionManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("connection manager is closed: %w", csvload.ErrConnectionFailed)
	}
	if m.pool != nil {
		return nil
	}

	target := Describe(m.config)
	m.logger.Verbose("Connecting to %s as %q (%s)", target, m.config.Username, m.config.AuthMethod)

	connector, err := m.factory(m.config, m.logger)
	if err != nil {
		err = fmt.Errorf("failed to create connector: %w", err)
		if !errors.Is(err, csvload.ErrConnectionFailed) {
			err = fmt.Errorf("%w: %w", csvload.ErrConnectionFailed, err)
		}
		m.logger.Error("Database connection failed: %v", err)
		return err
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		closeConnector(connector)
		if !errors.Is(err, csvload.ErrConnectionFailed) {
			err = fmt.Errorf("%w: %w", csvload.ErrConnectionFailed, err)
		}
		m.logger.Error("Database connection failed: %v", err)
		return err
	}

	var one int
	if err := pool.QueryRow(ctx, queryConnectivityCheck).Scan(&one); err != nil {
		pool.Close()
		closeConnector(connector)
		err = fmt.Errorf("%w: connectivity check against %s failed: %w", csvload.ErrConnectionFailed, target, err)
		m.logger.Error("Database connection failed: %v", err)
		return err
	}

	m.connector = connector
	m.pool = pool
	m.conn = NewPoolAdapter(pool)
	m.logger.Info("Connected to %s", target)
	return nil
}

// Conn returns the open session, or nil before a successful Connect and
// after Close.
func (m *ConnectionManager) Conn() csvload.DBConnection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}

// Close releases the pool and the connector. It is safe to call more than
// once and when Connect never succeeded.
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	if m.pool != nil {
		m.pool.Close()
		m.logger.Verbose("Database connection closed")
	}
	closeConnector(m.connector)
	m.pool = nil
	m.conn = nil
	m.connector = nil
}

func closeConnector(connector csvload.Connector) {
	if closer, ok := connector.(io.Closer); ok {
		closer.Close() //nolint:errcheck
	}
}
