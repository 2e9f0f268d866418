package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/csvload/internal/retry"
	"github.com/vvka-141/csvload/pkg/csvload"
)

// Connection pool configuration. Files are loaded one at a time, so the pool
// never needs more than a couple of connections.
const (
	DefaultMaxConns        = 2
	DefaultMinConns        = 1
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, logger csvload.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("NOTICE: %s", notice.Message)
	}
}

// newConnectExecutor retries transient connect failures
// config.ConnectRetries times. Zero runs a single attempt.
func newConnectExecutor(config *csvload.ConnectionConfig, logger csvload.Logger) *retry.Executor {
	strategy := retry.NewExponentialBackoff(config.ConnectRetries,
		retry.WithInitialDelay(csvload.DefaultRetryInitialDelay),
		retry.WithMaxDelay(csvload.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Warn("Connection attempt %d failed, retrying in %s: %v", attempt+1, delay.Round(time.Millisecond), err)
		})
}

// openPool creates the pool and pings it once.
func openPool(ctx context.Context, config *csvload.ConnectionConfig, poolConfig *pgxpool.Config, logger csvload.Logger) (*pgxpool.Pool, error) {
	configurePool(poolConfig, logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	return pool, nil
}

// StandardConnector connects with username and password.
type StandardConnector struct {
	config        *csvload.ConnectionConfig
	logger        csvload.Logger
	retryExecutor *retry.Executor
}

var _ csvload.Connector = (*StandardConnector)(nil)

// NewStandardConnector creates a StandardConnector. Transient failures are
// retried config.ConnectRetries times with exponential backoff.
func NewStandardConnector(config *csvload.ConnectionConfig, logger csvload.Logger) *StandardConnector {
	return &StandardConnector{
		config:        config,
		logger:        logger,
		retryExecutor: newConnectExecutor(config, logger),
	}
}

// Connect establishes a connection pool.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		poolConfig, err := pgxpool.ParseConfig(connStr)
		if err != nil {
			return fmt.Errorf("failed to parse connection config: %w", err)
		}

		pool, err = openPool(ctx, c.config, poolConfig, c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	return pool, nil
}

// NewConnector creates the Connector matching config.AuthMethod. It
// satisfies csvload.ConnectorFactory.
func NewConnector(config *csvload.ConnectionConfig, logger csvload.Logger) (csvload.Connector, error) {
	switch config.AuthMethod {
	case csvload.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case csvload.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case csvload.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case csvload.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, csvload.ErrUnsupportedAuthMethod)
	}
}

var _ csvload.ConnectorFactory = NewConnector

// wrapConnectionError turns raw pgx connection errors into actionable
// messages. The result always wraps csvload.ErrConnectionFailed.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	var hint string
	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		hint = fmt.Sprintf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port
  - Firewall blocking the connection`, addr, host, port)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		hint = fmt.Sprintf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable`, host)

	case strings.Contains(errStr, "password authentication failed"):
		hint = fmt.Sprintf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $PGPASSWORD or connection.password in %s)
  - Wrong username
  - User does not have access to the database`, database, csvload.DefaultConfigFile)

	case strings.Contains(errStr, "does not exist"):
		hint = fmt.Sprintf(`database "%s" does not exist

To create it:
  createdb %s`, database, database)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		hint = fmt.Sprintf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets
  - Wrong host or port`, addr)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		hint = `SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)`

	case strings.Contains(errStr, "too many connections"):
		hint = fmt.Sprintf(`too many connections to database "%s"

Possible causes:
  - max_connections limit reached in postgresql.conf
  - Stale connections from earlier runs`, database)

	default:
		return fmt.Errorf("%w to %s: %w", csvload.ErrConnectionFailed, addr, err)
	}

	return fmt.Errorf("%w: %s\n\nOriginal error: %w", csvload.ErrConnectionFailed, hint, err)
}

// newAWSConnector uses an RDS IAM token as the password.
func newAWSConnector(config *csvload.ConnectionConfig, logger csvload.Logger) (csvload.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", logger), nil
}

func newGoogleConnector(config *csvload.ConnectionConfig, logger csvload.Logger) (csvload.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires connection.google_instance (project:region:instance): %w", csvload.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires a username: %w", csvload.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, logger), nil
}

// newAzureConnector uses Service Principal credentials when all three are
// set and the DefaultAzureCredential chain otherwise.
func newAzureConnector(config *csvload.ConnectionConfig, logger csvload.Logger) (csvload.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure token provider: %w", err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure", logger), nil
}
