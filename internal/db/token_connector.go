package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/csvload/internal/retry"
	"github.com/vvka-141/csvload/pkg/csvload"
)

// tokenExpiryWarning is how close to expiry a fresh token triggers a warning.
// Large runs keep the pool open long after the token was issued; pgxpool
// only needs it for new connections.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector connects to cloud-hosted PostgreSQL using a short-lived
// token from a TokenProvider as the password.
type TokenBasedConnector struct {
	config        *csvload.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	logger        csvload.Logger
	retryExecutor *retry.Executor
}

var _ csvload.Connector = (*TokenBasedConnector)(nil)

// NewTokenBasedConnector creates a connector around tokenProvider.
// providerName appears in log and error messages.
func NewTokenBasedConnector(config *csvload.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger csvload.Logger) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		logger:        logger,
		retryExecutor: newConnectExecutor(config, logger),
	}
}

// Connect acquires a token and establishes a connection pool with it.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire %s token: %w: %w", c.providerName, csvload.ErrConnectionFailed, err)
		}
		c.logger.Verbose("Acquired token from %s", c.tokenProvider)

		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Warn("%s token expires in %v", c.providerName, remaining.Round(time.Second))
		}

		withToken := *c.config
		withToken.Password = token

		poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(&withToken))
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
