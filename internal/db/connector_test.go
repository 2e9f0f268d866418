package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/csvload/internal/logging"
	"github.com/vvka-141/csvload/pkg/csvload"
)

func TestWrapConnectionError(t *testing.T) {
	tests := []struct {
		name         string
		errMsg       string
		host         string
		wantContains string
	}{
		{"refused", "dial tcp 127.0.0.1:5432: connection refused", "127.0.0.1", "connection refused to 127.0.0.1:5432"},
		{"actively refused", "connectex: No connection could be made because the target machine actively refused it", "127.0.0.1", "connection refused to 127.0.0.1:5432"},
		{"no such host", "dial tcp: lookup badhost.example.com: no such host", "badhost.example.com", `cannot resolve host "badhost.example.com"`},
		{"password", `password authentication failed for user "loader"`, "localhost", `password authentication failed for database "warehouse"`},
		{"missing database", `database "warehouse" does not exist`, "localhost", "createdb warehouse"},
		{"timeout", "dial tcp 10.0.0.1:5432: i/o timeout", "10.0.0.1", "connection timed out to 10.0.0.1:5432"},
		{"tls", "tls: failed to verify certificate", "localhost", "SSL/TLS connection error"},
		{"too many", "FATAL: sorry, too many connections for role", "localhost", `too many connections to database "warehouse"`},
		{"other", "unexpected message type", "localhost", "connection failed to localhost:5432"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := errors.New(tt.errMsg)
			wrapped := wrapConnectionError(original, tt.host, 5432, "warehouse")

			assert.Contains(t, wrapped.Error(), tt.wantContains)
			assert.ErrorIs(t, wrapped, original)
			assert.ErrorIs(t, wrapped, csvload.ErrConnectionFailed)
			assert.Equal(t, csvload.ExitConnectionError, csvload.ExitCodeForError(wrapped))
		})
	}
}

func TestNewConnector(t *testing.T) {
	logger := logging.NewNullLogger()

	t.Run("standard", func(t *testing.T) {
		c, err := NewConnector(&csvload.ConnectionConfig{AuthMethod: csvload.AuthMethodStandard}, logger)
		require.NoError(t, err)
		assert.IsType(t, &StandardConnector{}, c)
	})

	t.Run("aws requires region", func(t *testing.T) {
		_, err := NewConnector(&csvload.ConnectionConfig{
			AuthMethod: csvload.AuthMethodAWSIAM, Host: "db.rds.amazonaws.com", Port: 5432, Username: "loader",
		}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "aws_region")
	})

	t.Run("aws", func(t *testing.T) {
		c, err := NewConnector(&csvload.ConnectionConfig{
			AuthMethod: csvload.AuthMethodAWSIAM, Host: "db.rds.amazonaws.com", Port: 5432,
			Username: "loader", AWSRegion: "eu-west-1",
		}, logger)
		require.NoError(t, err)
		assert.IsType(t, &TokenBasedConnector{}, c)
	})

	t.Run("google requires instance", func(t *testing.T) {
		_, err := NewConnector(&csvload.ConnectionConfig{AuthMethod: csvload.AuthMethodGoogleIAM, Username: "loader"}, logger)
		assert.ErrorIs(t, err, csvload.ErrInvalidConfig)
	})

	t.Run("google", func(t *testing.T) {
		c, err := NewConnector(&csvload.ConnectionConfig{
			AuthMethod: csvload.AuthMethodGoogleIAM, Username: "loader@project.iam", GoogleInstance: "project:region:instance",
		}, logger)
		require.NoError(t, err)
		assert.IsType(t, &GoogleCloudSQLConnector{}, c)
	})

	t.Run("azure service principal", func(t *testing.T) {
		c, err := NewConnector(&csvload.ConnectionConfig{
			AuthMethod:    csvload.AuthMethodAzureEntraID,
			AzureTenantID: "00000000-0000-0000-0000-000000000001", AzureClientID: "client", AzureClientSecret: "secret",
		}, logger)
		require.NoError(t, err)
		assert.IsType(t, &TokenBasedConnector{}, c)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := NewConnector(&csvload.ConnectionConfig{AuthMethod: csvload.AuthMethod(42)}, logger)
		assert.ErrorIs(t, err, csvload.ErrUnsupportedAuthMethod)
	})
}

func TestStandardConnector_RespectsContextTimeout(t *testing.T) {
	config := &csvload.ConnectionConfig{
		Host:           "10.255.255.1",
		Port:           5432,
		Database:       "warehouse",
		Username:       "loader",
		ConnectRetries: 5,
	}
	connector := NewStandardConnector(config, logging.NewNullLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := connector.Connect(ctx)

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestStandardConnector_RetriesRefusedConnections(t *testing.T) {
	var retries int
	logger := &countingLogger{onWarn: func() { retries++ }}
	config := &csvload.ConnectionConfig{
		Host:           "127.0.0.1",
		Port:           1,
		Database:       "warehouse",
		Username:       "loader",
		SSLMode:        "disable",
		ConnectRetries: 2,
	}

	_, err := NewStandardConnector(config, logger).Connect(context.Background())

	require.ErrorIs(t, err, csvload.ErrConnectionFailed)
	assert.Equal(t, 2, retries)
}

func TestStandardConnector_NoRetriesByDefault(t *testing.T) {
	var retries int
	logger := &countingLogger{onWarn: func() { retries++ }}
	config := &csvload.ConnectionConfig{Host: "127.0.0.1", Port: 1, Database: "warehouse", SSLMode: "disable"}

	_, err := NewStandardConnector(config, logger).Connect(context.Background())

	require.ErrorIs(t, err, csvload.ErrConnectionFailed)
	assert.Zero(t, retries)
}

type countingLogger struct {
	logging.NullLogger
	onWarn func()
}

func (l *countingLogger) Warn(string, ...interface{}) {
	if l.onWarn != nil {
		l.onWarn()
	}
}
