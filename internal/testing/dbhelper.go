// Package testing holds helpers shared by the PostgreSQL integration tests.
package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/csvload/internal/db"
	"github.com/vvka-141/csvload/internal/logging"
	"github.com/vvka-141/csvload/internal/testinfra"
	"github.com/vvka-141/csvload/pkg/csvload"
)

// TestConnEnvVar points integration tests at an existing server instead of
// a container.
const TestConnEnvVar = "CSVLOAD_TEST_CONN"

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := testinfra.StartSimplePostgres(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns CSVLOAD_TEST_CONN, or the connection
// string of a container started once per test binary. Skips the test when
// neither is available.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv(TestConnEnvVar); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", TestConnEnvVar, err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// ConnectionConfig parses the test connection string.
func ConnectionConfig(t *testing.T, connString string) *csvload.ConnectionConfig {
	t.Helper()

	cfg, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("invalid test connection string: %v", err)
	}
	return cfg
}

// Connect opens a ConnectionManager against the test server and closes it
// when the test ends.
func Connect(t *testing.T) *db.ConnectionManager {
	t.Helper()

	cfg := ConnectionConfig(t, RequireDatabase(t))
	mgr := db.NewConnectionManager(cfg, db.NewConnector, logging.NewNullLogger())
	if err := mgr.Connect(context.Background()); err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(mgr.Close)
	return mgr
}

// OpenPool opens a raw pool for assertions that bypass csvload's own code.
func OpenPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), RequireDatabase(t))
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// TempSchema creates a uniquely named schema and drops it with everything in
// it when the test ends.
func TempSchema(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	name := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	ident := pgx.Identifier{name}.Sanitize()

	ctx := context.Background()
	if _, err := pool.Exec(ctx, "CREATE SCHEMA "+ident); err != nil {
		t.Fatalf("failed to create schema %s: %v", name, err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", ident)) //nolint:errcheck
	})
	return name
}

// CountRows returns the row count of schema.table.
func CountRows(t *testing.T, pool *pgxpool.Pool, schema, table string) int64 {
	t.Helper()

	var n int64
	sql := "SELECT count(*) FROM " + pgx.Identifier{schema, table}.Sanitize()
	if err := pool.QueryRow(context.Background(), sql).Scan(&n); err != nil {
		t.Fatalf("failed to count rows of %s.%s: %v", schema, table, err)
	}
	return n
}

// TableExists reports whether schema.table exists.
func TableExists(t *testing.T, pool *pgxpool.Pool, schema, table string) bool {
	t.Helper()

	var exists bool
	err := pool.QueryRow(context.Background(),
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2)",
		schema, table).Scan(&exists)
	if err != nil {
		t.Fatalf("failed to check table %s.%s: %v", schema, table, err)
	}
	return exists
}

// ColumnTypes returns column name to data_type for schema.table in ordinal
// order.
func ColumnTypes(t *testing.T, pool *pgxpool.Pool, schema, table string) [][2]string {
	t.Helper()

	rows, err := pool.Query(context.Background(),
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`,
		schema, table)
	if err != nil {
		t.Fatalf("failed to read columns of %s.%s: %v", schema, table, err)
	}
	defer rows.Close()

	var cols [][2]string
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			t.Fatalf("failed to scan column: %v", err)
		}
		cols = append(cols, [2]string{name, typ})
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("failed to read columns: %v", err)
	}
	return cols
}
