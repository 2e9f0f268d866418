package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/csvload/internal/config"
	"github.com/vvka-141/csvload/pkg/csvload"
)

// GranularConnFlags holds the libpq-style connection flags (-h, -p, -U, -d).
//
// There is no password flag. Use $PGPASSWORD, a connection string or
// connection.password in csvload.yaml.
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty reports whether no server-selecting flag was given. Database is
// excluded: it may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// AzureFlags override the AZURE_* environment variables. The client secret
// is only read from AZURE_CLIENT_SECRET.
type AzureFlags struct {
	TenantID string
	ClientID string
}

// IsEmpty reports whether no Azure flag was given.
func (a *AzureFlags) IsEmpty() bool {
	return a == nil || (a.TenantID == "" && a.ClientID == "")
}

// EnvVars are the PostgreSQL and cloud environment variables csvload reads.
// See https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST       string
	PGPORT       string
	PGUSER       string
	PGPASSWORD   string
	PGDATABASE   string
	PGSSLMODE    string
	DATABASE_URL string

	AWS_REGION string

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:              os.Getenv("PGHOST"),
		PGPORT:              os.Getenv("PGPORT"),
		PGUSER:              os.Getenv("PGUSER"),
		PGPASSWORD:          os.Getenv("PGPASSWORD"),
		PGDATABASE:          os.Getenv("PGDATABASE"),
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		AWS_REGION:          os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// HasAzureCredentials reports whether Azure identity variables are set.
func (e *EnvVars) HasAzureCredentials() bool {
	return e.AZURE_TENANT_ID != "" || e.AZURE_CLIENT_ID != ""
}

// ResolveConnectionParams builds the ConnectionConfig for a run.
//
// Precedence:
//  1. --connection (conflicts with granular flags)
//  2. granular flags (-h, -p, -U, -d)
//  3. PG* environment variables
//  4. DATABASE_URL, when no granular flag is given
//  5. the connection section of csvload.yaml
//  6. defaults (localhost:5432/postgres, sslmode=prefer)
//
// auth_method, aws_region, google_instance and connect_retries come from
// csvload.yaml. Azure flags or AZURE_* variables switch the method to Azure
// Entra ID.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	azureFlags *AzureFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*csvload.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if azureFlags == nil {
		azureFlags = &AzureFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	if projectConfig == nil {
		projectConfig = &config.ProjectConfig{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/warehouse\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U loader -d warehouse\n"+
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=loader: %w",
			csvload.ErrInvalidConfig,
		)
	}

	var cfg *csvload.ConnectionConfig
	var err error

	switch {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, granularFlags, envVars)
	case granularFlags.IsEmpty() && envVars.DATABASE_URL != "":
		cfg, err = resolveFromConnectionString(envVars.DATABASE_URL, granularFlags, envVars)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, &projectConfig.Connection)
	}
	if err != nil {
		return nil, err
	}

	if err := applyProjectAuth(cfg, &projectConfig.Connection, envVars); err != nil {
		return nil, err
	}
	applyAzureAuth(cfg, azureFlags, envVars)

	cfg.ConnectRetries = projectConfig.Advanced.ConnectRetries
	if cfg.ConnectRetries < 0 {
		return nil, fmt.Errorf("advanced.connect_retries must not be negative: %w", csvload.ErrInvalidConfig)
	}
	if cfg.AppName == "" {
		cfg.AppName = csvload.DefaultAppName
	}

	return cfg, nil
}

// applyProjectAuth copies the cloud authentication settings of csvload.yaml.
func applyProjectAuth(cfg *csvload.ConnectionConfig, pc *config.ConnectionConfig, env *EnvVars) error {
	method, err := csvload.ParseAuthMethod(pc.AuthMethod)
	if err != nil {
		return fmt.Errorf("connection.auth_method: %w: %w", csvload.ErrInvalidConfig, err)
	}
	if method != csvload.AuthMethodStandard {
		cfg.AuthMethod = method
	}

	cfg.AWSRegion = pc.AWSRegion
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = env.AWS_REGION
	}
	cfg.GoogleInstance = pc.GoogleInstance
	cfg.AzureTenantID = pc.AzureTenantID
	cfg.AzureClientID = pc.AzureClientID
	if cfg.AuthMethod == csvload.AuthMethodAzureEntraID {
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}
	return nil
}

// applyAzureAuth switches to Azure Entra ID when flags or AZURE_* variables
// name an identity. Flags win over variables.
func applyAzureAuth(cfg *csvload.ConnectionConfig, flags *AzureFlags, env *EnvVars) {
	tenantID := flags.TenantID
	if tenantID == "" {
		tenantID = env.AZURE_TENANT_ID
	}
	clientID := flags.ClientID
	if clientID == "" {
		clientID = env.AZURE_CLIENT_ID
	}

	if tenantID == "" && clientID == "" {
		return
	}

	cfg.AuthMethod = csvload.AuthMethodAzureEntraID
	cfg.AzureTenantID = tenantID
	cfg.AzureClientID = clientID
	cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
}

// resolveFromConnectionString parses connStr. -d and PGSSLMODE fill in what
// the string leaves out, as libpq does.
func resolveFromConnectionString(connStr string, flags *GranularConnFlags, envVars *EnvVars) (*csvload.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w: %w", csvload.ErrInvalidConfig, err)
	}

	if flags.Database != "" {
		cfg.Database = flags.Database
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}
	if cfg.Password == "" {
		cfg.Password = envVars.PGPASSWORD
	}

	return cfg, nil
}

// resolveFromGranularParams resolves every field as flag > environment >
// csvload.yaml > default.
func resolveFromGranularParams(flags *GranularConnFlags, envVars *EnvVars, pc *config.ConnectionConfig) (*csvload.ConnectionConfig, error) {
	cfg := &csvload.ConnectionConfig{
		AuthMethod:       csvload.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, "localhost")

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", envVars.PGPORT, csvload.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = 5432
	}

	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))
	cfg.Password = firstNonEmpty(envVars.PGPASSWORD, pc.Password)
	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database, "postgres")
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, "prefer")

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
