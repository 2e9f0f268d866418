package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/csvload/internal/config"
	"github.com/vvka-141/csvload/internal/db"
	"github.com/vvka-141/csvload/pkg/csvload"
)

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	connection    string
	host          string
	port          int
	username      string
	database      string
	sslMode       string
	azureTenantID string
	azureClientID string
}

// runFlags holds the flags that shape a run.
type runFlags struct {
	configFile      string
	folders         []string
	chunkSize       int
	encoding        string
	noCreateSchemas bool
	onCollision     string
	writeRetries    int
	timeout         time.Duration
}

func addConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	cmd.Flags().StringVar(&f.connection, "connection", "",
		"PostgreSQL connection string (URI or ADO.NET format).\n"+
			"Mutually exclusive with granular flags (--host, --port, --username).\n"+
			"Example: postgresql://loader@localhost:5432/warehouse")

	// Precedence: flag > environment variable > csvload.yaml > default
	cmd.Flags().StringVarP(&f.host, "host", "h", "",
		"PostgreSQL server host\n"+
			"Precedence: --host > $PGHOST > csvload.yaml > localhost")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0,
		"PostgreSQL server port\n"+
			"Precedence: --port > $PGPORT > csvload.yaml > 5432")
	cmd.Flags().StringVarP(&f.username, "username", "U", "",
		"PostgreSQL user (default: $PGUSER or csvload.yaml)")
	cmd.Flags().StringVarP(&f.database, "database", "d", "",
		"Target database (default: $PGDATABASE, csvload.yaml or postgres)\n"+
			"Overrides the database of --connection")
	cmd.Flags().StringVar(&f.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n"+
			"(default: prefer, or $PGSSLMODE)")

	cmd.Flags().StringVar(&f.azureTenantID, "azure-tenant-id", "",
		"Azure AD tenant ID; switches to Entra ID authentication (overrides $AZURE_TENANT_ID)")
	cmd.Flags().StringVar(&f.azureClientID, "azure-client-id", "",
		"Azure AD client ID; switches to Entra ID authentication (overrides $AZURE_CLIENT_ID)")
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVar(&f.configFile, "config", csvload.DefaultConfigFile,
		"Project file with connection, folders and advanced settings")
	cmd.Flags().StringArrayVar(&f.folders, "folder", nil,
		"Folder to schema mapping as folder=schema (repeatable, replaces the file's folders)\n"+
			"A bare folder name loads into the default schema")
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", csvload.DefaultChunkSize,
		"Rows read and written per chunk")
	cmd.Flags().StringVar(&f.encoding, "encoding", csvload.DefaultEncoding,
		"Source file encoding (utf-8, latin1, windows-1252, utf-16, ...)")
	cmd.Flags().BoolVar(&f.noCreateSchemas, "no-create-schemas", false,
		"Do not create the mapped schemas; they must already exist")
	cmd.Flags().StringVar(&f.onCollision, "on-collision", string(csvload.CollisionOverwrite),
		"When two files of a folder map to the same table: overwrite|skip")
	cmd.Flags().IntVar(&f.writeRetries, "write-retries", 0,
		"Retries of a chunk transaction that failed transiently (0 disables)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0,
		"Abort the run after this long (0 = no limit). Examples: 30m, 2h")
}

// loadProjectConfig loads .env and the project file. A missing file is only
// an error when the user named it explicitly.
func loadProjectConfig(path string, explicit bool) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	projectCfg, err := config.LoadFile(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) && !explicit {
			return &config.ProjectConfig{}, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w: %w", path, csvload.ErrInvalidConfig, err)
	}
	return projectCfg, nil
}

// parseFolderFlags turns --folder values into a mapping, in flag order.
func parseFolderFlags(values []string) ([]csvload.FolderMapping, error) {
	mappings := make([]csvload.FolderMapping, 0, len(values))
	for _, v := range values {
		folder, schema, _ := strings.Cut(v, "=")
		folder, schema = strings.TrimSpace(folder), strings.TrimSpace(schema)
		if folder == "" {
			return nil, fmt.Errorf("invalid --folder %q, expected folder=schema: %w", v, csvload.ErrInvalidConfig)
		}
		mappings = append(mappings, csvload.FolderMapping{Folder: folder, Schema: schema})
	}
	return mappings, nil
}

// buildRunConfig layers changed flags over the project file and validates
// the result.
func buildRunConfig(cmd *cobra.Command, basePath string, projectCfg *config.ProjectConfig, f runFlags, verbose bool) (csvload.RunConfig, error) {
	rc, err := projectCfg.RunConfig(basePath)
	if err != nil {
		return rc, err
	}

	changed := cmd.Flags().Changed
	if len(f.folders) > 0 {
		if rc.Folders, err = parseFolderFlags(f.folders); err != nil {
			return rc, err
		}
	}
	if changed("chunk-size") {
		rc.ChunkSize = f.chunkSize
	}
	if changed("encoding") {
		rc.Encoding = f.encoding
	}
	if changed("no-create-schemas") {
		rc.CreateSchemas = !f.noCreateSchemas
	}
	if changed("on-collision") {
		rc.OnCollision = csvload.CollisionPolicy(f.onCollision)
	}
	if changed("write-retries") {
		rc.WriteRetries = f.writeRetries
	}
	if changed("timeout") {
		rc.Timeout = f.timeout
	}
	rc.Verbose = verbose

	if err := rc.Validate(); err != nil {
		if len(rc.Folders) == 0 {
			return rc, fmt.Errorf("%w\n\nTip: map folders in %s or pass --folder crm=crm_raw", err, csvload.DefaultConfigFile)
		}
		return rc, err
	}
	return rc, nil
}

// resolveConnectionFromFlags resolves connection configuration from flags,
// environment and project config.
func resolveConnectionFromFlags(flags connectionFlags, projectCfg *config.ProjectConfig) (*csvload.ConnectionConfig, error) {
	granularFlags := &db.GranularConnFlags{
		Host:     flags.host,
		Port:     flags.port,
		Username: flags.username,
		Database: flags.database,
		SSLMode:  flags.sslMode,
	}

	azureFlags := &db.AzureFlags{
		TenantID: flags.azureTenantID,
		ClientID: flags.azureClientID,
	}

	return db.ResolveConnectionParams(flags.connection, granularFlags, azureFlags, db.LoadFromEnvironment(), projectCfg)
}

// logConnectionVerbose logs connection details when verbose mode is enabled.
func logConnectionVerbose(logger csvload.Logger, connConfig *csvload.ConnectionConfig) {
	logger.Verbose("Connection resolved:")
	logger.Verbose("  Host: %s", connConfig.Host)
	logger.Verbose("  Port: %d", connConfig.Port)
	logger.Verbose("  User: %s", connConfig.Username)
	logger.Verbose("  Database: %s", connConfig.Database)
	logger.Verbose("  SSL Mode: %s", connConfig.SSLMode)
	logger.Verbose("  Auth Method: %s", connConfig.AuthMethod)
	if connConfig.ConnectRetries > 0 {
		logger.Verbose("  Connect Retries: %d", connConfig.ConnectRetries)
	}
}

func basePathArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

