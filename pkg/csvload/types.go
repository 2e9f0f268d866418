package csvload

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// ConnectRetries is the number of retries for transient connect failures.
	ConnectRetries int

	// AWS RDS IAM authentication parameters (used when AuthMethod is AuthMethodAWSIAM)
	AWSRegion string

	// Google Cloud SQL instance connection name: project:region:instance
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps the configuration spelling of an auth method
// ("standard", "aws", "google", "azure") to its AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return AuthMethodStandard, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "gcp", "google-iam":
		return AuthMethodGoogleIAM, nil
	case "azure", "entra", "azure-entra":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("auth method %q: %w", s, ErrUnsupportedAuthMethod)
	}
}

// CollisionPolicy decides what happens when two files of one folder derive
// the same table name.
type CollisionPolicy string

const (
	// CollisionOverwrite loads every file; the later file replaces the table.
	CollisionOverwrite CollisionPolicy = "overwrite"

	// CollisionSkip loads only the first file and fails the later ones.
	CollisionSkip CollisionPolicy = "skip"
)

// IsValid reports whether p is a known policy.
func (p CollisionPolicy) IsValid() bool {
	return p == CollisionOverwrite || p == CollisionSkip
}

// FolderMapping binds a folder under the base path to a target schema.
// An empty Schema loads into the connection's default schema.
type FolderMapping struct {
	Folder string
	Schema string
}

// TableRef identifies a target table, optionally qualified by schema.
type TableRef struct {
	Schema string
	Name   string
}

// String returns the dotted form used in logs and reports.
func (t TableRef) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Parts returns the identifier parts suitable for pgx.Identifier.
func (t TableRef) Parts() []string {
	if t.Schema == "" {
		return []string{t.Name}
	}
	return []string{t.Schema, t.Name}
}

// RunConfig contains all parameters needed for a load run.
// It is built once at startup and passed to the services by value.
type RunConfig struct {
	// BasePath is the directory under which the mapped folders are resolved.
	BasePath string

	// Folders is the ordered folder to schema mapping.
	Folders []FolderMapping

	// ChunkSize is the maximum number of rows persisted per chunk.
	ChunkSize int

	// Encoding is the WHATWG label of the source file encoding.
	Encoding string

	// CreateSchemas provisions each mapped schema before its folder is walked.
	CreateSchemas bool

	// OnCollision selects the behaviour for duplicate derived table names.
	OnCollision CollisionPolicy

	// WriteRetries replays a chunk transaction that failed with a transient
	// error (serialization failure, dropped connection). Zero disables it.
	WriteRetries int

	// Timeout is the global timeout for the entire run (0 = none).
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the RunConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if c.BasePath == "" {
		errs = append(errs, fmt.Errorf("BasePath is required: %w", ErrInvalidConfig))
	}

	if len(c.Folders) == 0 {
		errs = append(errs, fmt.Errorf("at least one folder mapping is required: %w", ErrInvalidConfig))
	}

	seen := make(map[string]bool, len(c.Folders))
	for _, f := range c.Folders {
		if f.Folder == "" {
			errs = append(errs, fmt.Errorf("folder name cannot be empty: %w", ErrInvalidConfig))
			continue
		}
		if seen[f.Folder] {
			errs = append(errs, fmt.Errorf("folder %q is mapped more than once: %w", f.Folder, ErrInvalidConfig))
		}
		seen[f.Folder] = true
	}

	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk size must be positive, got %d: %w", c.ChunkSize, ErrInvalidConfig))
	}

	if c.Encoding == "" {
		errs = append(errs, fmt.Errorf("Encoding is required: %w", ErrInvalidConfig))
	}

	if !c.OnCollision.IsValid() {
		errs = append(errs, fmt.Errorf("unknown collision policy %q (use overwrite or skip): %w", c.OnCollision, ErrInvalidConfig))
	}

	if c.WriteRetries < 0 {
		errs = append(errs, fmt.Errorf("write retries cannot be negative: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
