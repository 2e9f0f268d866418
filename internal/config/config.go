// Package config reads the csvload.yaml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/csvload/pkg/csvload"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password,omitempty"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

type AdvancedConfig struct {
	ChunkSize      int    `yaml:"chunk_size"`
	Encoding       string `yaml:"encoding"`
	CreateSchemas  *bool  `yaml:"create_schemas"`
	ConnectRetries int    `yaml:"connect_retries"`
	WriteRetries   int    `yaml:"write_retries"`
	OnCollision    string `yaml:"on_collision"`
}

type LoggingConfig struct {
	File string `yaml:"file"`
}

type MetricsConfig struct {
	File string `yaml:"file"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Advanced   AdvancedConfig   `yaml:"advanced"`
	Folders    Folders          `yaml:"folders"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Timeout    string           `yaml:"timeout"`
}

const ConfigFileName = csvload.DefaultConfigFile

// Load reads csvload.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads the project file at path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// RunConfig converts the file into run settings, filling in defaults for
// everything the file leaves out. Flags are applied on top by the caller.
func (c *ProjectConfig) RunConfig(basePath string) (csvload.RunConfig, error) {
	rc := csvload.RunConfig{
		BasePath:      basePath,
		Folders:       append([]csvload.FolderMapping(nil), c.Folders...),
		ChunkSize:     c.Advanced.ChunkSize,
		Encoding:      c.Advanced.Encoding,
		CreateSchemas: true,
		OnCollision:   csvload.CollisionPolicy(c.Advanced.OnCollision),
		WriteRetries:  c.Advanced.WriteRetries,
	}

	if rc.ChunkSize == 0 {
		rc.ChunkSize = csvload.DefaultChunkSize
	}
	if rc.Encoding == "" {
		rc.Encoding = csvload.DefaultEncoding
	}
	if c.Advanced.CreateSchemas != nil {
		rc.CreateSchemas = *c.Advanced.CreateSchemas
	}
	if rc.OnCollision == "" {
		rc.OnCollision = csvload.CollisionOverwrite
	}

	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return rc, fmt.Errorf("invalid timeout %q in %s: %w", c.Timeout, ConfigFileName, csvload.ErrInvalidConfig)
		}
		rc.Timeout = d
	}

	return rc, nil
}
