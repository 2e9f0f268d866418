package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/csvload/pkg/csvload"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))
	return dir
}

func TestLoad_AllFields(t *testing.T) {
	dir := writeConfig(t, `connection:
  host: db.internal
  port: 30100
  username: loader
  password: secret
  database: ai360
  sslmode: require
  auth_method: aws
  aws_region: eu-west-1

advanced:
  chunk_size: 5000
  encoding: latin1
  create_schemas: false
  connect_retries: 2
  on_collision: skip

folders:
  qr: offline_datasync
  card: card_data
  custom:

logging:
  file: csv_loader.log

metrics:
  file: /var/lib/node_exporter/csvload.prom

timeout: 30m
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "db.internal", cfg.Connection.Host)
	assert.Equal(t, 30100, cfg.Connection.Port)
	assert.Equal(t, "loader", cfg.Connection.Username)
	assert.Equal(t, "secret", cfg.Connection.Password)
	assert.Equal(t, "ai360", cfg.Connection.Database)
	assert.Equal(t, "require", cfg.Connection.SSLMode)
	assert.Equal(t, "aws", cfg.Connection.AuthMethod)
	assert.Equal(t, "eu-west-1", cfg.Connection.AWSRegion)

	assert.Equal(t, 5000, cfg.Advanced.ChunkSize)
	assert.Equal(t, "latin1", cfg.Advanced.Encoding)
	require.NotNil(t, cfg.Advanced.CreateSchemas)
	assert.False(t, *cfg.Advanced.CreateSchemas)
	assert.Equal(t, 2, cfg.Advanced.ConnectRetries)
	assert.Equal(t, "skip", cfg.Advanced.OnCollision)

	assert.Equal(t, Folders{
		{Folder: "qr", Schema: "offline_datasync"},
		{Folder: "card", Schema: "card_data"},
		{Folder: "custom", Schema: ""},
	}, cfg.Folders)

	assert.Equal(t, "csv_loader.log", cfg.Logging.File)
	assert.Equal(t, "/var/lib/node_exporter/csvload.prom", cfg.Metrics.File)
	assert.Equal(t, "30m", cfg.Timeout)
}

func TestLoad_FolderOrderPreserved(t *testing.T) {
	dir := writeConfig(t, `folders:
  zeta: z
  alpha: a
  mid: m
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range cfg.Folders {
		names = append(names, f.Folder)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
}

func TestLoad_DuplicateFolder(t *testing.T) {
	dir := writeConfig(t, `folders:
  crm: a
  crm: b
`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

func TestLoad_FoldersNotAMapping(t *testing.T) {
	dir := writeConfig(t, `folders:
  - crm
  - erp
`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a mapping")
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, ErrConfigNotFound), "expected ErrConfigNotFound, got: %v", err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := writeConfig(t, "{{invalid")

	cfg, err := Load(dir)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestRunConfig_Defaults(t *testing.T) {
	cfg := &ProjectConfig{Folders: Folders{{Folder: "qr", Schema: "offline_datasync"}}}

	rc, err := cfg.RunConfig("/data")
	require.NoError(t, err)

	assert.Equal(t, "/data", rc.BasePath)
	assert.Equal(t, csvload.DefaultChunkSize, rc.ChunkSize)
	assert.Equal(t, csvload.DefaultEncoding, rc.Encoding)
	assert.True(t, rc.CreateSchemas)
	assert.Equal(t, csvload.CollisionOverwrite, rc.OnCollision)
	assert.Zero(t, rc.Timeout)
	assert.NoError(t, rc.Validate())
}

func TestRunConfig_FromFile(t *testing.T) {
	off := false
	cfg := &ProjectConfig{
		Advanced: AdvancedConfig{ChunkSize: 200, Encoding: "utf-16le", CreateSchemas: &off, OnCollision: "skip"},
		Folders:  Folders{{Folder: "A", Schema: "reports"}},
		Timeout:  "90s",
	}

	rc, err := cfg.RunConfig(".")
	require.NoError(t, err)

	assert.Equal(t, 200, rc.ChunkSize)
	assert.Equal(t, "utf-16le", rc.Encoding)
	assert.False(t, rc.CreateSchemas)
	assert.Equal(t, csvload.CollisionSkip, rc.OnCollision)
	assert.Equal(t, 90*time.Second, rc.Timeout)
}

func TestRunConfig_BadTimeout(t *testing.T) {
	cfg := &ProjectConfig{Timeout: "soon"}
	_, err := cfg.RunConfig(".")
	assert.ErrorIs(t, err, csvload.ErrInvalidConfig)
}

func TestFolders_MarshalKeepsOrder(t *testing.T) {
	type doc struct {
		Folders Folders `yaml:"folders"`
	}
	in := Folders{{Folder: "b", Schema: "raw_b"}, {Folder: "a", Schema: "raw_a"}}

	data, err := yaml.Marshal(doc{in})
	require.NoError(t, err)
	assert.Less(t, strings.Index(string(data), "b: raw_b"), strings.Index(string(data), "a: raw_a"))

	var out doc
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, in, out.Folders)
}
