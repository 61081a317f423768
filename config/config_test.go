package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, filepath.Join("data", "contracts"), filepath.Clean(cfg.Storage.Path))
	assert.Equal(t, filepath.Join("data", "contracts.db"), filepath.Clean(cfg.Database.DSN))
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, "contrato_preenchido.docx", cfg.Pipeline.OutputFilename)
	assert.Equal(t, 24*time.Hour, cfg.Pipeline.DownloadTTL)
	assert.Equal(t, "masculino", cfg.Pipeline.DefaultGender)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
data_dir: /srv/contratos
server:
  port: 9090
  read_timeout: 5s
storage:
  type: minio
  endpoint: localhost:9000
  bucket: saida
  secret_key: ${TEST_MINIO_SECRET}
cache:
  type: redis
  address: redis:6379
pipeline:
  download_ttl: 30m
  default_gender: feminino
`)
	t.Setenv("TEST_MINIO_SECRET", "segredo")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "minio", cfg.Storage.Type)
	assert.Equal(t, "segredo", cfg.Storage.SecretKey)
	assert.Equal(t, "redis:6379", cfg.Cache.Address)
	assert.Equal(t, 30*time.Minute, cfg.Pipeline.DownloadTTL)
	assert.Equal(t, "feminino", cfg.Pipeline.DefaultGender)
	assert.Equal(t, filepath.Join("/srv/contratos", "contracts.db"), cfg.Database.DSN)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("CONTRACTS_SERVER_PORT", "7070")
	t.Setenv("CONTRACTS_CACHE_KEY_PREFIX", "teste")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "teste", cfg.Cache.KeyPrefix)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\ncache:\n  type: redis\n")

	flags := Flags()
	require.NoError(t, flags.Parse([]string{"--port", "8181", "--log-level", "debug"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "redis", cfg.Cache.Type, "unset flags must not override the file")
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  type: ftp\n"), nil)
	assert.ErrorContains(t, err, "unsupported storage type")

	_, err = Load(writeConfig(t, "storage:\n  type: minio\n"), nil)
	assert.ErrorContains(t, err, "minio storage requires")

	_, err = Load(writeConfig(t, "cache:\n  type: memcached\n"), nil)
	assert.ErrorContains(t, err, "unsupported cache type")

	_, err = Load(writeConfig(t, "server: [broken"), nil)
	assert.Error(t, err)
}
