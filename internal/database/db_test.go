package database

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/fyerfyer/contract-filler/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestSetup_SQLite(t *testing.T) {
	original := DB
	defer func() { DB = original }()

	cfg := DefaultConfig()
	cfg.DSN = filepath.Join(t.TempDir(), "nested", "contracts.db")

	require.NoError(t, Setup(cfg, quietLogger()))
	defer Close()

	assert.Same(t, DB, MustDB())
	assert.True(t, DB.Migrator().HasTable(&models.ContractRun{}))
}

func TestSetup_UnsupportedType(t *testing.T) {
	err := Setup(&Config{Type: "oracle"}, quietLogger())
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestMustDB_PanicsWithoutSetup(t *testing.T) {
	original := DB
	DB = nil
	defer func() { DB = original }()

	assert.Panics(t, func() { MustDB() })
}

func TestOpen_InMemory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DSN = "file:open_test?mode=memory&cache=shared"

	db, err := Open(cfg, quietLogger())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.True(t, db.Migrator().HasTable(&models.ContractRun{}))
}

func TestSQLiteDSN(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "data/contracts.db?_journal_mode=WAL&_busy_timeout=5000", sqliteDSN(cfg))

	cfg.DSN = "file:x?mode=memory"
	assert.Equal(t, "file:x?mode=memory", sqliteDSN(cfg))

	cfg.DSN = "runs.db"
	cfg.BusyTimeout = 0
	assert.Equal(t, "runs.db?_journal_mode=WAL", sqliteDSN(cfg))
}
