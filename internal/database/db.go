// Package database 管理保存执行记录的SQLite连接
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fyerfyer/contract-filler/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 全局数据库连接，由 Setup 设置
var DB *gorm.DB

// Config 数据库配置
type Config struct {
	Type         string // 目前只支持 "sqlite"
	DSN          string // 文件路径或 "file:" URI
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	BusyTimeout  time.Duration // 数据库被锁时写入方的等待时间
}

// DefaultConfig 返回默认的SQLite文件数据库配置
func DefaultConfig() *Config {
	return &Config{
		Type:         "sqlite",
		DSN:          "data/contracts.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		MaxLifetime:  time.Hour,
		BusyTimeout:  5 * time.Second,
	}
}

// Open 连接数据库并自动迁移表结构
func Open(cfg *Config, log *logrus.Logger) (*gorm.DB, error) {
	if cfg.Type != "sqlite" {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err := ensureDir(cfg.DSN); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(cfg)), &gorm.Config{
		Logger: logger.New(&logrusWriter{log}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}
	return db, nil
}

// Setup 初始化数据库并设置全局连接
func Setup(cfg *Config, log *logrus.Logger) error {
	db, err := Open(cfg, log)
	if err != nil {
		return err
	}
	DB = db

	log.WithField("dsn", cfg.DSN).Info("Database connection established")
	return nil
}

// Close 关闭全局数据库连接
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}

// Migrate 创建或更新所有模型对应的表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.ContractRun{})
}

// MustDB 获取全局数据库连接，未初始化时panic
func MustDB() *gorm.DB {
	if DB == nil {
		panic("database not initialized: call database.Setup first")
	}
	return DB
}

// sqliteDSN 为文件数据库开启WAL并设置忙等待超时，避免并发执行时出现 "database is locked"
// 已带参数的DSN原样使用
func sqliteDSN(cfg *Config) string {
	if strings.Contains(cfg.DSN, "?") || strings.Contains(cfg.DSN, ":memory:") {
		return cfg.DSN
	}
	params := "_journal_mode=WAL"
	if cfg.BusyTimeout > 0 {
		params += fmt.Sprintf("&_busy_timeout=%d", cfg.BusyTimeout.Milliseconds())
	}
	return cfg.DSN + "?" + params
}

// ensureDir 创建SQLite文件所在目录
func ensureDir(dsn string) error {
	if strings.HasPrefix(dsn, "file:") || dsn == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// logrusWriter 将GORM日志转发到logrus
type logrusWriter struct {
	logger *logrus.Logger
}

func (w *logrusWriter) Printf(format string, args ...interface{}) {
	w.logger.Warnf(format, args...)
}
