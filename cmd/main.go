package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fyerfyer/contract-filler/api"
	"github.com/fyerfyer/contract-filler/api/handler"
	"github.com/fyerfyer/contract-filler/api/middleware"
	appconfig "github.com/fyerfyer/contract-filler/config"
	"github.com/fyerfyer/contract-filler/internal/cache"
	"github.com/fyerfyer/contract-filler/internal/database"
	"github.com/fyerfyer/contract-filler/internal/repository"
	"github.com/fyerfyer/contract-filler/internal/services"
	"github.com/fyerfyer/contract-filler/internal/template"
	"github.com/fyerfyer/contract-filler/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	flags := appconfig.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// .env 文件可选
	_ = godotenv.Load()

	configPath, _ := flags.GetString("config")
	cfg, err := appconfig.Load(configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	gin.SetMode(cfg.Server.Mode)

	logger := setupLogger(cfg.Log)
	logger.WithField("config", configPath).Info("Starting contract filler...")

	if err := setupDatabase(cfg, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	fileStorage, err := setupStorage(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	cacheService, err := setupCache(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}
	if closer, ok := cacheService.(io.Closer); ok {
		defer closer.Close()
	}

	defaultGender, err := template.ParseGender(cfg.Pipeline.DefaultGender)
	if err != nil {
		logger.Fatalf("Invalid default gender: %v", err)
	}

	if cfg.Pipeline.WorkDir != "" {
		if err := os.MkdirAll(cfg.Pipeline.WorkDir, 0755); err != nil {
			logger.Fatalf("Failed to create work directory: %v", err)
		}
	}

	contractService := services.NewContractService(fileStorage,
		services.WithLogger(logger),
		services.WithCache(cacheService),
		services.WithRunRepository(repository.NewRunRepository()),
		services.WithWorkDir(cfg.Pipeline.WorkDir),
		services.WithOutputName(cfg.Pipeline.OutputFilename),
		services.WithDownloadTTL(cfg.Pipeline.DownloadTTL),
	)

	r := api.SetupRouter(
		handler.NewContractHandler(contractService, defaultGender),
		handler.NewExtractHandler(contractService),
		cfg.Server.MaxUploadSize,
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"storage": cfg.Storage.Type,
			"cache":   cfg.Cache.Type,
		}).Info("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger 配置与API中间件共用的日志
// 设置了日志文件时同时输出到标准输出和按大小切割的文件
func setupLogger(cfg appconfig.LogConfig) *logrus.Logger {
	logger := middleware.GetLogger()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			logger.WithError(err).Warn("Failed to create log directory, logging to stdout only")
			return logger
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}))
	}
	return logger
}

func setupDatabase(cfg *appconfig.Config, logger *logrus.Logger) error {
	dbConfig := database.DefaultConfig()
	dbConfig.Type = cfg.Database.Type
	dbConfig.DSN = cfg.Database.DSN
	return database.Setup(dbConfig, logger)
}

func setupStorage(cfg *appconfig.Config) (storage.Storage, error) {
	return storage.New(storage.Config{
		Type:  cfg.Storage.Type,
		Local: storage.LocalConfig{Path: cfg.Storage.Path},
		Minio: storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Prefix:    cfg.Storage.Prefix,
		},
	})
}

// setupCache 创建下载凭证缓存，过期时间与下载有效期一致
func setupCache(cfg *appconfig.Config) (cache.Cache, error) {
	cacheConfig := cache.DefaultConfig()
	cacheConfig.Type = cfg.Cache.Type
	cacheConfig.DefaultTTL = cfg.Pipeline.DownloadTTL
	cacheConfig.KeyPrefix = cfg.Cache.KeyPrefix
	if cfg.Cache.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Cache.Address
		cacheConfig.RedisPassword = cfg.Cache.Password
		cacheConfig.RedisDB = cfg.Cache.DB
	}
	return cache.NewCache(cacheConfig)
}
