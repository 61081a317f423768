package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	DataDir  string         `mapstructure:"data_dir"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Database DatabaseConfig `mapstructure:"database"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Mode          string        `mapstructure:"mode"` // debug、release 或 test
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"` // multipart表单保存在内存中的最大字节数
}

// Addr 返回监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig 日志配置，File 为空时只输出到标准输出
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json 或 text
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // 单位MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // 单位天
	Compress   bool   `mapstructure:"compress"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type      string `mapstructure:"type"` // local 或 minio
	Path      string `mapstructure:"path"`
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// CacheConfig 下载凭证缓存配置
type CacheConfig struct {
	Type      string `mapstructure:"type"` // memory 或 redis
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type string `mapstructure:"type"`
	DSN  string `mapstructure:"dsn"`
}

// PipelineConfig 合同填充配置
type PipelineConfig struct {
	WorkDir        string        `mapstructure:"work_dir"` // 为空时使用系统临时目录
	OutputFilename string        `mapstructure:"output_filename"`
	DownloadTTL    time.Duration `mapstructure:"download_ttl"`
	DefaultGender  string        `mapstructure:"default_gender"`
}

// Flags 定义 Load 支持的命令行参数
func Flags() *pflag.FlagSet {
	set := pflag.NewFlagSet("contract-filler", pflag.ContinueOnError)
	set.String("config", "", "Path to config file (yaml)")
	set.Int("port", 8080, "Server port")
	set.String("mode", "release", "Run mode (debug/release)")
	set.String("log-level", "info", "Log level (debug/info/warn/error)")
	set.String("storage", "local", "Output storage (local/minio)")
	set.String("data-dir", "./data", "Data directory")
	set.String("cache", "memory", "Download ticket cache (memory/redis)")
	return set
}

var flagKeys = map[string]string{
	"port":      "server.port",
	"mode":      "server.mode",
	"log-level": "log.level",
	"storage":   "storage.type",
	"data-dir":  "data_dir",
	"cache":     "cache.type",
}

// Load 加载配置
// 优先级依次为：命令行参数、CONTRACTS_* 环境变量、配置文件、默认值
// flags 可以为nil，配置文件不存在时不报错
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CONTRACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	processEnvironmentVariables(&cfg)
	cfg.applyDataDir()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Storage.Type {
	case "local":
	case "minio":
		if c.Storage.Endpoint == "" || c.Storage.Bucket == "" {
			return errors.New("minio storage requires endpoint and bucket")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	switch c.Cache.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported cache type: %s", c.Cache.Type)
	}
	if c.Pipeline.DownloadTTL <= 0 {
		return fmt.Errorf("invalid download ttl: %s", c.Pipeline.DownloadTTL)
	}
	return nil
}

// processEnvironmentVariables 处理配置中的 ${VAR} 环境变量引用
func processEnvironmentVariables(cfg *Config) {
	for _, s := range []*string{
		&cfg.Storage.Endpoint,
		&cfg.Storage.AccessKey,
		&cfg.Storage.SecretKey,
		&cfg.Cache.Address,
		&cfg.Cache.Password,
		&cfg.Database.DSN,
	} {
		*s = expandEnv(*s)
	}
}

func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		if val := os.Getenv(s[2 : len(s)-1]); val != "" {
			return val
		}
	}
	return s
}

// applyDataDir 未设置的路径放到数据目录下
func (c *Config) applyDataDir() {
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "contracts")
	}
	if c.Database.DSN == "" {
		c.Database.DSN = filepath.Join(c.DataDir, "contracts.db")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "./data")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.max_upload_size", 32<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.bucket", "contratos")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_ssl", false)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.key_prefix", "contracts")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "")

	v.SetDefault("pipeline.work_dir", "")
	v.SetDefault("pipeline.output_filename", "contrato_preenchido.docx")
	v.SetDefault("pipeline.download_ttl", "24h")
	v.SetDefault("pipeline.default_gender", "masculino")
}
