package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file, relative to the working directory.
const ConfigPath = "config.yaml"

// Storage backends accepted by storageBackend.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                    string   `yaml:"port"`
	LogLevel                string   `yaml:"logLevel"`
	StorageBackend          string   `yaml:"storageBackend"`
	DataDir                 string   `yaml:"dataDir"`
	RedisAddr               string   `yaml:"redisAddr"`
	RedisPassword           string   `yaml:"redisPassword"`
	RedisPrefix             string   `yaml:"redisPrefix"`
	DatabaseURL             string   `yaml:"databaseURL"`
	S3Endpoint              string   `yaml:"s3Endpoint"`
	S3AccessKey             string   `yaml:"s3AccessKey"`
	S3SecretKey             string   `yaml:"s3SecretKey"`
	S3Bucket                string   `yaml:"s3Bucket"`
	S3UseSSL                bool     `yaml:"s3UseSSL"`
	WriteRateLimitPerMinute int      `yaml:"writeRateLimitPerMinute"`
	TrustedProxyCIDRs       []string `yaml:"trustedProxyCidrs"`
}

// Load reads config from path (defaults to config.yaml). A .env file in the
// working directory is loaded first; real environment variables win over it.
func Load(path string) (FileConfig, error) {
	_ = godotenv.Load()

	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = BackendMemory
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("CAREER_PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("CAREER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("CAREER_STORAGE_BACKEND"); v != "" {
		cfg.StorageBackend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("CAREER_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("CAREER_REDIS_PREFIX"); v != "" {
		cfg.RedisPrefix = strings.TrimSpace(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.S3Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.S3AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.S3SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.S3Bucket = v
	}
	if v := os.Getenv("S3_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.S3UseSSL = b
		}
	}
	if v := os.Getenv("CAREER_WRITE_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.WriteRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("CAREER_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or CAREER_PORT)")
	}
	switch cfg.StorageBackend {
	case BackendMemory:
	case BackendFile:
		if strings.TrimSpace(cfg.DataDir) == "" {
			return errors.New("config: dataDir is required for the file backend")
		}
	case BackendRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for the redis backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return errors.New("config: databaseURL is required for the postgres backend")
		}
	case BackendS3:
		if strings.TrimSpace(cfg.S3Endpoint) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return errors.New("config: s3Endpoint and s3Bucket are required for the s3 backend")
		}
	default:
		return fmt.Errorf("config: unknown storageBackend %q", cfg.StorageBackend)
	}
	if cfg.WriteRateLimitPerMinute < 0 {
		return errors.New("config: writeRateLimitPerMinute must be >= 0")
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
