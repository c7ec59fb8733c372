package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort string
	Debug      bool

	// 后端数据源
	BackendURL     string
	RequestTimeout time.Duration

	// Polling
	PollInterval time.Duration

	// 失败诊断
	DiagnosticsLimit int
	DatabaseURL      string // 为空时不落库
}

func Load() (*Config, error) {
	// 尝试加载 .env 文件（可选）
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:       getEnv("PORT", "3000"),
		Debug:            getEnvBool("DEBUG", false),
		BackendURL:       strings.TrimRight(getEnv("BACKEND_URL", "http://127.0.0.1:8080"), "/"),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		PollInterval:     getEnvDuration("POLL_INTERVAL", 3000*time.Millisecond),
		DiagnosticsLimit: getEnvInt("DIAGNOSTICS_LIMIT", 50),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
	}

	return cfg, nil
}

// JournalEnabled 是否启用失败记录持久化
func (c *Config) JournalEnabled() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
