package config

import (
	"os"
	"strconv"
	"strings"
)

// applyEnv overrides file values with environment variables when set.
func applyEnv(c *Config) {
	c.Storage.Backend = env("MOMENTUM_STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.SQLitePath = env("SQLITE_PATH", c.Storage.SQLitePath)
	c.Storage.PostgresDSN = env("POSTGRES_DSN", c.Storage.PostgresDSN)
	c.Storage.ClickHouseDSN = env("CLICKHOUSE_DSN", c.Storage.ClickHouseDSN)
	c.Publish.RedisAddr = env("REDIS_ADDR", c.Publish.RedisAddr)
	if brokers := env("KAFKA_BROKERS", ""); brokers != "" {
		c.Publish.KafkaBrokers = splitList(brokers)
	}
	if platforms := env("MOMENTUM_PLATFORMS", ""); platforms != "" {
		c.Pipeline.Platforms = splitList(platforms)
	}
	c.Pipeline.Workers = envInt("MOMENTUM_WORKERS", c.Pipeline.Workers)
	c.Server.Addr = env("MOMENTUM_SERVER_ADDR", c.Server.Addr)
	c.Logging.Level = env("LOG_LEVEL", c.Logging.Level)
	c.Logging.Encoding = env("LOG_ENCODING", c.Logging.Encoding)
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := env(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
