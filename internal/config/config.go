package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr               string
	DBPath             string
	LogLevel           string
	AdminUsers         []string
	CacheTTL           time.Duration
	CachePurgeInterval time.Duration
	RedisAddr          string
	MultimediaTimeout  time.Duration
	DictionaryAPIURL   string
	PixabayAPIURL      string
	PixabayAPIKey      string
	PrefetchWorkers    int
	PrefetchQueueSize  int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:               envOr("ADDR", ":8080"),
		DBPath:             envOr("DB_PATH", "file:flashdeck.db"),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		AdminUsers:         envListOr("ADMIN_USERS", nil),
		CacheTTL:           envDurationOr("CACHE_TTL", 7*24*time.Hour),
		CachePurgeInterval: envDurationOr("CACHE_PURGE_INTERVAL", time.Hour),
		RedisAddr:          envOr("REDIS_ADDR", ""),
		MultimediaTimeout:  envDurationOr("MULTIMEDIA_TIMEOUT", 10*time.Second),
		DictionaryAPIURL:   envOr("DICTIONARY_API_URL", "https://api.dictionaryapi.dev/api/v2/entries/en"),
		PixabayAPIURL:      envOr("PIXABAY_API_URL", "https://pixabay.com/api/"),
		PixabayAPIKey:      envOr("PIXABAY_API_KEY", ""),
		PrefetchWorkers:    envIntOr("PREFETCH_WORKER_COUNT", 2),
		PrefetchQueueSize:  envIntOr("PREFETCH_QUEUE_SIZE", 128),
	}
}

// Validate reports the first configuration value that cannot be used.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	if c.CachePurgeInterval < time.Minute {
		return fmt.Errorf("CACHE_PURGE_INTERVAL must be at least 1m, got %s", c.CachePurgeInterval)
	}
	if c.MultimediaTimeout <= 0 {
		return fmt.Errorf("MULTIMEDIA_TIMEOUT must be positive, got %s", c.MultimediaTimeout)
	}
	if c.DictionaryAPIURL == "" {
		return fmt.Errorf("DICTIONARY_API_URL cannot be empty")
	}
	if c.PrefetchWorkers < 1 || c.PrefetchWorkers > 32 {
		return fmt.Errorf("PREFETCH_WORKER_COUNT must be between 1 and 32, got %d", c.PrefetchWorkers)
	}
	if c.PrefetchQueueSize < 1 {
		return fmt.Errorf("PREFETCH_QUEUE_SIZE must be at least 1, got %d", c.PrefetchQueueSize)
	}
	return nil
}

// IsAdmin reports whether username is listed in ADMIN_USERS.
func (c Config) IsAdmin(username string) bool {
	for _, u := range c.AdminUsers {
		if u == username {
			return true
		}
	}
	return false
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
