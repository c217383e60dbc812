package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DBDSN           string
	LogFile         string
	PlatformFeePct  float64
	DownloadLimit   int
	DownloadTTLDays int
	WebhookSecret   string
	RedisAddr       string
	MediaBaseURL    string
	FilesDir        string
	SigningKey      string
}

func Load() Config {
	// Optional .env for local development; real deployments set env vars.
	_ = godotenv.Load()

	cfg := Config{
		Port:            getenv("PORT", "8080"),
		DBDSN:           getenv("DB_DSN", "furnibles.db"),
		LogFile:         getenv("LOG_FILE", "./furnibles.log"),
		PlatformFeePct:  getfloat("PLATFORM_FEE_PERCENT", 10),
		DownloadLimit:   getint("DOWNLOAD_LIMIT", 5),
		DownloadTTLDays: getint("DOWNLOAD_TTL_DAYS", 30),
		WebhookSecret:   getenv("WEBHOOK_SECRET", "dev-webhook-secret"),
		RedisAddr:       os.Getenv("REDIS_ADDR"), // empty disables the catalog cache
		MediaBaseURL:    getenv("MEDIA_BASE_URL", "http://localhost:8080/files"),
		FilesDir:        getenv("FILES_DIR", "./files"),
		SigningKey:      getenv("SIGNING_KEY", "dev-signing-key"),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s FEE=%.2f%% LIMIT=%d TTL=%dd REDIS=%q",
		cfg.Port, cfg.DBDSN, cfg.PlatformFeePct, cfg.DownloadLimit, cfg.DownloadTTLDays, cfg.RedisAddr)
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getfloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return def
}
