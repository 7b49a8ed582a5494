package config

import (
	"os"
	"strings"
)

type Config struct {
	HTTPAddr string
	LogMode  string // "dev" or "prod"

	DBDriver string
	DBDSN    string

	// CatalogBaseURL points at the upstream content system's question
	// listing. Empty disables catalog refresh; the service then serves
	// whatever was synced last.
	CatalogBaseURL string

	// QuestionBase is the path prefix allocation URIs are built under.
	QuestionBase string

	AuthHMACSecret string

	CORSOrigins []string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:       addr,
		LogMode:        envOr("LOG_MODE", "dev"),
		DBDriver:       envOr("DB_DRIVER", "sqlite"),
		DBDSN:          envOr("DB_DSN", ""),
		CatalogBaseURL: os.Getenv("CATALOG_BASE_URL"),
		QuestionBase:   envOr("QUESTION_BASE", "/questions"),
		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		CORSOrigins:    csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
