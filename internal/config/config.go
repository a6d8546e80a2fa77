package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// Storefront backend
	BackendURL          string
	BackendTimeout      time.Duration
	BackendToken        string
	BackendClientID     string
	BackendClientSecret string
	BackendTokenURL     string
	BackendScopes       []string
	// Database (optional dispatch audit)
	DatabaseURL   string
	MigrationsDir string
	RunMigrations bool
	// Product-page assistant
	OpenAIAPIKey    string
	Model           string
	AssistantPrompt string

	SessionTTL time.Duration
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:                getEnvDefault("PORT", "8080"),
		AllowedOrigin:       getEnvDefault("ALLOWED_ORIGIN", "http://localhost:3000"),
		BackendURL:          os.Getenv("BACKEND_URL"),
		BackendTimeout:      getEnvDurationDefault("BACKEND_TIMEOUT", 0),
		BackendToken:        os.Getenv("BACKEND_TOKEN"),
		BackendClientID:     os.Getenv("BACKEND_CLIENT_ID"),
		BackendClientSecret: os.Getenv("BACKEND_CLIENT_SECRET"),
		BackendTokenURL:     os.Getenv("BACKEND_TOKEN_URL"),
		BackendScopes:       getEnvListDefault("BACKEND_SCOPES", nil),
		DatabaseURL:         os.Getenv("DB_URL"),
		MigrationsDir:       getEnvDefault("MIGRATIONS_DIR", "./migrations"),
		RunMigrations:       getEnvBoolDefault("RUN_MIGRATIONS", false),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		Model:               getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		AssistantPrompt:     getEnvDefault("ASSISTANT_PROMPT", "./prompts/assistant.yaml"),
		SessionTTL:          getEnvDurationDefault("SESSION_TTL", 30*time.Minute),
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("warning: OPENAI_API_KEY is not set; product questions get the static help text")
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

// getEnvDurationDefault accepts Go durations ("30s", "5m"). A bare integer is
// read as seconds.
func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if d, err := time.ParseDuration(v + "s"); err == nil {
		return d
	}
	log.Printf("warning: invalid duration %s=%q, using %s", key, v, def)
	return def
}
