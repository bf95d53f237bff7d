package config

import (
	"os"
	"time"
)

// Config carries everything the service needs from the environment. It is
// loaded once in main and passed explicitly to the components that need it;
// nothing reads the environment after startup.
type Config struct {
	ServerPort    string
	MongoURI      string
	MongoDBName   string
	JWTSecret     string
	SessionTTL    time.Duration
	Environment   string
	AllowedOrigin string
	LogFile       string
}

// Load reads the configuration from environment variables, falling back to
// development defaults. JWTSecret has no default on purpose.
func Load() *Config {
	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:   getEnv("MONGO_DB_NAME", "taskboard"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionTTL:    7 * 24 * time.Hour,
		Environment:   getEnv("APP_ENV", "development"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		LogFile:       getEnv("LOG_FILE", "logs/taskboard.log"),
	}

	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if ttl, err := time.ParseDuration(raw); err == nil {
			cfg.SessionTTL = ttl
		}
	}

	return cfg
}

// IsProduction reports whether session cookies must carry the Secure flag.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
