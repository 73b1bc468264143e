package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database (empty disables match history)
	DatabaseURL    string
	MigrateOnStart bool
	MigrationsDir  string

	// Redis (empty disables result cache, events and the retry list)
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Security
	JWTSecret               string
	MultiplayerRequiresAuth bool

	// Tournament service
	TournamentServiceURL   string
	TournamentServiceToken string
	TournamentRetrySeconds int

	// Game Settings
	TickRateHz          int
	MaxScore            int // 0 keeps the game config value
	AIPredictIntervalMs int
	IdleTimeoutSeconds  int
	IdleSweepSeconds    int
	GameConfigPath      string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Security
		JWTSecret:               getEnv("JWT_SECRET", "change-me-in-production"),
		MultiplayerRequiresAuth: getEnvBool("MULTIPLAYER_REQUIRES_AUTH", false),

		// Tournament service
		TournamentServiceURL:   getEnv("TOURNAMENT_SERVICE_URL", ""),
		TournamentServiceToken: getEnv("TOURNAMENT_SERVICE_TOKEN", ""),
		TournamentRetrySeconds: getEnvInt("TOURNAMENT_RETRY_SECONDS", 60),

		// Game Settings
		TickRateHz:          getEnvInt("TICK_RATE_HZ", 60),
		MaxScore:            getEnvInt("MAX_SCORE", 0),
		AIPredictIntervalMs: getEnvInt("AI_PREDICT_INTERVAL_MS", 1000),
		IdleTimeoutSeconds:  getEnvInt("IDLE_TIMEOUT_SECONDS", 0),
		IdleSweepSeconds:    getEnvInt("IDLE_SWEEP_SECONDS", 5),
		GameConfigPath:      getEnv("GAME_CONFIG_PATH", ""),
	}
}

// TickInterval is the period of each match ticker.
func (c *Config) TickInterval() time.Duration {
	hz := c.TickRateHz
	if hz <= 0 {
		hz = 60
	}
	return time.Second / time.Duration(hz)
}

func (c *Config) AIPredictInterval() time.Duration {
	return time.Duration(c.AIPredictIntervalMs) * time.Millisecond
}

// IdleTimeout is zero when idle connections are never dropped.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

func (c *Config) IdleSweepInterval() time.Duration {
	if c.IdleSweepSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.IdleSweepSeconds) * time.Second
}

// AllowedOrigins lists the browser origins for CORS and the websocket
// upgrade. FRONTEND_URL may hold several comma-separated origins.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	if c.Environment == "development" {
		origins = append(origins, "http://localhost:5173", "http://127.0.0.1:5173")
	}
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
