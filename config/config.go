package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends understood by Load.
const (
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
	BackendMemory = "memory"
)

// DefaultJWTSecret is the signing key used when JWT_SECRET is unset. It is
// only accepted in development.
const DefaultJWTSecret = "change-me"

var ErrDefaultJWTSecret = errors.New("JWT_SECRET must be set outside development")

// Config holds runtime settings for the service. Every field can be set
// through the environment (or a .env file picked up by LoadEnv).
type Config struct {
	Env      string
	LogLevel string
	Port     string

	StoreBackend  string
	RedisURI      string
	RedisPassword string
	RedisDB       int
	MySQLDSN      string

	JWTSecret string
	TokenTTL  time.Duration

	QuorumPercent      float64
	SweepInterval      time.Duration
	ReminderWindow     time.Duration
	NotificationStream string

	VoteRateLimit  int
	VoteRateWindow time.Duration
	CORSOrigins    []string
}

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: No .env file found, using environment variables")
	}
}

func GetEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

// Load reads the configuration from the environment, applying defaults for
// anything unset. Malformed numbers and durations fall back to the default.
func Load() Config {
	return Config{
		Env:      GetEnv("APP_ENV", "development"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),
		Port:     GetEnv("PORT", "8080"),

		StoreBackend:  strings.ToLower(GetEnv("STORE_BACKEND", BackendRedis)),
		RedisURI:      GetEnv("REDIS_URI", "localhost:6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		MySQLDSN:      GetEnv("MYSQL_DSN", "badenya:badenya@tcp(localhost:3306)/badenya?parseTime=true"),

		JWTSecret: GetEnv("JWT_SECRET", DefaultJWTSecret),
		TokenTTL:  getDuration("TOKEN_TTL", 24*time.Hour),

		QuorumPercent:      getFloat("QUORUM_PERCENT", 0),
		SweepInterval:      getDuration("SWEEP_INTERVAL", time.Minute),
		ReminderWindow:     getDuration("REMINDER_WINDOW", 24*time.Hour),
		NotificationStream: GetEnv("NOTIFICATION_STREAM", "badenya.notifications"),

		VoteRateLimit:  getInt("VOTE_RATE_LIMIT", 30),
		VoteRateWindow: getDuration("VOTE_RATE_WINDOW", time.Minute),
		CORSOrigins:    splitList(GetEnv("CORS_ORIGINS", "http://localhost:3000")),
	}
}

// Validate rejects settings that are only safe on a developer machine.
func (c Config) Validate() error {
	if c.Env != "development" && c.JWTSecret == DefaultJWTSecret {
		return ErrDefaultJWTSecret
	}
	return nil
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 100 {
		log.Printf("Warning: invalid %s=%q, using %v", key, raw, fallback)
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
