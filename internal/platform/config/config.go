package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string

	JWTKey       []byte
	JWTAlgorithm string
	JWTExp       time.Duration // zero disables the exp claim

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr      string // empty disables the grading lock
	RedisPassword  string
	RedisDB        int
	GradingLockTTL time.Duration

	SandboxURLPython string
	SandboxURLGo     string
	SandboxAPIKey    string
	SandboxTimeout   time.Duration

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads an optional .env file and then the process environment.
// The returned config has not been validated; call Validate before use.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		APIPort:          getEnv("API_PORT", "8080"),
		JWTKey:           []byte(getEnv("JWT_SECRET", "")),
		JWTAlgorithm:     getEnv("JWT_ALGORITHM", "HS256"),
		JWTExp:           time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "postgres"),
		DBSslMode:        getEnv("DB_SSLMODE", "disable"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		GradingLockTTL:   time.Duration(getEnvAsInt("GRADING_LOCK_TTL_SECONDS", 120)) * time.Second,
		SandboxURLPython: getEnv("SANDBOX_URL_PYTHON", ""),
		SandboxURLGo:     getEnv("SANDBOX_URL_GO", ""),
		SandboxAPIKey:    getEnv("SANDBOX_API_KEY", ""),
		SandboxTimeout:   getEnvAsDuration("SANDBOX_TIMEOUT", 30*time.Second),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		LogFile:          getEnv("LOG_FILE", ""),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg, nil
}

// Validate reports every missing value the server cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if len(c.JWTKey) == 0 {
		missing = append(missing, "JWT_SECRET")
	}
	if c.SandboxURLPython == "" {
		missing = append(missing, "SANDBOX_URL_PYTHON")
	}
	if c.SandboxURLGo == "" {
		missing = append(missing, "SANDBOX_URL_GO")
	}
	if c.SandboxAPIKey == "" {
		missing = append(missing, "SANDBOX_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.SandboxTimeout <= 0 {
		return errors.New("SANDBOX_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("45s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
