package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	Port           string
	Origin         string
	Environment    string
	Database       DatabaseConfig
	Log            LogConfig
	Redis          RedisConfig
	Broker         BrokerConfig
	Scheduling     SchedulingConfig
	MetricsEnabled bool
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            string
	Username        string
	Password        string
	Name            string
	SSLMode         string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxIsolation     string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

// RedisConfig configures the optional availability cache.
type RedisConfig struct {
	URL             string
	AvailabilityTTL time.Duration
}

// BrokerConfig configures appointment event publishing.
type BrokerConfig struct {
	URL        string
	Exchange   string
	BufferSize int
}

// SchedulingConfig holds the booking engine policy switches.
type SchedulingConfig struct {
	EnforceTransitions  bool
	RequireAvailability bool
	Timezone            string
	Location            *time.Location
	AvailabilitySeed    string
}

var (
	supportedDrivers    = map[string]bool{"mysql": true, "postgres": true, "memory": true}
	supportedIsolations = map[string]bool{"serializable": true, "repeatable_read": true}
)

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Driver:          strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		Host:            getEnv("DB_HOST", "localhost"),
		Username:        getEnv("DB_USERNAME", "root"),
		Password:        getEnv("DB_PASSWORD", ""),
		Name:            getEnv("DB_NAME", "appointments"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		TxIsolation:     strings.ToLower(getEnv("DB_TX_ISOLATION", "serializable")),
	}
	if !supportedDrivers[dbConfig.Driver] {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", dbConfig.Driver)
	}
	if !supportedIsolations[dbConfig.TxIsolation] {
		return nil, fmt.Errorf("unsupported DB_TX_ISOLATION %q", dbConfig.TxIsolation)
	}

	switch dbConfig.Driver {
	case "mysql":
		dbConfig.Port = getEnv("DB_PORT", "3306")
		dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)
	case "postgres":
		dbConfig.Port = getEnv("DB_PORT", "5432")
		dbConfig.DSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			dbConfig.Host, dbConfig.Username, dbConfig.Password, dbConfig.Name, dbConfig.Port, dbConfig.SSLMode)
	}

	timezone := getEnv("SCHEDULING_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULING_TIMEZONE: %w", err)
	}

	bufferSize := getEnvInt("EVENT_BUFFER_SIZE", 1024)
	if bufferSize <= 0 {
		return nil, fmt.Errorf("EVENT_BUFFER_SIZE must be positive, got %d", bufferSize)
	}

	return &Config{
		Port:        getEnv("PORT", "5000"),
		Origin:      getEnv("ORIGIN", "http://localhost:4200"),
		Environment: getEnv("APP_ENV", "development"),
		Database:    dbConfig,
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Redis: RedisConfig{
			URL:             getEnv("REDIS_URL", ""),
			AvailabilityTTL: getEnvDuration("AVAILABILITY_CACHE_TTL", 5*time.Minute),
		},
		Broker: BrokerConfig{
			URL:        getEnv("RABBITMQ_URL", ""),
			Exchange:   getEnv("RABBITMQ_EXCHANGE", "appointments"),
			BufferSize: bufferSize,
		},
		Scheduling: SchedulingConfig{
			EnforceTransitions:  getEnvBool("SCHEDULING_ENFORCE_TRANSITIONS", true),
			RequireAvailability: getEnvBool("SCHEDULING_REQUIRE_AVAILABILITY", true),
			Timezone:            timezone,
			Location:            loc,
			AvailabilitySeed:    getEnv("AVAILABILITY_SEED", ""),
		},
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
