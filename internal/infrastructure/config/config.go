package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Search    SearchConfig    `mapstructure:"search"`
	Activity  ActivityConfig  `mapstructure:"activity"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Import    ImportConfig    `mapstructure:"import"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	LogSQL   bool   `mapstructure:"log_sql"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SearchConfig selects the search backend and its limits.
type SearchConfig struct {
	Backend               string `mapstructure:"backend"`
	IndexPath             string `mapstructure:"index_path"`
	ResultLimit           int    `mapstructure:"result_limit"`
	AutocompleteMinLength int    `mapstructure:"autocomplete_min_length"`
	BatchSize             int    `mapstructure:"batch_size"`
}

type ActivityConfig struct {
	Capacity     int    `mapstructure:"capacity"`
	PopularLimit int    `mapstructure:"popular_limit"`
	MaxTracked   int    `mapstructure:"max_tracked"`
	SnapshotPath string `mapstructure:"snapshot_path"`
}

type CacheConfig struct {
	Driver   string        `mapstructure:"driver"`
	RedisURL string        `mapstructure:"redis_url"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type ImportConfig struct {
	Workers   int   `mapstructure:"workers"`
	BatchSize int   `mapstructure:"batch_size"`
	MaxBytes  int64 `mapstructure:"max_bytes"`
}

type SchedulerConfig struct {
	ReconcileSchedule string `mapstructure:"reconcile_schedule"`
	SnapshotSchedule  string `mapstructure:"snapshot_schedule"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	setDefaults()

	// Enable reading from environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 5*time.Second)
	viper.SetDefault("server.cors_origins", []string{"*"})
	viper.SetDefault("server.rate_limit_rps", 20.0)
	viper.SetDefault("server.rate_limit_burst", 40)

	viper.SetDefault("database.driver", "sqlite3")
	viper.SetDefault("database.path", "wordindex.db")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "wordindex")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.log_sql", false)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	viper.SetDefault("search.backend", "store")
	viper.SetDefault("search.index_path", "data/words.bleve")
	viper.SetDefault("search.result_limit", 20)
	viper.SetDefault("search.autocomplete_min_length", 2)
	viper.SetDefault("search.batch_size", 50)

	viper.SetDefault("activity.capacity", 10)
	viper.SetDefault("activity.popular_limit", 5)
	viper.SetDefault("activity.max_tracked", 10000)
	viper.SetDefault("activity.snapshot_path", "data/activity")

	viper.SetDefault("cache.driver", "memory")
	viper.SetDefault("cache.prefix", "wordindex:")
	viper.SetDefault("cache.ttl", 5*time.Minute)

	viper.SetDefault("import.workers", 1)
	viper.SetDefault("import.batch_size", 50)
	viper.SetDefault("import.max_bytes", int64(32<<20))

	viper.SetDefault("scheduler.reconcile_schedule", "@every 1h")
	viper.SetDefault("scheduler.snapshot_schedule", "@every 5m")
}

// DatabaseDriver returns the database/sql driver name for the configured database.
func (c *Config) DatabaseDriver() (string, error) {
	switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
	case "", "sqlite", "sqlite3":
		return "sqlite3", nil
	case "postgres", "postgresql", "pgx":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
}

// DatabaseURL returns the connection string for the configured driver. An
// explicit database.dsn always wins.
func (c *Config) DatabaseURL() (string, error) {
	if dsn := strings.TrimSpace(c.Database.DSN); dsn != "" {
		return dsn, nil
	}
	driver, err := c.DatabaseDriver()
	if err != nil {
		return "", err
	}
	switch driver {
	case "sqlite3":
		path := strings.TrimSpace(c.Database.Path)
		if path == "" {
			return "", fmt.Errorf("database.path is required for sqlite")
		}
		return "file:" + path + "?_fk=1&_busy_timeout=5000", nil
	default:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.Database.User, c.Database.Password),
			Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
			Path:     "/" + c.Database.Name,
			RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
		}
		return u.String(), nil
	}
}
