package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for the wellness services
type Config struct {
	// MQTT configuration
	MQTTBroker   string `yaml:"mqtt_broker"`
	MQTTPort     int    `yaml:"mqtt_port"`
	MQTTUser     string `yaml:"mqtt_user"`
	MQTTPassword string `yaml:"mqtt_password"`
	MQTTClientID string `yaml:"mqtt_client_id"`

	// Redis configuration
	RedisHost     string `yaml:"redis_host"`
	RedisPort     int    `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Postgres configuration
	PostgresHost               string        `yaml:"postgres_host"`
	PostgresPort               int           `yaml:"postgres_port"`
	PostgresUser               string        `yaml:"postgres_user"`
	PostgresPassword           string        `yaml:"postgres_password"`
	PostgresDB                 string        `yaml:"postgres_db"`
	PostgresSSLMode            string        `yaml:"postgres_sslmode"`
	PostgresMaxConnections     int           `yaml:"postgres_max_connections"`
	PostgresMaxIdleConnections int           `yaml:"postgres_max_idle_connections"`
	PostgresConnMaxLifetime    time.Duration `yaml:"postgres_conn_max_lifetime"`

	// Service configuration
	ServiceName string `yaml:"service_name"`
	HealthPort  int    `yaml:"health_port"`
	APIPort     int    `yaml:"api_port"`
	LogLevel    string `yaml:"log_level"`

	// Signal collector configuration
	SignalTopics        []string `yaml:"signal_topics"`
	SignalRetentionDays int      `yaml:"signal_retention_days"`

	// Generative text service
	LLMEndpoint    string        `yaml:"llm_endpoint"`
	LLMModel       string        `yaml:"llm_model"`
	LLMTimeout     time.Duration `yaml:"llm_timeout"`
	LLMMaxRetries  int           `yaml:"llm_max_retries"`
	LLMBaseBackoff time.Duration `yaml:"llm_base_backoff"`

	// Engine configuration
	Locale            string        `yaml:"locale"`
	Timezone          string        `yaml:"timezone"`
	Latitude          float64       `yaml:"latitude"`
	Longitude         float64       `yaml:"longitude"`
	HistoryWindowDays int           `yaml:"history_window_days"`
	SourceTimeout     time.Duration `yaml:"source_timeout"`
	ResultCacheTTL    time.Duration `yaml:"result_cache_ttl"`
	ContextCacheTTL   time.Duration `yaml:"context_cache_ttl"`
	MaxInsights       int           `yaml:"max_insights"`
	AllowHealthAlerts bool          `yaml:"allow_health_alerts"`
	PublishResults    bool          `yaml:"publish_results"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:                 "localhost",
		MQTTPort:                   1883,
		RedisHost:                  "localhost",
		RedisPort:                  6379,
		RedisDB:                    0,
		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "wellness",
		PostgresDB:                 "wellness",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     10,
		PostgresMaxIdleConnections: 5,
		PostgresConnMaxLifetime:    30 * time.Minute,
		ServiceName:                "wellness-engine",
		HealthPort:                 8080,
		APIPort:                    3010,
		LogLevel:                   "info",
		SignalTopics:               []string{"wellness/raw/+/+"},
		SignalRetentionDays:        35,
		LLMEndpoint:                "http://localhost:11434",
		LLMModel:                   "llama3.2:3b",
		LLMTimeout:                 30 * time.Second,
		LLMMaxRetries:              2,
		LLMBaseBackoff:             500 * time.Millisecond,
		// Engine defaults (Milan coordinates)
		Locale:            "it",
		Timezone:          "Europe/Rome",
		Latitude:          45.4642,
		Longitude:         9.1900,
		HistoryWindowDays: 30,
		SourceTimeout:     5 * time.Second,
		ResultCacheTTL:    30 * time.Minute,
		ContextCacheTTL:   2 * time.Minute,
		MaxInsights:       5,
	}
}

// LoadFromFile overlays values from a YAML file. Keys missing from the
// file keep their current values.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables with WELLNESS_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	envString("WELLNESS_MQTT_BROKER", &c.MQTTBroker)
	envInt("WELLNESS_MQTT_PORT", &c.MQTTPort)
	envString("WELLNESS_MQTT_USER", &c.MQTTUser)
	envString("WELLNESS_MQTT_PASSWORD", &c.MQTTPassword)
	envString("WELLNESS_MQTT_CLIENT_ID", &c.MQTTClientID)

	// Redis configuration
	envString("WELLNESS_REDIS_HOST", &c.RedisHost)
	envInt("WELLNESS_REDIS_PORT", &c.RedisPort)
	envString("WELLNESS_REDIS_PASSWORD", &c.RedisPassword)
	envInt("WELLNESS_REDIS_DB", &c.RedisDB)

	// Postgres configuration
	envString("WELLNESS_POSTGRES_HOST", &c.PostgresHost)
	envInt("WELLNESS_POSTGRES_PORT", &c.PostgresPort)
	envString("WELLNESS_POSTGRES_USER", &c.PostgresUser)
	envString("WELLNESS_POSTGRES_PASSWORD", &c.PostgresPassword)
	envString("WELLNESS_POSTGRES_DB", &c.PostgresDB)
	envString("WELLNESS_POSTGRES_SSLMODE", &c.PostgresSSLMode)

	// Service configuration
	envString("WELLNESS_SERVICE_NAME", &c.ServiceName)
	envInt("WELLNESS_HEALTH_PORT", &c.HealthPort)
	envInt("WELLNESS_API_PORT", &c.APIPort)
	envString("WELLNESS_LOG_LEVEL", &c.LogLevel)
	envInt("WELLNESS_SIGNAL_RETENTION_DAYS", &c.SignalRetentionDays)

	// Generative text service
	envString("WELLNESS_LLM_ENDPOINT", &c.LLMEndpoint)
	envString("WELLNESS_LLM_MODEL", &c.LLMModel)
	envDuration("WELLNESS_LLM_TIMEOUT", &c.LLMTimeout)
	envInt("WELLNESS_LLM_MAX_RETRIES", &c.LLMMaxRetries)
	envDuration("WELLNESS_LLM_BASE_BACKOFF", &c.LLMBaseBackoff)

	// Engine configuration
	envString("WELLNESS_LOCALE", &c.Locale)
	envString("WELLNESS_TIMEZONE", &c.Timezone)
	envFloat("WELLNESS_LATITUDE", &c.Latitude)
	envFloat("WELLNESS_LONGITUDE", &c.Longitude)
	envInt("WELLNESS_HISTORY_WINDOW_DAYS", &c.HistoryWindowDays)
	envDuration("WELLNESS_SOURCE_TIMEOUT", &c.SourceTimeout)
	envDuration("WELLNESS_RESULT_CACHE_TTL", &c.ResultCacheTTL)
	envDuration("WELLNESS_CONTEXT_CACHE_TTL", &c.ContextCacheTTL)
	envInt("WELLNESS_MAX_INSIGHTS", &c.MaxInsights)
	envBool("WELLNESS_ALLOW_HEALTH_ALERTS", &c.AllowHealthAlerts)
	envBool("WELLNESS_PUBLISH_RESULTS", &c.PublishResults)
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.BindFlags(pflag.CommandLine)
	pflag.Parse()
}

// BindFlags registers all config flags on the given flag set
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	// MQTT flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	fs.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	fs.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	fs.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	fs.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	fs.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")

	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	fs.IntVar(&c.APIPort, "api-port", c.APIPort, "HTTP API port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// LLM flags
	fs.StringVar(&c.LLMEndpoint, "llm-endpoint", c.LLMEndpoint, "LLM API base URL")
	fs.StringVar(&c.LLMModel, "llm-model", c.LLMModel, "LLM model name")
	fs.DurationVar(&c.LLMTimeout, "llm-timeout", c.LLMTimeout, "Timeout for a single LLM request")
	fs.IntVar(&c.LLMMaxRetries, "llm-max-retries", c.LLMMaxRetries, "Extra attempts for transient LLM failures")

	// Engine flags
	fs.StringVar(&c.Locale, "locale", c.Locale, "Locale for generated recommendations (it, en)")
	fs.StringVar(&c.Timezone, "timezone", c.Timezone, "Timezone used to determine the user's day")
	fs.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for daylight context")
	fs.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for daylight context")
	fs.IntVar(&c.HistoryWindowDays, "history-window-days", c.HistoryWindowDays, "Days of signal history to aggregate")
	fs.DurationVar(&c.SourceTimeout, "source-timeout", c.SourceTimeout, "Timeout for each domain source fetch")
	fs.DurationVar(&c.ResultCacheTTL, "result-cache-ttl", c.ResultCacheTTL, "Freshness window of the in-memory result cache")
	fs.IntVar(&c.MaxInsights, "max-insights", c.MaxInsights, "Maximum insights passed to the recommendation stage")
	fs.BoolVar(&c.AllowHealthAlerts, "allow-health-alerts", c.AllowHealthAlerts, "Keep high-priority health insights")
	fs.BoolVar(&c.PublishResults, "publish-results", c.PublishResults, "Publish computed results over MQTT")
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.PostgresPort <= 0 || c.PostgresPort > 65535 {
		return fmt.Errorf("Postgres port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM timeout must be positive")
	}
	if c.LLMMaxRetries < 0 {
		return fmt.Errorf("LLM max retries cannot be negative")
	}
	if c.HistoryWindowDays <= 0 {
		return fmt.Errorf("history window must be at least one day")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns a lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}

// Location resolves the configured timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
