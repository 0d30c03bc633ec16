package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabasesConfig `mapstructure:"database"`
	Cache    CacheConfig     `mapstructure:"cache"`
	Protocol ProtocolConfig  `mapstructure:"protocol"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	CORS     CORSConfig      `mapstructure:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
}

// DatabasesConfig holds all database configurations
type DatabasesConfig struct {
	Protocol DatabaseConfig `mapstructure:"protocol"`
}

// DatabaseConfig holds individual database configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// CacheConfig holds the status cache configuration. Cache entries are
// invalidated explicitly on every status write; the TTL is only a safety
// net bounding staleness from a missed invalidation.
type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// Fail modes for the admission hot path when the stores are unreachable
const (
	FailModeOpen   = "open"
	FailModeClosed = "closed"
)

// ProtocolConfig holds quarantine protocol configuration
type ProtocolConfig struct {
	CostPerMessage   float64       `mapstructure:"cost_per_message"`
	RetentionDays    int           `mapstructure:"retention_days"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	FailMode         string        `mapstructure:"fail_mode"`
	BatchParallelism int           `mapstructure:"batch_parallelism"`
	StoreTimeout     time.Duration `mapstructure:"store_timeout"`
	DefaultListLimit int           `mapstructure:"default_list_limit"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

var globalConfig *Config

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("QUARANTINE")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

// setDefaults registers defaults for settings most deployments never touch
func setDefaults(v *viper.Viper) {
	v.SetDefault("cache.size", 4096)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("protocol.cost_per_message", 0.000307)
	v.SetDefault("protocol.retention_days", 7)
	v.SetDefault("protocol.sweep_interval", time.Hour)
	v.SetDefault("protocol.fail_mode", FailModeOpen)
	v.SetDefault("protocol.batch_parallelism", 8)
	v.SetDefault("protocol.store_timeout", 300*time.Millisecond)
	v.SetDefault("protocol.default_list_limit", 50)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Protocol.Hostname == "" {
		return fmt.Errorf("database hostname is required")
	}

	if config.Database.Protocol.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if config.Protocol.FailMode != FailModeOpen && config.Protocol.FailMode != FailModeClosed {
		return fmt.Errorf("invalid fail mode: %s", config.Protocol.FailMode)
	}

	if config.Protocol.CostPerMessage < 0 {
		return fmt.Errorf("cost per message must not be negative: %f", config.Protocol.CostPerMessage)
	}

	if config.Protocol.RetentionDays <= 0 {
		return fmt.Errorf("retention days must be positive: %d", config.Protocol.RetentionDays)
	}

	if config.Protocol.BatchParallelism <= 0 {
		return fmt.Errorf("batch parallelism must be positive: %d", config.Protocol.BatchParallelism)
	}

	return nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// SetGlobal sets the global configuration (for testing purposes)
func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

// GetDSN returns the database connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		d.User,
		d.Password,
		d.Hostname,
		d.Port,
		d.Database,
	)
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}

// RetentionWindow returns the quarantine retention window as a duration
func (p *ProtocolConfig) RetentionWindow() time.Duration {
	return time.Duration(p.RetentionDays) * 24 * time.Hour
}

// IsFailOpen reports whether the admission hot path forwards messages
// when the stores are unreachable
func (p *ProtocolConfig) IsFailOpen() bool {
	return p.FailMode != FailModeClosed
}
