package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Admin     AdminConfig     `yaml:"admin"`
	Storage   StorageConfig   `yaml:"storage"`
	Intake    IntakeConfig    `yaml:"intake"`
	Queue     QueueConfig     `yaml:"queue"`
	Bulk      BulkConfig      `yaml:"bulk"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings.
// URL takes precedence over the discrete fields when set.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// SendGridConfig contains transactional email settings
type SendGridConfig struct {
	APIKey         string `yaml:"api_key"`
	From           string `yaml:"from"`
	Host           string `yaml:"host"` // empty means https://api.sendgrid.com
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AdminConfig contains the single administrator account and session settings.
// Password may be plaintext or a bcrypt hash ("$2a$..." / "$2b$...").
type AdminConfig struct {
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	JWTSecret      string `yaml:"jwt_secret"`
	SessionMinutes int    `yaml:"session_minutes"`
	CookieSecure   bool   `yaml:"cookie_secure"`
}

// StorageConfig contains document upload settings
type StorageConfig struct {
	UploadDir         string   `yaml:"upload_dir"`
	MaxUploadMB       int64    `yaml:"max_upload_mb"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// IntakeConfig contains public form settings
type IntakeConfig struct {
	DefaultRegion string `yaml:"default_region"`
}

// QueueConfig contains background notification queue settings
type QueueConfig struct {
	Workers          int `yaml:"workers"`
	Size             int `yaml:"size"`
	MaxRetries       int `yaml:"max_retries"`
	InitialBackoffMs int `yaml:"initial_backoff_ms"`
}

// BulkConfig contains mass-mailing limits
type BulkConfig struct {
	MaxRecipients int `yaml:"max_recipients"`
	PauseMs       int `yaml:"pause_ms"`
}

// RateLimitConfig contains per-IP limits for public endpoints
type RateLimitConfig struct {
	Enabled                 bool `yaml:"enabled"`
	IntakeRequestsPerMinute int  `yaml:"intake_requests_per_minute"`
	LoginRequestsPerMinute  int  `yaml:"login_requests_per_minute"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	RequeueStalledNotifications string `yaml:"requeue_stalled_notifications"`
	PurgeDeliveredNotifications string `yaml:"purge_delivered_notifications"`
	ReportDeadLetters           string `yaml:"report_dead_letters"`
}

// Load reads configuration from a YAML file. A .env file in the working
// directory, if present, is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a Config from YAML bytes, applying environment overrides and defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DATABASE_URL"); val != "" {
		c.Database.URL = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("MAIL_DEFAULT_SENDER"); val != "" {
		c.SendGrid.From = val
	}

	// Admin
	if val := os.Getenv("ADMIN_USERNAME"); val != "" {
		c.Admin.Username = val
	}
	if val := os.Getenv("ADMIN_PASSWORD"); val != "" {
		c.Admin.Password = val
	}
	if val := os.Getenv("SECRET_KEY"); val != "" {
		c.Admin.JWTSecret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Storage
	if val := os.Getenv("UPLOAD_DIR"); val != "" {
		c.Storage.UploadDir = val
	}

	// Intake
	if val := os.Getenv("DEFAULT_REGION"); val != "" {
		c.Intake.DefaultRegion = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.SendGrid.TimeoutSeconds == 0 {
		c.SendGrid.TimeoutSeconds = 30
	}
	if c.Admin.SessionMinutes == 0 {
		c.Admin.SessionMinutes = 30
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "static/uploads"
	}
	if c.Storage.MaxUploadMB == 0 {
		c.Storage.MaxUploadMB = 16
	}
	if len(c.Storage.AllowedExtensions) == 0 {
		c.Storage.AllowedExtensions = []string{"pdf", "png", "jpg", "jpeg"}
	}
	for i, ext := range c.Storage.AllowedExtensions {
		c.Storage.AllowedExtensions[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
	}
	if c.Intake.DefaultRegion == "" {
		c.Intake.DefaultRegion = "Dakar"
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = 2
	}
	if c.Queue.Size == 0 {
		c.Queue.Size = 500
	}
	if c.Queue.MaxRetries == 0 {
		c.Queue.MaxRetries = 5
	}
	if c.Queue.InitialBackoffMs == 0 {
		c.Queue.InitialBackoffMs = 10000
	}
	if c.Bulk.MaxRecipients == 0 {
		c.Bulk.MaxRecipients = 10
	}
	if c.Bulk.PauseMs == 0 {
		c.Bulk.PauseMs = 300
	}
	if c.RateLimit.IntakeRequestsPerMinute == 0 {
		c.RateLimit.IntakeRequestsPerMinute = 10
	}
	if c.RateLimit.LoginRequestsPerMinute == 0 {
		c.RateLimit.LoginRequestsPerMinute = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Scheduler.RequeueStalledNotifications == "" {
		c.Scheduler.RequeueStalledNotifications = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.PurgeDeliveredNotifications == "" {
		c.Scheduler.PurgeDeliveredNotifications = "0 0 3 * * *" // 3 AM UTC
	}
	if c.Scheduler.ReportDeadLetters == "" {
		c.Scheduler.ReportDeadLetters = "0 0 * * * *" // hourly
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.URL == "" {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.Admin.Username == "" || c.Admin.Password == "" {
		return fmt.Errorf("admin username and password are required")
	}
	if len(c.Admin.JWTSecret) < 32 {
		return fmt.Errorf("admin jwt secret must be at least 32 characters")
	}

	if c.Storage.MaxUploadMB < 0 {
		return fmt.Errorf("invalid max upload size: %d", c.Storage.MaxUploadMB)
	}
	if c.Queue.Workers < 0 || c.Queue.Size < 0 {
		return fmt.Errorf("queue workers and size must not be negative")
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string.
// Heroku/Render style "postgres://" URLs are accepted as-is by lib/pq.
func (c *Config) GetDatabaseConnectionString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MaxUploadBytes returns the request body ceiling for the intake form
func (c *Config) MaxUploadBytes() int64 {
	return c.Storage.MaxUploadMB * 1024 * 1024
}
