package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"leoride/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Payment    PaymentConfig    `yaml:"payment"`
	Google     GoogleConfig     `yaml:"google"`
	Telegram   TelegramConfig   `yaml:"telegram"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	// JWTSecret is the HMAC secret shared with the identity provider.
	JWTSecret string `yaml:"jwt_secret"`
	// RoleCacheTTL holds cached roles, e.g. "15m".
	RoleCacheTTL string `yaml:"role_cache_ttl"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BookingConfig struct {
	MaxBookingDays int `yaml:"max_booking_days"`
}

type PaymentConfig struct {
	// ProcessingDelay is the simulated gateway round-trip, e.g. "3s".
	ProcessingDelay string `yaml:"processing_delay"`
}

type GoogleConfig struct {
	CredentialsFile     string `yaml:"credentials_file"`
	ReportSpreadsheetID string `yaml:"report_spreadsheet_id"`
}

type TelegramConfig struct {
	BotToken     string  `yaml:"bot_token"`
	AdminChatIDs []int64 `yaml:"admin_chat_ids"`
	Debug        bool    `yaml:"debug"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; environment variables win either way
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand ${VAR} references before parsing
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.API.Enabled && c.API.Auth.JWTSecret == "" {
		return errors.New("api.auth.jwt_secret is required when the API is enabled")
	}

	if _, err := time.ParseDuration(c.Payment.ProcessingDelay); err != nil {
		return fmt.Errorf("invalid payment.processing_delay: %w", err)
	}

	if _, err := time.ParseDuration(c.API.Auth.RoleCacheTTL); err != nil {
		return fmt.Errorf("invalid api.auth.role_cache_ttl: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "leoride"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Booking.MaxBookingDays == 0 {
		c.Booking.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if c.Payment.ProcessingDelay == "" {
		c.Payment.ProcessingDelay = fmt.Sprintf("%ds", models.DefaultPaymentDelaySeconds)
	}
	if c.API.Auth.RoleCacheTTL == "" {
		c.API.Auth.RoleCacheTTL = (time.Duration(models.DefaultRoleCacheTTL) * time.Second).String()
	}
}

// PaymentDelay returns the parsed simulated processing delay.
func (c *Config) PaymentDelay() time.Duration {
	d, err := time.ParseDuration(c.Payment.ProcessingDelay)
	if err != nil {
		return time.Duration(models.DefaultPaymentDelaySeconds) * time.Second
	}
	return d
}

// RoleCacheTTL returns the parsed role cache lifetime.
func (c *Config) RoleCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.API.Auth.RoleCacheTTL)
	if err != nil {
		return time.Duration(models.DefaultRoleCacheTTL) * time.Second
	}
	return d
}
