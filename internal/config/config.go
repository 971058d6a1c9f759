package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	SMS       SMSConfig       `mapstructure:"sms"`
	Email     EmailConfig     `mapstructure:"email"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Reports   ReportsConfig   `mapstructure:"reports"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// RedisConfig is optional. When URL is empty the SMS rate limit is kept in
// process memory and in-app events are not published.
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
	Issuer      string `mapstructure:"issuer"`
}

type SMSConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	APISecret       string        `mapstructure:"api_secret"`
	SenderID        string        `mapstructure:"sender_id"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
}

type StorageConfig struct {
	MediaRoot         string `mapstructure:"media_root"`
	MaxAttachmentSize int64  `mapstructure:"max_attachment_size"`
}

type ReportsConfig struct {
	SchedulerEnabled bool          `mapstructure:"scheduler_enabled"`
	Interval         time.Duration `mapstructure:"interval"`
	Type             string        `mapstructure:"type"`
	AuthorEmail      string        `mapstructure:"author_email"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// secrets are read from the environment only and override the file.
type secrets struct {
	DBPassword      string `envconfig:"DB_PASSWORD"`
	JWTSecret       string `envconfig:"JWT_SECRET"`
	RedisURL        string `envconfig:"REDIS_URL"`
	VonageAPIKey    string `envconfig:"VONAGE_API_KEY"`
	VonageAPISecret string `envconfig:"VONAGE_API_SECRET"`
	VonageSenderID  string `envconfig:"VONAGE_SENDER_ID"`
	SMTPPassword    string `envconfig:"SMTP_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open", 25)
	v.SetDefault("database.max_idle", 5)

	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("jwt.expiry_hours", 24)
	v.SetDefault("jwt.issuer", "feedback-api")

	v.SetDefault("sms.base_url", "https://rest.nexmo.com")
	v.SetDefault("sms.rate_limit_window", "5m")
	v.SetDefault("sms.timeout", "10s")

	v.SetDefault("email.port", 587)
	v.SetDefault("email.from_name", "Hospital Feedback")

	v.SetDefault("storage.media_root", "media")
	v.SetDefault("storage.max_attachment_size", 5<<20)

	v.SetDefault("reports.interval", "24h")
	v.SetDefault("reports.type", "DAILY")

	v.SetDefault("log.level", "info")

	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)
}

// Load reads config.yml (or the file named by CONFIG_FILE), overlays secrets
// from the environment and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.applySecrets(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applySecrets() error {
	var s secrets
	if err := envconfig.Process("", &s); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}

	override := func(dst *string, val string) {
		if val != "" {
			*dst = val
		}
	}
	override(&c.Database.Password, s.DBPassword)
	override(&c.JWT.Secret, s.JWTSecret)
	override(&c.Redis.URL, s.RedisURL)
	override(&c.SMS.APIKey, s.VonageAPIKey)
	override(&c.SMS.APISecret, s.VonageAPISecret)
	override(&c.SMS.SenderID, s.VonageSenderID)
	override(&c.Email.Password, s.SMTPPassword)
	return nil
}

// Validate fails when a setting the notification channels or the API depend
// on is absent, so a misconfigured service never starts.
func (c *Config) Validate() error {
	var errs []error
	require := func(ok bool, name string) {
		if !ok {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	require(c.Server.Port > 0, "server.port")
	require(c.Database.Host != "", "database.host")
	require(c.Database.Name != "", "database.name")
	require(c.JWT.Secret != "", "jwt.secret")
	require(c.SMS.BaseURL != "", "sms.base_url")
	require(c.SMS.APIKey != "", "sms.api_key")
	require(c.SMS.APISecret != "", "sms.api_secret")
	require(c.SMS.SenderID != "", "sms.sender_id")
	require(c.Email.Host != "", "email.host")
	require(c.Email.Port > 0, "email.port")
	require(c.Email.From != "", "email.from")
	require(c.Storage.MediaRoot != "", "storage.media_root")
	if c.Reports.SchedulerEnabled {
		require(c.Reports.AuthorEmail != "", "reports.author_email")
		require(c.Reports.Interval > 0, "reports.interval")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
