package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	Database DatabaseConfig
	Telegram TelegramConfig
	Monitor  MonitorConfig
	Scraper  ScraperConfig
	HTTP     HTTPConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds database connection settings. Driver selects sqlite
// (default, Path-based) or postgres (Host/Port/User/... based).
type DatabaseConfig struct {
	Driver          string
	Path            string // sqlite file path
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// DSN builds the postgres connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// TelegramConfig holds the chat interface and notifier settings
type TelegramConfig struct {
	Token       string
	APIBaseURL  string
	PollTimeout time.Duration
}

// MonitorConfig holds the stock monitor scheduling settings
type MonitorConfig struct {
	Enabled        bool
	Interval       time.Duration // measured from the end of the previous tick
	PartitionPause time.Duration // mandatory pause between partitions in one tick
}

// ScraperConfig holds the headless-browser catalog fetcher settings
type ScraperConfig struct {
	BaseURL     string
	CatalogPath string
	UserAgent   string
	Headless    bool
	NoSandbox   bool
	RemoteURL   string        // attach to a remote Chrome instead of launching one
	NavTimeout  time.Duration // whole-session budget for one fetch
	StepTimeout time.Duration // per selector strategy
	TypeDelay   time.Duration // per-character typing pace
	SettleDelay time.Duration // wait for the page's own requests to land
}

// HTTPConfig holds the ops HTTP server configuration
type HTTPConfig struct {
	Enabled bool
	Port    string
}

// Load reads configuration from config.toml and STOCKWATCH_-prefixed
// environment variables, with environment taking precedence.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STOCKWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Telegram: TelegramConfig{
			Token:       v.GetString("telegram.token"),
			APIBaseURL:  v.GetString("telegram.api_base_url"),
			PollTimeout: v.GetDuration("telegram.poll_timeout"),
		},
		Monitor: MonitorConfig{
			Enabled:        v.GetBool("monitor.enabled"),
			Interval:       v.GetDuration("monitor.interval"),
			PartitionPause: v.GetDuration("monitor.partition_pause"),
		},
		Scraper: ScraperConfig{
			BaseURL:     v.GetString("scraper.base_url"),
			CatalogPath: v.GetString("scraper.catalog_path"),
			UserAgent:   v.GetString("scraper.user_agent"),
			Headless:    v.GetBool("scraper.headless"),
			NoSandbox:   v.GetBool("scraper.no_sandbox"),
			RemoteURL:   v.GetString("scraper.remote_url"),
			NavTimeout:  v.GetDuration("scraper.nav_timeout"),
			StepTimeout: v.GetDuration("scraper.step_timeout"),
			TypeDelay:   v.GetDuration("scraper.type_delay"),
			SettleDelay: v.GetDuration("scraper.settle_delay"),
		},
		HTTP: HTTPConfig{
			Enabled: v.GetBool("http.enabled"),
			Port:    v.GetString("http.port"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stockwatch")
	v.SetDefault("app.env", "development")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "stockwatch.db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.conn_max_idle_time", 10)

	v.SetDefault("telegram.api_base_url", "https://api.telegram.org")
	v.SetDefault("telegram.poll_timeout", 30*time.Second)

	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.interval", 30*time.Second)
	v.SetDefault("monitor.partition_pause", 2*time.Second)

	v.SetDefault("scraper.base_url", "https://shop.amul.com")
	v.SetDefault("scraper.catalog_path", "/en/browse/protein")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("scraper.headless", true)
	v.SetDefault("scraper.no_sandbox", false)
	v.SetDefault("scraper.nav_timeout", 60*time.Second)
	v.SetDefault("scraper.step_timeout", 10*time.Second)
	v.SetDefault("scraper.type_delay", 100*time.Millisecond)
	v.SetDefault("scraper.settle_delay", 5*time.Second)

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.port", "8080")
}

// Validate checks settings that would otherwise fail deep inside a tick.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		return fmt.Errorf("database.path is required for the sqlite driver")
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url is required")
	}
	return nil
}
