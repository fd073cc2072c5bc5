package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL = "http://localhost:5050/api/sales"
	DefaultTimeout = 30 * time.Second
	DefaultPerPage = 10
)

type Config struct {
	Client ClientConfig `toml:"client"`
	Log    LogConfig    `toml:"log"`
	Stub   StubConfig   `toml:"stub"`
}

type ClientConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
	// Timeout bounds each transport phase: connect, TLS handshake, response headers.
	Timeout        time.Duration `toml:"timeout"`
	BreakerEnabled bool          `toml:"breaker_enabled"`
	Serialize      bool          `toml:"serialize"`
	PerPage        int           `toml:"per_page"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type StubConfig struct {
	Port            string        `toml:"port"`
	RedisAddr       string        `toml:"redis_addr"`
	RedisPassword   string        `toml:"redis_password"`
	RequestTimeout  time.Duration `toml:"request_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

func Default() *Config {
	return &Config{
		Client: ClientConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
			PerPage: DefaultPerPage,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Stub: StubConfig{
			Port:            "5050",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, then the optional TOML file
// at path, then a .env file in the working directory, then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Client.BaseURL = getEnv("CARTSYNC_BASE_URL", cfg.Client.BaseURL)
	cfg.Client.Token = getEnv("CARTSYNC_TOKEN", cfg.Client.Token)
	cfg.Log.Level = getEnv("CARTSYNC_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("CARTSYNC_LOG_FORMAT", cfg.Log.Format)
	cfg.Stub.Port = getEnv("STUBAPI_PORT", cfg.Stub.Port)
	cfg.Stub.RedisAddr = getEnv("STUBAPI_REDIS_ADDR", cfg.Stub.RedisAddr)
	cfg.Stub.RedisPassword = getEnv("STUBAPI_REDIS_PASSWORD", cfg.Stub.RedisPassword)

	var err error
	if cfg.Client.Timeout, err = getEnvDuration("CARTSYNC_TIMEOUT", cfg.Client.Timeout); err != nil {
		return err
	}
	if cfg.Client.BreakerEnabled, err = getEnvBool("CARTSYNC_BREAKER_ENABLED", cfg.Client.BreakerEnabled); err != nil {
		return err
	}
	if cfg.Client.Serialize, err = getEnvBool("CARTSYNC_SERIALIZE", cfg.Client.Serialize); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Client.BaseURL == "" {
		return errors.New("client.base_url is required")
	}
	u, err := url.Parse(c.Client.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("client.base_url %q is not an absolute URL", c.Client.BaseURL)
	}
	if c.Client.Timeout <= 0 {
		return errors.New("client.timeout must be positive")
	}
	if c.Client.PerPage <= 0 {
		return errors.New("client.per_page must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
