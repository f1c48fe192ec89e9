package client

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the two required start-up values plus transport tuning.
type Config struct {
	ServiceURL string        `mapstructure:"LIVAULISLAM_SERVICE_URL"`
	APIKey     string        `mapstructure:"LIVAULISLAM_API_KEY"`
	Timeout    time.Duration `mapstructure:"LIVAULISLAM_TIMEOUT"`
}

// LoadConfig reads the client configuration from .env and the environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("LIVAULISLAM_SERVICE_URL", "")
	v.SetDefault("LIVAULISLAM_API_KEY", "")
	v.SetDefault("LIVAULISLAM_TIMEOUT", "10s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode client config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fails when either required value is missing or the URL is unusable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceURL) == "" {
		return errors.New("LIVAULISLAM_SERVICE_URL is required")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("LIVAULISLAM_API_KEY is required")
	}
	u, err := url.Parse(c.ServiceURL)
	if err != nil {
		return fmt.Errorf("LIVAULISLAM_SERVICE_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("LIVAULISLAM_SERVICE_URL must be an http(s) URL, got %q", c.ServiceURL)
	}
	return nil
}
