package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Portal struct {
		BaseURL  string `yaml:"base_url"`
		School   string `yaml:"school"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		AuthCode string `yaml:"authcode"`
	} `yaml:"portal"`
	Poll struct {
		Interval     time.Duration `yaml:"interval"`
		CoreSubjects []string      `yaml:"core_subjects"`
	} `yaml:"poll"`
	State struct {
		File string `yaml:"file"`
	} `yaml:"state"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Webhook struct {
		URL        string `yaml:"url"`
		MaxRetries int    `yaml:"max_retries"`
	} `yaml:"webhook"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Queue    string `yaml:"queue"`
	} `yaml:"redis"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := []struct {
		key string
		dst *string
	}{
		{"PORTAL_BASE_URL", &c.Portal.BaseURL},
		{"PORTAL_SCHOOL", &c.Portal.School},
		{"PORTAL_USERNAME", &c.Portal.Username},
		{"PORTAL_PASSWORD", &c.Portal.Password},
		{"PORTAL_AUTHCODE", &c.Portal.AuthCode},
		{"STATE_FILE", &c.State.File},
		{"SQLITE_PATH", &c.Database.SQLitePath},
		{"WEBHOOK_URL", &c.Webhook.URL},
		{"REDIS_ADDR", &c.Redis.Addr},
		{"HTTPS_PROXY", &c.Proxy},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FORMAT", &c.Log.Format},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("parse POLL_INTERVAL: %w", err)
		}
		c.Poll.Interval = d
	}
	return nil
}

// parseInterval accepts a Go duration or a bare number of milliseconds.
func parseInterval(v string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

func (c *Config) applyDefaults() {
	if c.Poll.Interval == 0 {
		c.Poll.Interval = 10 * time.Minute
	}
	if c.State.File == "" {
		c.State.File = "data/watermark.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/gradewatch.db"
	}
	if c.Webhook.MaxRetries == 0 {
		c.Webhook.MaxRetries = 3
	}
	if c.Redis.Queue == "" {
		c.Redis.Queue = "gradewatch:events"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is required")
	}
	if c.Portal.School == "" {
		return fmt.Errorf("portal.school is required")
	}
	if c.Portal.Username == "" {
		return fmt.Errorf("portal.username is required")
	}
	if c.Portal.Password == "" {
		return fmt.Errorf("portal.password is required")
	}
	if c.Webhook.MaxRetries < 0 {
		return fmt.Errorf("webhook.max_retries must not be negative")
	}
	return nil
}
