// Package config loads server and client settings.
//
// Values come from, in increasing priority: built-in defaults, an optional YAML
// file, a .env file in the working directory and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/AbdoViper23/halaqa-Save/pkg/logging"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port      int           `yaml:"port"`
		DBPath    string        `yaml:"db_path"`
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
		CycleCron string        `yaml:"cycle_cron"`
	} `yaml:"server"`
	Advisor struct {
		Provider     string `yaml:"provider"`
		GeminiAPIKey string `yaml:"gemini_api_key"`
		GeminiModel  string `yaml:"gemini_model"`
		OpenAIAPIKey string `yaml:"openai_api_key"`
		OpenAIModel  string `yaml:"openai_model"`
		OpenAIURL    string `yaml:"openai_base_url"`
		PerMinute    int    `yaml:"per_minute"`
	} `yaml:"advisor"`
	Client struct {
		LedgerURL   string `yaml:"ledger_url"`
		LedgerToken string `yaml:"ledger_token"`
	} `yaml:"client"`
	LogLevel string `yaml:"log_level"`
}

// Load reads the YAML file at path, if any, then applies .env and environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	// godotenv does not override variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.DBPath, "DB_PATH")
	setString(&c.Server.JWTSecret, "JWT_SECRET")
	setString(&c.Server.CycleCron, "CYCLE_CRON")
	setString(&c.Advisor.Provider, "ADVISOR_PROVIDER")
	setString(&c.Advisor.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.Advisor.GeminiModel, "GEMINI_MODEL")
	setString(&c.Advisor.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.Advisor.OpenAIModel, "OPENAI_MODEL")
	setString(&c.Advisor.OpenAIURL, "OPENAI_BASE_URL")
	setString(&c.Client.LedgerURL, "LEDGER_URL")
	setString(&c.Client.LedgerToken, "LEDGER_TOKEN")
	setString(&c.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		c.Server.TokenTTL = ttl
	}
	if v := os.Getenv("ADVISOR_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ADVISOR_RATE: %w", err)
		}
		c.Advisor.PerMinute = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.DBPath == "" {
		c.Server.DBPath = "./data/halaqa.db"
	}
	if c.Server.TokenTTL == 0 {
		c.Server.TokenTTL = 24 * time.Hour
	}
	if c.Server.CycleCron == "" {
		c.Server.CycleCron = "0 0 1 * *"
	}
	if c.Advisor.PerMinute == 0 {
		c.Advisor.PerMinute = 10
	}
	if c.Client.LedgerURL == "" {
		c.Client.LedgerURL = "http://localhost:8080"
	}
	c.Advisor.Provider = strings.ToLower(c.Advisor.Provider)
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the settings the server needs to start.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Server.Port))
	}
	if c.Server.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if c.Server.TokenTTL < 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if _, err := cron.ParseStandard(c.Server.CycleCron); err != nil {
		errs = append(errs, fmt.Errorf("invalid CYCLE_CRON: %w", err))
	}
	switch c.Advisor.Provider {
	case "":
	case "gemini":
		if c.Advisor.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is not set"))
		}
	case "openai":
		if c.Advisor.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ADVISOR_PROVIDER %q", c.Advisor.Provider))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	level, ok := logging.ParseLevel(c.LogLevel)
	if !ok {
		return level, fmt.Errorf("unknown LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
