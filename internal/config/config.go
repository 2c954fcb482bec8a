// Package config loads CLI settings from ~/.leadboard/config.yaml,
// ./.leadboard.yaml and LEADBOARD_* environment variables, in that order of
// precedence from lowest to highest.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"leadboard/client"
	"leadboard/domain"
)

type Config struct {
	APIURL    string                 `yaml:"api_url" mapstructure:"api_url"`
	LogLevel  string                 `yaml:"log_level" mapstructure:"log_level"`
	LogFormat string                 `yaml:"log_format" mapstructure:"log_format"`
	Session   SessionConfig          `yaml:"session" mapstructure:"session"`
	Board     BoardConfig            `yaml:"board" mapstructure:"board"`
	Columns   []domain.ColumnBinding `yaml:"columns,omitempty" mapstructure:"columns"`
}

type SessionConfig struct {
	Backend  string        `yaml:"backend" mapstructure:"backend"`
	Path     string        `yaml:"path,omitempty" mapstructure:"path"`
	RedisURL string        `yaml:"redis_url,omitempty" mapstructure:"redis_url"`
	Profile  string        `yaml:"profile" mapstructure:"profile"`
	TTL      time.Duration `yaml:"ttl,omitempty" mapstructure:"ttl"`
}

type BoardConfig struct {
	PositionOrder   bool `yaml:"position_order" mapstructure:"position_order"`
	SerializeWrites bool `yaml:"serialize_writes" mapstructure:"serialize_writes"`
}

func Default() *Config {
	return &Config{
		APIURL:    client.DefaultBaseURL,
		LogLevel:  "info",
		LogFormat: "text",
		Session: SessionConfig{
			Backend: "file",
			Profile: "default",
		},
	}
}

// DefaultPaths lists the config files Load reads when none are given.
func DefaultPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".leadboard", "config.yaml"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".leadboard.yaml"))
	}
	return paths
}

// Load merges the given files (missing ones are skipped) and the environment
// over the defaults.
func Load(paths ...string) (*Config, error) {
	def := Default()
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("api_url", def.APIURL)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("session.backend", def.Session.Backend)
	v.SetDefault("session.path", "")
	v.SetDefault("session.redis_url", "")
	v.SetDefault("session.profile", def.Session.Profile)
	v.SetDefault("session.ttl", "0s")
	v.SetDefault("board.position_order", false)
	v.SetDefault("board.serialize_writes", false)
	v.SetEnvPrefix("LEADBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		v.SetConfigFile(p)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url must not be empty")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	switch c.Session.Backend {
	case "file":
	case "redis":
		if c.Session.RedisURL == "" {
			return fmt.Errorf("session.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("session.backend must be file or redis, got %q", c.Session.Backend)
	}
	if len(c.Columns) > 0 {
		if _, err := domain.NewColumns(c.Columns...); err != nil {
			return err
		}
	}
	return nil
}

// NewLogger builds the logger described by log_level and log_format.
func (c *Config) NewLogger(out io.Writer) *log.Logger {
	logger := log.New()
	logger.SetOutput(out)
	if lvl, err := log.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	}
	return logger
}

// BoardColumns returns the configured column table, or one column per status.
func (c *Config) BoardColumns() (domain.Columns, error) {
	if len(c.Columns) == 0 {
		return domain.DefaultColumns(), nil
	}
	return domain.NewColumns(c.Columns...)
}
