// Package config loads knolquiz settings from flags, environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix         = "KNOLQUIZ_"
	DefaultConfigFile = "knolquiz.yaml"
	DefaultDBPath     = "knolquiz.db"
	DefaultReposDir   = "repos"
	DefaultLogLevel   = "info"
)

// Config holds the resolved settings.
type Config struct {
	ConfigFile string `koanf:"config"`
	DB         string `koanf:"db" validate:"required"`
	ReposDir   string `koanf:"repos-dir" validate:"required"`
	LogLevel   string `koanf:"log-level" validate:"oneof=debug info warn error"`
	Mode       string `koanf:"mode" validate:"omitempty,oneof=preview learn review difficult"`
	Source     string `koanf:"source"`
	IgnoreCase bool   `koanf:"ignore-case"`
}

// RegisterFlags adds the global flags to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", DefaultConfigFile, "path to the YAML config file")
	flags.String("db", DefaultDBPath, "path to the SQLite database file")
	flags.String("repos-dir", DefaultReposDir, "directory for git deck checkouts")
	flags.String("log-level", DefaultLogLevel, "log level: debug, info, warn or error")
}

// Load resolves configuration with increasing precedence: flag defaults,
// the YAML file, KNOLQUIZ_* environment variables, explicitly set flags.
// A missing config file is not an error.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path := DefaultConfigFile
	if f := flags.Lookup("config"); f != nil {
		path = f.Value.String()
	}
	if v, ok := os.LookupEnv(EnvPrefix + "CONFIG"); ok && !flags.Changed("config") {
		path = v
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Unchanged flags only fill keys nothing else has set.
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Mode = strings.ToLower(cfg.Mode)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps KNOLQUIZ_REPOS_DIR to repos-dir.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
}

// Validate checks cfg and reports every failing field.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Level converts the configured log level for slog.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
