// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/keshon/dispatch/internal/commandsync"
)

const EnvDevelopment = "development"

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required,notEmpty"`
	GuildID      string `env:"GUILD_ID"`
	// AppEnv "development" publishes commands to GuildID only.
	AppEnv    string `env:"APP_ENV"    envDefault:"production"`
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	HandlerTTL   time.Duration `env:"UI_HANDLER_TTL"   envDefault:"24h"`
	HandlerLimit int           `env:"UI_HANDLER_LIMIT" envDefault:"10000"`

	Manifest     string `env:"COMMANDS_MANIFEST"`
	SyncCommands bool   `env:"SYNC_COMMANDS" envDefault:"true"`
}

// Load reads the dotenv files (".env" when none are given; missing files are
// skipped), overlays the process environment and parses the result.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	environ := make(map[string]string)
	for _, f := range files {
		vars, err := godotenv.Read(f)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vars {
			environ[k] = v
		}
	}
	for k, v := range env.ToMap(os.Environ()) {
		environ[k] = v
	}
	return Parse(environ)
}

// Parse builds a Config from environ and validates it.
func Parse(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Development() bool {
	return strings.EqualFold(c.AppEnv, EnvDevelopment)
}

// Scope is guild scope in development, global otherwise.
func (c *Config) Scope() commandsync.Scope {
	if c.Development() {
		return commandsync.ScopeGuild
	}
	return commandsync.ScopeGlobal
}

func (c *Config) Validate() error {
	if c.Development() && c.GuildID == "" {
		return fmt.Errorf("%w: GUILD_ID is required when APP_ENV=%s", commandsync.ErrConfig, EnvDevelopment)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	if c.HandlerTTL < 0 {
		return fmt.Errorf("UI_HANDLER_TTL must not be negative")
	}
	if c.HandlerLimit < 0 {
		return fmt.Errorf("UI_HANDLER_LIMIT must not be negative")
	}
	return nil
}
