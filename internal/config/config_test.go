package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keshon/dispatch/internal/commandsync"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(map[string]string{"DISCORD_TOKEN": "t"})
	require.NoError(t, err)

	require.Equal(t, "production", cfg.AppEnv)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "console", cfg.LogFormat)
	require.Equal(t, 24*time.Hour, cfg.HandlerTTL)
	require.Equal(t, 10000, cfg.HandlerLimit)
	require.True(t, cfg.SyncCommands)
	require.Equal(t, commandsync.ScopeGlobal, cfg.Scope())
}

func TestParseRequiresToken(t *testing.T) {
	_, err := Parse(map[string]string{})
	require.Error(t, err)

	_, err = Parse(map[string]string{"DISCORD_TOKEN": ""})
	require.Error(t, err)
}

func TestDevelopmentNeedsGuild(t *testing.T) {
	_, err := Parse(map[string]string{"DISCORD_TOKEN": "t", "APP_ENV": "development"})
	require.ErrorIs(t, err, commandsync.ErrConfig)

	cfg, err := Parse(map[string]string{"DISCORD_TOKEN": "t", "APP_ENV": "Development", "GUILD_ID": "1"})
	require.NoError(t, err)
	require.Equal(t, commandsync.ScopeGuild, cfg.Scope())
}

func TestValidateRejectsBadValues(t *testing.T) {
	for name, environ := range map[string]map[string]string{
		"log format":   {"LOG_FORMAT": "xml"},
		"negative ttl": {"UI_HANDLER_TTL": "-1m"},
		"bad limit":    {"UI_HANDLER_LIMIT": "-1"},
		"bad duration": {"UI_HANDLER_TTL": "soon"},
	} {
		t.Run(name, func(t *testing.T) {
			environ["DISCORD_TOKEN"] = "t"
			_, err := Parse(environ)
			require.Error(t, err)
		})
	}
}

func TestLoadDotenvWithProcessOverride(t *testing.T) {
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load("testdata/dev.env", "testdata/missing.env")
	require.NoError(t, err)
	require.Equal(t, "1234", cfg.GuildID)
	require.True(t, cfg.Development())
	require.Equal(t, "console", cfg.LogFormat, "process environment wins over the file")
}
