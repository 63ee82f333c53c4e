package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/keshon/dispatch/internal/commands"
	"github.com/keshon/dispatch/internal/config"
	"github.com/keshon/dispatch/internal/discord"
	"github.com/keshon/dispatch/internal/logging"
	"github.com/keshon/dispatch/internal/manifest"
	"github.com/keshon/dispatch/pkg/cmd"
)

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	bot    *discord.Bot
}

// setup loads configuration and builds the bot without connecting.
func setup() (*app, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	registry := cmd.NewRegistry()
	if err := commands.Register(registry, logger.Named("commands")); err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}
	if cfg.Manifest != "" {
		m, err := manifest.Load(cfg.Manifest)
		if err != nil {
			return nil, err
		}
		if err := m.Apply(registry); err != nil {
			return nil, err
		}
		logger.Info("Applied command manifest", zap.String("path", cfg.Manifest), zap.Int("commands", len(m.Commands)))
	}

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	bot := discord.New(cfg, session, registry, logger)
	commands.RegisterAutocomplete(bot.Router())
	return &app{cfg: cfg, logger: logger, bot: bot}, nil
}

func runBot(c *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("Starting bot...", zap.String("env", a.cfg.AppEnv), zap.String("scope", a.cfg.Scope().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.bot.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.logger.Info("Received shutdown signal")
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Bot stopped", zap.Error(err))
		return err
	}
	a.logger.Info("Bot exited cleanly")
	return nil
}
