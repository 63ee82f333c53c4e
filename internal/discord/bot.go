package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/commandsync"
	"github.com/keshon/dispatch/internal/config"
	"github.com/keshon/dispatch/internal/logging"
	"github.com/keshon/dispatch/internal/router"
	"github.com/keshon/dispatch/internal/ui"
	"github.com/keshon/dispatch/pkg/cmd"
	"github.com/keshon/dispatch/pkg/jobmgr"
	"github.com/keshon/dispatch/pkg/retrylimit"
)

// ErrNotReady is returned when the bot is used before Open resolved the
// application.
var ErrNotReady = errors.New("discord client not ready")

// SweepInterval is how often expired UI handlers are dropped.
const SweepInterval = time.Minute

const sweeperJob = "ui-sweeper"

// Bot owns the session, the router and the background jobs.
type Bot struct {
	cfg      *config.Config
	session  Session
	commands *cmd.Registry
	router   *router.Router
	buttons  *ui.Registry[ui.ButtonHandler]
	selects  *ui.Registry[ui.SelectHandler]
	jobs     *jobmgr.Manager
	limiter  *retrylimit.AdaptiveLimiter
	logger   *zap.Logger

	retry retrylimit.Config

	mu     sync.RWMutex
	appID  string
	remove []func()
}

// New builds a bot around s. commands must already hold every command.
func New(cfg *config.Config, s Session, commands *cmd.Registry, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := ui.Policy{TTL: cfg.HandlerTTL, MaxEntries: cfg.HandlerLimit}
	buttons := ui.NewRegistry[ui.ButtonHandler](policy)
	selects := ui.NewRegistry[ui.SelectHandler](policy)

	b := &Bot{
		cfg:      cfg,
		session:  s,
		commands: commands,
		buttons:  buttons,
		selects:  selects,
		jobs:     jobmgr.NewManager(logging.Reporter(logger.Named("jobs"), "Job status")),
		limiter:  NewLimiter(),
		logger:   logger,
		retry:    retrylimit.DefaultConfig(),
	}
	b.router = router.New(router.Config{
		Commands: commands,
		Buttons:  buttons,
		Selects:  selects,
		Logger:   logger.Named("router"),
	})
	return b
}

func (b *Bot) Router() *router.Router { return b.router }

// AppID returns the resolved application ID or ErrNotReady.
func (b *Bot) AppID() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.appID == "" {
		return "", ErrNotReady
	}
	return b.appID, nil
}

// Open registers the event handlers, connects and resolves the application
// and the configured guild.
func (b *Bot) Open(ctx context.Context) error {
	b.mu.Lock()
	b.remove = append(b.remove,
		b.session.AddHandler(b.onReady),
		b.session.AddHandler(b.interactionHandler(ctx)),
		b.session.AddHandler(b.messageCreateHandler(ctx)),
		b.session.AddHandler(b.messageUpdateHandler(ctx)),
	)
	b.mu.Unlock()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	u, err := b.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: fetch bot user: %w", ErrNotReady, err)
	}
	b.mu.Lock()
	b.appID = u.ID
	b.mu.Unlock()
	b.router.SetSelfID(u.ID)

	if err := b.resolveGuild(ctx); err != nil {
		return err
	}
	b.logger.Info("Connected to Discord", zap.String("user", u.Username), zap.String("app", u.ID))
	return nil
}

// Close removes the handlers and disconnects.
func (b *Bot) Close() error {
	b.mu.Lock()
	remove := b.remove
	b.remove = nil
	b.mu.Unlock()
	for _, fn := range remove {
		if fn != nil {
			fn()
		}
	}
	return b.session.Close()
}

// resolveGuild checks that the configured guild exists and is reachable.
// Guild scope cannot work without one.
func (b *Bot) resolveGuild(ctx context.Context) error {
	if b.cfg.GuildID == "" {
		if b.cfg.Scope() == commandsync.ScopeGuild {
			return fmt.Errorf("%w: no guild configured", commandsync.ErrConfig)
		}
		return nil
	}
	g, err := b.session.Guild(b.cfg.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: resolve guild %s: %w", commandsync.ErrConfig, b.cfg.GuildID, err)
	}
	b.logger.Debug("Resolved guild", zap.String("guild", g.ID), zap.String("name", g.Name))
	return nil
}

// Syncer returns a syncer for the configured scope.
func (b *Bot) Syncer() (*commandsync.Syncer, error) {
	appID, err := b.AppID()
	if err != nil {
		return nil, err
	}

	pub := &commandsync.Publisher{Scope: b.cfg.Scope()}
	var guild *Remote
	if b.cfg.GuildID != "" {
		guild = b.remote(appID, b.cfg.GuildID)
		pub.Guild = guild
	}
	switch pub.Scope {
	case commandsync.ScopeGuild:
		if guild == nil {
			return nil, fmt.Errorf("%w: no guild configured", commandsync.ErrConfig)
		}
		pub.Remote = guild
	default:
		pub.Remote = b.remote(appID, "")
	}
	return &commandsync.Syncer{Publisher: pub, Logger: b.logger.Named("sync")}, nil
}

func (b *Bot) remote(appID, guildID string) *Remote {
	r := NewRemote(b.session, appID, guildID, b.limiter)
	r.Retry = b.retry
	r.Retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		b.logger.Warn("Retrying command API call",
			zap.String("guild", guildID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Float64("rate", b.limiter.CurrentLimit()),
			zap.Error(err))
	}
	return r
}

// Sync publishes the registered commands when they differ from the remote set.
func (b *Bot) Sync(ctx context.Context) (commandsync.Result, error) {
	s, err := b.Syncer()
	if err != nil {
		return commandsync.Result{}, err
	}
	return s.Sync(ctx, command.Entries(b.commands))
}

// SyncPermissions re-pushes the static grants of the registered commands to
// the already published guild commands.
func (b *Bot) SyncPermissions(ctx context.Context) (int, error) {
	s, err := b.Syncer()
	if err != nil {
		return 0, err
	}
	n, err := s.Publisher.PublishGrants(ctx, command.Entries(b.commands))
	if err != nil {
		return 0, err
	}
	b.logger.Info("Pushed command permissions", zap.Int("commands", n))
	return n, nil
}

// Plan compares the registered commands with the remote set without publishing.
func (b *Bot) Plan(ctx context.Context) (commandsync.Result, error) {
	s, err := b.Syncer()
	if err != nil {
		return commandsync.Result{}, err
	}
	return s.Plan(ctx, command.Entries(b.commands))
}

// Run opens the session, syncs commands, arms the router and blocks until ctx
// is done. Configuration errors are returned; other sync failures are logged
// and the bot keeps running with whatever is published.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Open(ctx); err != nil {
		if cerr := b.Close(); cerr != nil {
			b.logger.Debug("Close after failed open", zap.Error(cerr))
		}
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			b.logger.Warn("Failed to close Discord session", zap.Error(err))
		}
	}()

	if b.cfg.SyncCommands {
		if _, err := b.Sync(ctx); err != nil {
			if errors.Is(err, commandsync.ErrConfig) || errors.Is(err, ErrNotReady) {
				return err
			}
			b.logger.Error("Failed to sync commands", zap.Error(err))
		}
	} else {
		b.logger.Info("Command sync disabled")
	}
	b.router.Arm()

	// Jobs outlive ctx until StopAll so shutdown sees them.
	if b.cfg.HandlerTTL > 0 {
		if err := b.jobs.Every(context.WithoutCancel(ctx), sweeperJob, SweepInterval, b.sweep); err != nil {
			return err
		}
	}

	b.logger.Info("Bot is running", zap.Int("commands", b.commands.Len()), zap.String("scope", b.cfg.Scope().String()))
	<-ctx.Done()
	b.logger.Info("Shutdown signal received, cleaning up...", zap.String("jobs", b.jobs.Status()))

	b.jobs.StopAll()
	b.router.Stop()
	return nil
}

func (b *Bot) sweep(context.Context) error {
	n := b.buttons.Sweep() + b.selects.Sweep()
	if n > 0 {
		b.logger.Debug("Swept expired UI handlers",
			zap.Int("removed", n),
			zap.Int("buttons", b.buttons.Len()),
			zap.Int("selects", b.selects.Len()))
	}
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User != nil {
		b.router.SetSelfID(r.User.ID)
	}
	b.logger.Debug("Gateway ready", zap.Int("guilds", len(r.Guilds)))
}

func (b *Bot) interactionHandler(ctx context.Context) func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		if i == nil {
			return
		}
		b.router.HandleInteraction(ctx, b.session, i.Interaction)
	}
}

func (b *Bot) messageCreateHandler(ctx context.Context) func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m == nil {
			return
		}
		b.router.HandleMessage(ctx, b.session, m.Message)
	}
}

func (b *Bot) messageUpdateHandler(ctx context.Context) func(*discordgo.Session, *discordgo.MessageUpdate) {
	return func(_ *discordgo.Session, m *discordgo.MessageUpdate) {
		if m == nil {
			return
		}
		b.router.HandleMessage(ctx, b.session, m.Message)
	}
}
