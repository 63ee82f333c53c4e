// Package router dispatches inbound interactions to commands, component
// handlers and autocomplete handlers, and runs message filters.
package router

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/permission"
	"github.com/keshon/dispatch/internal/reply"
	"github.com/keshon/dispatch/internal/ui"
	"github.com/keshon/dispatch/pkg/cmd"
)

const (
	NotFoundMessage = "Error finding that command"
	CooldownMessage = "This command is on cooldown. Try again in %s."
	ErrorTitle      = "Command failed"
)

// Session is what the router needs from *discordgo.Session.
type Session interface {
	reply.Session
	permission.Lookup
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// ErrorHandler receives errors and panics from command runs.
type ErrorHandler func(ctx context.Context, s Session, i *discordgo.Interaction, c *command.Command, err error)

// Config wires a Router.
type Config struct {
	Commands *cmd.Registry
	Buttons  *ui.Registry[ui.ButtonHandler]
	Selects  *ui.Registry[ui.SelectHandler]
	Logger   *zap.Logger
	// OnError defaults to logging the error and showing it to the user.
	OnError ErrorHandler
}

// Router routes interactions. It drops interactions until Arm is called.
type Router struct {
	commands  *cmd.Registry
	buttons   *ui.Registry[ui.ButtonHandler]
	selects   *ui.Registry[ui.SelectHandler]
	builder   *ui.Builder
	cooldowns *Cooldowns
	filters   *Filters
	logger    *zap.Logger
	onError   ErrorHandler

	autoMu       sync.RWMutex
	autocomplete map[string]command.AutocompleteFunc

	armed  atomic.Bool
	selfID atomic.Value
}

func New(cfg Config) *Router {
	if cfg.Commands == nil {
		cfg.Commands = cmd.NewRegistry()
	}
	if cfg.Buttons == nil {
		cfg.Buttons = ui.NewRegistry[ui.ButtonHandler](ui.Policy{})
	}
	if cfg.Selects == nil {
		cfg.Selects = ui.NewRegistry[ui.SelectHandler](ui.Policy{})
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := &Router{
		commands:     cfg.Commands,
		buttons:      cfg.Buttons,
		selects:      cfg.Selects,
		builder:      ui.NewBuilder(cfg.Buttons, cfg.Selects),
		cooldowns:    NewCooldowns(),
		filters:      &Filters{},
		logger:       cfg.Logger,
		onError:      cfg.OnError,
		autocomplete: make(map[string]command.AutocompleteFunc),
	}
	if r.onError == nil {
		r.onError = r.reportError
	}
	for _, c := range cfg.Commands.GetAll() {
		if dc, ok := command.From(c); ok && dc.Autocomplete != nil {
			r.RegisterAutocomplete(dc.Name, dc.Autocomplete)
		}
	}
	return r
}

// Arm enables dispatch. Call it once the initial command sync has resolved.
func (r *Router) Arm() { r.armed.Store(true) }

func (r *Router) Armed() bool { return r.armed.Load() }

// SetSelfID records the bot's own user ID so its messages skip the filters.
func (r *Router) SetSelfID(id string) { r.selfID.Store(id) }

func (r *Router) SelfID() string {
	id, _ := r.selfID.Load().(string)
	return id
}

// Builder returns the UI builder bound to the router's handler registries.
func (r *Router) Builder() *ui.Builder { return r.builder }

// RegisterMessageFilters adds process-wide message filters.
func (r *Router) RegisterMessageFilters(filters ...command.MessageFilter) {
	r.filters.Add(filters...)
	r.logger.Debug("Message filters registered", zap.Int("total", r.filters.Len()))
}

// RegisterAutocomplete adds a standalone autocomplete handler for a command name.
func (r *Router) RegisterAutocomplete(name string, fn command.AutocompleteFunc) {
	r.autoMu.Lock()
	r.autocomplete[name] = fn
	r.autoMu.Unlock()
}

// Stop cancels pending cooldown timers.
func (r *Router) Stop() { r.cooldowns.Stop() }

// HandleInteraction classifies i and dispatches it.
func (r *Router) HandleInteraction(ctx context.Context, s Session, i *discordgo.Interaction) {
	if i == nil {
		return
	}
	if !r.Armed() {
		r.logger.Debug("Interaction dropped before commands were synced", zap.String("interaction", i.ID))
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		r.dispatchCommand(ctx, s, i)
	case discordgo.InteractionMessageComponent:
		r.dispatchComponent(ctx, s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		r.dispatchAutocomplete(ctx, s, i)
	default:
		r.logger.Debug("Unhandled interaction", zap.String("type", i.Type.String()), zap.String("interaction", i.ID))
	}
}

func (r *Router) dispatchCommand(ctx context.Context, s Session, i *discordgo.Interaction) {
	name := i.ApplicationCommandData().Name
	log := r.logger.With(zap.String("command", name))

	c, ok := r.commands.Get(name)
	var dc *command.Command
	if ok {
		dc, ok = command.From(c)
	}
	if !ok {
		log.Warn("Unknown command")
		r.ephemeral(s, i, NotFoundMessage)
		return
	}

	req := &permission.Request{Interaction: i, Lookup: s}
	check := permission.Static(dc.AllowedRoles, dc.AllowedUsers)
	if dc.Permission != nil {
		check = permission.All(check, dc.Permission)
	}
	if d := check(ctx, req); !d.Allowed() {
		log.Debug("Permission denied", zap.String("reason", d.Message()))
		r.ephemeral(s, i, d.Message())
		return
	}

	if dc.Cooldown > 0 {
		if remaining, ok := r.cooldowns.TryAcquire(dc.Name, dc.Cooldown); !ok {
			r.ephemeral(s, i, fmt.Sprintf(CooldownMessage, remaining.Round(time.Second)))
			return
		}
	}

	cc := command.NewContext(i, s, log, dc, r.builder, r.RegisterMessageFilters)
	err := safely(func() error {
		return c.Run(ctx, &cmd.Invocation{Data: cc})
	})
	if err != nil {
		r.onError(ctx, s, i, dc, err)
	}
}

// reportError logs err and shows it to the user. A command that already
// answered gets the notice as a followup instead.
func (r *Router) reportError(_ context.Context, s Session, i *discordgo.Interaction, c *command.Command, err error) {
	r.logger.Error("Command failed", append(errorFields(err), zap.String("command", c.Name))...)

	if rerr := reply.RespondEmbedEphemeral(s, i, reply.ErrorEmbed(ErrorTitle, err)); rerr == nil {
		return
	}
	notice := fmt.Sprintf("Something went wrong running %s: %v", c.Name, err)
	if ferr := reply.Followup(s, i, notice, true); ferr != nil {
		r.logger.Warn("Failed to report command error", zap.String("interaction", i.ID), zap.Error(ferr))
	}
}

func (r *Router) dispatchComponent(ctx context.Context, s Session, i *discordgo.Interaction) {
	data := i.MessageComponentData()
	log := r.logger.With(zap.String("custom_id", data.CustomID))
	ev := &ui.Event{Interaction: i, Session: s}

	var err error
	switch data.ComponentType {
	case discordgo.ButtonComponent:
		h, ok := r.buttons.Get(data.CustomID)
		if !ok {
			log.Info("Unregistered custom ID")
			return
		}
		err = safely(func() error { return h(ctx, ev) })
	case discordgo.SelectMenuComponent:
		h, ok := r.selects.Get(data.CustomID)
		if !ok {
			log.Info("Unregistered custom ID")
			return
		}
		err = safely(func() error { return h(ctx, ev, data.Values) })
	default:
		log.Debug("Unhandled component type", zap.Int("component_type", int(data.ComponentType)))
		return
	}
	if err != nil {
		log.Error("Component handler failed", errorFields(err)...)
	}
}

func (r *Router) dispatchAutocomplete(ctx context.Context, s Session, i *discordgo.Interaction) {
	name := i.ApplicationCommandData().Name

	r.autoMu.RLock()
	fn, ok := r.autocomplete[name]
	r.autoMu.RUnlock()
	if !ok {
		return
	}

	log := r.logger.With(zap.String("command", name))
	var choices []*discordgo.ApplicationCommandOptionChoice
	err := safely(func() error {
		var err error
		choices, err = fn(ctx, &command.AutocompleteContext{Interaction: i, Logger: log})
		return err
	})
	if err != nil {
		log.Error("Autocomplete failed", errorFields(err)...)
		return
	}
	if err := reply.Autocomplete(s, i, choices); err != nil {
		log.Warn("Failed to send autocomplete choices", zap.Error(err))
	}
}

func (r *Router) ephemeral(s Session, i *discordgo.Interaction, content string) {
	if err := reply.RespondEphemeral(s, i, content); err != nil {
		r.logger.Warn("Failed to reply", zap.String("interaction", i.ID), zap.Error(err))
	}
}

type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

// safely runs fn and turns a panic into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{value: p, stack: debug.Stack()}
		}
	}()
	return fn()
}

func errorFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}
	var p *panicError
	if errors.As(err, &p) {
		fields = append(fields, zap.ByteString("stack", p.stack))
	}
	return fields
}
