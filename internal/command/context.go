package command

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/dispatch/internal/reply"
)

// MessageFilter inspects a created or edited message. Returning false gets
// the message deleted.
type MessageFilter func(ctx context.Context, m *discordgo.Message) (bool, error)

// UIBuilder builds component trees into wire rows (see ui.Builder).
type UIBuilder interface {
	Build(tree any) ([]discordgo.MessageComponent, error)
	Release(rows []discordgo.MessageComponent) int
}

// Context is what a running command receives.
type Context struct {
	Interaction *discordgo.Interaction
	Session     reply.Session
	Logger      *zap.Logger
	Command     *Command

	ui      UIBuilder
	filters func(...MessageFilter)
}

func NewContext(i *discordgo.Interaction, s reply.Session, logger *zap.Logger, c *Command, ui UIBuilder, filters func(...MessageFilter)) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		Interaction: i,
		Session:     s,
		Logger:      logger,
		Command:     c,
		ui:          ui,
		filters:     filters,
	}
}

// RegisterUI builds tree and registers its handlers. See ui.Builder.Build for
// the accepted shapes.
func (c *Context) RegisterUI(tree any) ([]discordgo.MessageComponent, error) {
	return c.ui.Build(tree)
}

// ReleaseUI drops the handlers of rows once they can no longer be used.
func (c *Context) ReleaseUI(rows []discordgo.MessageComponent) int {
	return c.ui.Release(rows)
}

// RegisterMessageFilters adds process-wide message filters.
func (c *Context) RegisterMessageFilters(filters ...MessageFilter) {
	if c.filters != nil {
		c.filters(filters...)
	}
}

// User returns the invoking user in guilds and DMs.
func (c *Context) User() *discordgo.User {
	if c.Interaction.Member != nil && c.Interaction.Member.User != nil {
		return c.Interaction.Member.User
	}
	return c.Interaction.User
}

func (c *Context) Reply(content string) error {
	return reply.Respond(c.Session, c.Interaction, content)
}

func (c *Context) Ephemeral(content string) error {
	return reply.RespondEphemeral(c.Session, c.Interaction, content)
}

func (c *Context) Embed(e *discordgo.MessageEmbed) error {
	return reply.RespondEmbed(c.Session, c.Interaction, e)
}

// Defer acknowledges the interaction with an ephemeral "thinking" state.
// Answer later with Edit.
func (c *Context) Defer() error {
	return reply.RespondDeferredEphemeral(c.Session, c.Interaction)
}

func (c *Context) Edit(content string) error {
	return reply.EditResponse(c.Session, c.Interaction, content)
}

// ReplyUI builds tree and sends it with content. A tree that fails validation
// is reported to the user ephemerally and the error returned.
func (c *Context) ReplyUI(content string, tree any, ephemeral bool) error {
	rows, err := c.RegisterUI(tree)
	if err != nil {
		if rerr := c.Ephemeral("Could not build the message components:\n" + err.Error()); rerr != nil {
			c.Logger.Warn("Failed to report UI error", zap.Error(rerr))
		}
		return err
	}
	return reply.RespondComponents(c.Session, c.Interaction, content, rows, ephemeral)
}

// Options returns the top-level options by name.
func (c *Context) Options() map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	data, ok := commandData(c.Interaction)
	if !ok {
		return out
	}
	for _, o := range data.Options {
		out[o.Name] = o
	}
	return out
}

// Option returns the top-level option name, or nil.
func (c *Context) Option(name string) *discordgo.ApplicationCommandInteractionDataOption {
	return c.Options()[name]
}

// TargetMessage returns the message a message context menu was used on.
func (c *Context) TargetMessage() *discordgo.Message {
	data, ok := commandData(c.Interaction)
	if !ok || data.Resolved == nil {
		return nil
	}
	return data.Resolved.Messages[data.TargetID]
}

// TargetUser returns the user a user context menu was used on.
func (c *Context) TargetUser() *discordgo.User {
	data, ok := commandData(c.Interaction)
	if !ok || data.Resolved == nil {
		return nil
	}
	return data.Resolved.Users[data.TargetID]
}

// AutocompleteContext is what an AutocompleteFunc receives.
type AutocompleteContext struct {
	Interaction *discordgo.Interaction
	Logger      *zap.Logger
}

// Focused returns the option the user is typing in, or nil.
func (c *AutocompleteContext) Focused() *discordgo.ApplicationCommandInteractionDataOption {
	data, ok := commandData(c.Interaction)
	if !ok {
		return nil
	}
	return focused(data.Options)
}

// commandData guards ApplicationCommandData, which panics on other
// interaction types.
func commandData(i *discordgo.Interaction) (discordgo.ApplicationCommandInteractionData, bool) {
	if i == nil || (i.Type != discordgo.InteractionApplicationCommand && i.Type != discordgo.InteractionApplicationCommandAutocomplete) {
		return discordgo.ApplicationCommandInteractionData{}, false
	}
	data, ok := i.Data.(discordgo.ApplicationCommandInteractionData)
	return data, ok
}

func focused(opts []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	for _, o := range opts {
		if o.Focused {
			return o
		}
		if f := focused(o.Options); f != nil {
			return f
		}
	}
	return nil
}
