// Package ui turns declarative component trees into Discord message
// components. Interactive components get a generated custom ID and their
// callback is kept in a Registry until the user clicks or picks.
package ui

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/reply"
)

// Component is one of Button, LinkButton or SelectMenu (or pointers to them).
type Component interface {
	component()
}

// Row is one action row.
type Row []Component

// Button routes clicks back to OnClick.
type Button struct {
	Style    discordgo.ButtonStyle // defaults to PrimaryButton
	Label    string
	Emoji    *discordgo.ComponentEmoji
	Disabled bool
	OnClick  ButtonHandler
}

// LinkButton opens URL on the client. It is never routed back.
type LinkButton struct {
	Label    string
	Emoji    *discordgo.ComponentEmoji
	Disabled bool
	URL      string
}

// SelectMenu is a string select. OnSelect receives the picked values.
type SelectMenu struct {
	Placeholder string
	Options     []SelectOption
	MinValues   *int
	MaxValues   int
	Disabled    bool
	OnSelect    SelectHandler
}

// SelectOption is one entry of a SelectMenu. An empty Value defaults to Label.
type SelectOption struct {
	Label       string
	Value       string
	Description string
	Emoji       *discordgo.ComponentEmoji
	Default     bool
}

func (Button) component()     {}
func (LinkButton) component() {}
func (SelectMenu) component() {}

// Event is passed to component handlers.
type Event struct {
	Interaction *discordgo.Interaction
	Session     reply.Session
}

// User returns whoever triggered the interaction, in guilds or DMs.
func (e *Event) User() *discordgo.User {
	if e.Interaction == nil {
		return nil
	}
	if e.Interaction.Member != nil && e.Interaction.Member.User != nil {
		return e.Interaction.Member.User
	}
	return e.Interaction.User
}

// Update replaces the content (and, when rows is non-nil, the components)
// of the message the component belongs to.
func (e *Event) Update(content string, rows []discordgo.MessageComponent) error {
	return reply.UpdateMessage(e.Session, e.Interaction, content, rows)
}

// Ephemeral answers with a message only the user can see.
func (e *Event) Ephemeral(content string) error {
	return reply.RespondEphemeral(e.Session, e.Interaction, content)
}

// Defer acknowledges the interaction without changing the message.
func (e *Event) Defer() error {
	return reply.DeferUpdate(e.Session, e.Interaction)
}

type (
	ButtonHandler func(ctx context.Context, e *Event) error
	SelectHandler func(ctx context.Context, e *Event, values []string) error
)
