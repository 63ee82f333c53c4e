// Package permission provides dynamic permission checks for commands.
//
// A Handler returns a Decision: Allow, Deny (generic denial message) or
// DenyWith (custom message shown to the user). Handlers compose with All and
// Any.
package permission

import (
	"context"
	"slices"

	"github.com/bwmarrin/discordgo"
)

// DeniedMessage is shown when a Handler denies without a message.
const DeniedMessage = "You do not have permission to execute this command."

// Decision is the outcome of a Handler.
type Decision struct {
	allowed bool
	message string
}

func Allow() Decision { return Decision{allowed: true} }

func Deny() Decision { return Decision{} }

// DenyWith denies and shows msg to the user. An empty msg behaves like Deny.
func DenyWith(msg string) Decision { return Decision{message: msg} }

func (d Decision) Allowed() bool { return d.allowed }

// Message returns the text to show for a denial.
func (d Decision) Message() string {
	if d.allowed {
		return ""
	}
	if d.message == "" {
		return DeniedMessage
	}
	return d.message
}

// Lookup resolves guild entities for name- and category-based checks.
type Lookup interface {
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Request is what a Handler inspects.
type Request struct {
	Interaction *discordgo.Interaction
	Lookup      Lookup
}

// Handler decides whether an interaction may run a command.
type Handler func(ctx context.Context, req *Request) Decision

// All runs handlers in order. The first denial is returned as is.
func All(handlers ...Handler) Handler {
	return func(ctx context.Context, req *Request) Decision {
		for _, h := range handlers {
			if d := h(ctx, req); !d.Allowed() {
				return d
			}
		}
		return Allow()
	}
}

// Any allows as soon as one handler allows. If none does the result is a
// generic Deny.
func Any(handlers ...Handler) Handler {
	return func(ctx context.Context, req *Request) Decision {
		for _, h := range handlers {
			if h(ctx, req).Allowed() {
				return Allow()
			}
		}
		return Deny()
	}
}

// Static allows users listed in users or members holding one of roles.
// Two empty lists allow everyone.
func Static(roles, users []string) Handler {
	if len(roles) == 0 && len(users) == 0 {
		return func(context.Context, *Request) Decision { return Allow() }
	}
	return Any(InUsers(users...), InRoles(roles...))
}

// InUsers allows the listed users in guilds and direct messages.
func InUsers(userIDs ...string) Handler {
	return func(_ context.Context, req *Request) Decision {
		if u := user(req.Interaction); u != nil && slices.Contains(userIDs, u.ID) {
			return Allow()
		}
		return Deny()
	}
}

func user(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
