// Package discord wires the command router and the command synchronizer to a
// discordgo session.
package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/router"
)

// Session is the subset of *discordgo.Session the bot uses.
type Session interface {
	router.Session

	Open() error
	Close() error
	AddHandler(handler any) func()

	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)

	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandPermissionsBatchEdit(appID, guildID string, permissions []*discordgo.GuildApplicationCommandPermissions, options ...discordgo.RequestOption) error
}

var _ Session = (*discordgo.Session)(nil)

// Intents needed for slash commands and message filters.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// NewSession creates a bot session for token with Intents set.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = Intents
	return dg, nil
}
