package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/commandsync"
	"github.com/keshon/dispatch/internal/permission"
)

// ModeratorRole may set filters without holding Manage Messages.
const ModeratorRole = "Moderator"

// Filter deletes new or edited messages in the guild that contain a word.
// Filters live until the process exits.
func Filter() *command.Command {
	return &command.Command{
		Name:        "filter",
		Description: "Delete messages containing a word.",
		Options: []commandsync.Option{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "word",
			Description: "Word to filter",
			Required:    true,
		}},
		Permission: permission.All(
			permission.Any(
				permission.HasUserFlags(discordgo.PermissionManageMessages),
				permission.InRoleNames(ModeratorRole),
			),
			permission.HasClientFlags(discordgo.PermissionManageMessages),
		),
		Run: runFilter,
	}
}

func runFilter(_ context.Context, c *command.Context) error {
	var word string
	if o := c.Option("word"); o != nil {
		word = strings.ToLower(strings.TrimSpace(o.StringValue()))
	}
	if word == "" {
		return c.Ephemeral("Give me a word to filter.")
	}

	c.RegisterMessageFilters(wordFilter(c.Interaction.GuildID, word))
	return c.Ephemeral(fmt.Sprintf("Messages containing %q will be deleted.", word))
}

func wordFilter(guildID, word string) command.MessageFilter {
	return func(_ context.Context, m *discordgo.Message) (bool, error) {
		if m.GuildID != guildID {
			return true, nil
		}
		return !strings.Contains(strings.ToLower(m.Content), word), nil
	}
}
