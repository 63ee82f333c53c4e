package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/reply"
)

// Quote reposts a message as a block quote.
func Quote() *command.Command {
	return &command.Command{
		Name: "Quote",
		Kind: discordgo.MessageApplicationCommand,
		Run: func(_ context.Context, c *command.Context) error {
			m := c.TargetMessage()
			if m == nil {
				return c.Ephemeral("Could not find that message.")
			}
			return c.Reply(quote(m))
		},
	}
}

func quote(m *discordgo.Message) string {
	text := strings.TrimSpace(m.Content)
	if text == "" {
		text = "(no text)"
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.Author != nil {
		fmt.Fprintf(&b, "<@%s>", m.Author.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func UserInfo() *command.Command {
	return &command.Command{
		Name: "User Info",
		Kind: discordgo.UserApplicationCommand,
		Run: func(_ context.Context, c *command.Context) error {
			u := c.TargetUser()
			if u == nil {
				return c.Ephemeral("Could not find that user.")
			}
			return c.Embed(userEmbed(u))
		},
	}
}

func userEmbed(u *discordgo.User) *discordgo.MessageEmbed {
	e := embed.NewEmbed().
		SetColor(reply.EmbedColor).
		SetTitle(u.Username).
		AddField("ID", u.ID)
	if created, err := discordgo.SnowflakeTimestamp(u.ID); err == nil {
		e = e.AddField("Created", fmt.Sprintf("<t:%d:R>", created.Unix()))
	}
	if u.Bot {
		e = e.AddField("Bot", "yes")
	}
	if url := u.AvatarURL("128"); url != "" {
		e = e.SetThumbnail(url)
	}
	return e.MessageEmbed
}
