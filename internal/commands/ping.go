package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/command"
)

func Ping() *command.Command {
	return &command.Command{
		Name:        "ping",
		Description: "Pong!",
		Run: func(_ context.Context, c *command.Context) error {
			if err := c.Defer(); err != nil {
				return err
			}
			return c.Edit(pingMessage(c.Interaction.ID, time.Now()))
		},
	}
}

// pingMessage measures from the interaction's snowflake timestamp to now.
// Called after the deferred acknowledgement, it includes that round trip.
func pingMessage(interactionID string, now time.Time) string {
	created, err := discordgo.SnowflakeTimestamp(interactionID)
	if err != nil {
		return "🏓 Pong!"
	}
	return fmt.Sprintf("🏓 Pong! Response time: `%dms`", now.Sub(created).Milliseconds())
}
