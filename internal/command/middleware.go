package command

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/dispatch/internal/reply"
	"github.com/keshon/dispatch/pkg/cmd"
)

// WithGuildOnly rejects invocations outside a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, "guild-only", func(ctx context.Context, inv *cmd.Invocation) error {
			if cc, ok := inv.Data.(*Context); ok && cc.Interaction.GuildID == "" {
				return reply.RespondEphemeral(cc.Session, cc.Interaction, "You must be in a guild to use this command.")
			}
			return c.Run(ctx, inv)
		})
	}
}

// WithLogging logs every invocation with its duration.
func WithLogging(logger *zap.Logger) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, "logging", func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			fields := []zap.Field{
				zap.String("command", c.Name()),
				zap.Duration("took", time.Since(start)),
			}
			if cc, ok := inv.Data.(*Context); ok {
				if u := cc.User(); u != nil {
					fields = append(fields, zap.String("user", u.ID))
				}
				fields = append(fields, zap.String("guild", cc.Interaction.GuildID))
			}
			if err != nil {
				logger.Debug("Command failed", append(fields, zap.Error(err))...)
			} else {
				logger.Debug("Command ran", fields...)
			}
			return err
		})
	}
}
