package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/keshon/dispatch/internal/commandsync"
	"github.com/keshon/dispatch/pkg/retrylimit"
)

// Remote is the command API of one scope: a guild when GuildID is set,
// the whole application otherwise. Every call is retried through Limiter.
type Remote struct {
	Session Session
	AppID   string
	GuildID string
	Limiter *retrylimit.AdaptiveLimiter
	Retry   retrylimit.Config
}

var _ commandsync.Remote = (*Remote)(nil)

// NewLimiter returns the limiter shared by the remotes of one bot.
func NewLimiter() *retrylimit.AdaptiveLimiter {
	return retrylimit.NewAdaptiveLimiter(rate.Limit(5), rate.Limit(0.5), rate.Limit(20), rate.Limit(0.5), 0.5)
}

func NewRemote(s Session, appID, guildID string, lim *retrylimit.AdaptiveLimiter) *Remote {
	return &Remote{
		Session: s,
		AppID:   appID,
		GuildID: guildID,
		Limiter: lim,
		Retry:   retrylimit.DefaultConfig(),
	}
}

func (r *Remote) Fetch(ctx context.Context) ([]*discordgo.ApplicationCommand, error) {
	var out []*discordgo.ApplicationCommand
	err := r.do(ctx, func() error {
		var err error
		out, err = r.Session.ApplicationCommands(r.AppID, r.GuildID, discordgo.WithContext(ctx))
		return err
	})
	return out, err
}

func (r *Remote) SetAll(ctx context.Context, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	if cmds == nil {
		cmds = []*discordgo.ApplicationCommand{}
	}
	var out []*discordgo.ApplicationCommand
	err := r.do(ctx, func() error {
		var err error
		out, err = r.Session.ApplicationCommandBulkOverwrite(r.AppID, r.GuildID, cmds, discordgo.WithContext(ctx))
		return err
	})
	return out, err
}

// SetPermissions only exists for guild commands.
func (r *Remote) SetPermissions(ctx context.Context, perms []*discordgo.GuildApplicationCommandPermissions) error {
	if r.GuildID == "" {
		return fmt.Errorf("%w: command permissions need a guild", commandsync.ErrConfig)
	}
	return r.do(ctx, func() error {
		return r.Session.ApplicationCommandPermissionsBatchEdit(r.AppID, r.GuildID, perms, discordgo.WithContext(ctx))
	})
}

// Clear removes every command of the scope.
func (r *Remote) Clear(ctx context.Context) error {
	_, err := r.SetAll(ctx, nil)
	return err
}

func (r *Remote) do(ctx context.Context, fn func() error) error {
	return retrylimit.WithRetryConfig(ctx, func() error {
		return classify(fn())
	}, r.Limiter, r.Retry)
}

// restError exposes the HTTP status of a discordgo REST failure to retrylimit.
type restError struct {
	*discordgo.RESTError
}

func (e restError) StatusCode() int { return e.Response.StatusCode }

func (e restError) Unwrap() error { return e.RESTError }

// rateLimited is a 429 discordgo gave up on when it is not retrying itself.
type rateLimited struct {
	*discordgo.RateLimitError
}

func (rateLimited) StatusCode() int { return http.StatusTooManyRequests }

func (e rateLimited) Unwrap() error { return e.RateLimitError }

// classify maps discordgo failures onto retrylimit's classes. A response we
// cannot decode will not decode on the next attempt either.
func classify(err error) error {
	var (
		rest    *discordgo.RESTError
		limited *discordgo.RateLimitError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &rest) && rest.Response != nil:
		return restError{rest}
	case errors.As(err, &limited):
		return rateLimited{limited}
	case errors.Is(err, discordgo.ErrJSONUnmarshal):
		return retrylimit.Fatal(err)
	}
	return err
}
