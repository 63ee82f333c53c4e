package commandsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ErrConfig marks configuration problems (missing guild, unresolvable
// application) that must stop start-up instead of being retried.
var ErrConfig = errors.New("command sync configuration")

// Scope selects where commands are published.
type Scope int

const (
	// ScopeGuild publishes to a single guild; updates are instant and
	// per-command grants are supported.
	ScopeGuild Scope = iota
	// ScopeGlobal publishes application-wide.
	ScopeGlobal
)

func (s Scope) String() string {
	if s == ScopeGlobal {
		return "global"
	}
	return "guild"
}

// Remote is the command API of one scope (a guild or the whole application).
type Remote interface {
	Fetch(ctx context.Context) ([]*discordgo.ApplicationCommand, error)
	// SetAll replaces the entire remote set and returns it with platform IDs.
	SetAll(ctx context.Context, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error)
	SetPermissions(ctx context.Context, perms []*discordgo.GuildApplicationCommandPermissions) error
	Clear(ctx context.Context) error
}

// Entry is a local command plus its static access lists.
type Entry struct {
	Descriptor   Descriptor
	AllowedRoles []string
	AllowedUsers []string
}

// GranteeKind tells whether a grant targets a role or a user.
type GranteeKind int

const (
	GranteeRole GranteeKind = iota
	GranteeUser
)

// Grant allows one role or user to use one published command.
type Grant struct {
	CommandID string
	Kind      GranteeKind
	GranteeID string
	Allow     bool
}

// Publisher pushes the local command set to Discord.
type Publisher struct {
	Scope Scope
	// Remote is the target scope.
	Remote Remote
	// Guild is the configured guild. In global scope its own command set is
	// cleared before publishing so no guild-level duplicates remain.
	Guild Remote
}

// Publish replaces the remote set with entries in one call and, in guild
// scope, pushes the derived grants as one batch.
func (p *Publisher) Publish(ctx context.Context, entries []Entry) error {
	if p.Remote == nil {
		return fmt.Errorf("%w: no %s command target", ErrConfig, p.Scope)
	}
	cmds := make([]*discordgo.ApplicationCommand, 0, len(entries))
	for _, e := range entries {
		cmds = append(cmds, e.Descriptor.ApplicationCommand())
	}

	if p.Scope == ScopeGlobal && p.Guild != nil {
		if err := p.Guild.Clear(ctx); err != nil {
			return fmt.Errorf("clear guild commands: %w", err)
		}
	}

	published, err := p.Remote.SetAll(ctx, cmds)
	if err != nil {
		return fmt.Errorf("publish %d %s commands: %w", len(cmds), p.Scope, err)
	}

	if p.Scope != ScopeGuild {
		return nil
	}
	_, err = p.pushGrants(ctx, published, entries)
	return err
}

// PublishGrants pushes the grants of entries against the commands already
// published in the guild, leaving the command set untouched. It returns the
// number of commands that received grants.
func (p *Publisher) PublishGrants(ctx context.Context, entries []Entry) (int, error) {
	if p.Scope != ScopeGuild || p.Remote == nil {
		return 0, fmt.Errorf("%w: grants need a guild command target", ErrConfig)
	}
	published, err := p.Remote.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch remote commands: %w", err)
	}
	return p.pushGrants(ctx, published, entries)
}

func (p *Publisher) pushGrants(ctx context.Context, published []*discordgo.ApplicationCommand, entries []Entry) (int, error) {
	batch := PermissionBatch(Grants(published, entries))
	if len(batch) == 0 {
		return 0, nil
	}
	if err := p.Remote.SetPermissions(ctx, batch); err != nil {
		return 0, fmt.Errorf("publish command permissions: %w", err)
	}
	return len(batch), nil
}

// Grants derives the grants for every published command from the matching
// entry's AllowedRoles and AllowedUsers, roles first.
func Grants(published []*discordgo.ApplicationCommand, entries []Entry) []Grant {
	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byName[e.Descriptor.Name] = e
	}

	var grants []Grant
	for _, ac := range published {
		if ac == nil {
			continue
		}
		e, ok := byName[ac.Name]
		if !ok {
			continue
		}
		for _, role := range e.AllowedRoles {
			grants = append(grants, Grant{CommandID: ac.ID, Kind: GranteeRole, GranteeID: role, Allow: true})
		}
		for _, user := range e.AllowedUsers {
			grants = append(grants, Grant{CommandID: ac.ID, Kind: GranteeUser, GranteeID: user, Allow: true})
		}
	}
	return grants
}

// PermissionBatch groups grants per command, preserving first-seen order.
func PermissionBatch(grants []Grant) []*discordgo.GuildApplicationCommandPermissions {
	var out []*discordgo.GuildApplicationCommandPermissions
	index := make(map[string]int)
	for _, g := range grants {
		i, ok := index[g.CommandID]
		if !ok {
			i = len(out)
			index[g.CommandID] = i
			out = append(out, &discordgo.GuildApplicationCommandPermissions{ID: g.CommandID})
		}
		kind := discordgo.ApplicationCommandPermissionTypeRole
		if g.Kind == GranteeUser {
			kind = discordgo.ApplicationCommandPermissionTypeUser
		}
		out[i].Permissions = append(out[i].Permissions, &discordgo.ApplicationCommandPermissions{
			ID:         g.GranteeID,
			Type:       kind,
			Permission: g.Allow,
		})
	}
	return out
}
