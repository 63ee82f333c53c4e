package permission

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
)

func bulletList(header string, items []string, format string) string {
	var b strings.Builder
	b.WriteString(header)
	for _, it := range items {
		b.WriteString("\n- ")
		b.WriteString(fmt.Sprintf(format, it))
	}
	return b.String()
}

func roleDenial(header string, roleIDs []string) Decision {
	return DenyWith(bulletList(header, roleIDs, "<@&%s>"))
}

// InRoles allows members holding at least one of roleIDs.
func InRoles(roleIDs ...string) Handler {
	return func(_ context.Context, req *Request) Decision {
		m := req.Interaction.Member
		if m == nil {
			return Deny()
		}
		for _, r := range m.Roles {
			if slices.Contains(roleIDs, r) {
				return Allow()
			}
		}
		return roleDenial("You must have one of the following roles to run this command:", roleIDs)
	}
}

// AllRoles allows members holding every one of roleIDs.
func AllRoles(roleIDs ...string) Handler {
	return func(_ context.Context, req *Request) Decision {
		m := req.Interaction.Member
		if m == nil {
			return Deny()
		}
		for _, id := range roleIDs {
			if !slices.Contains(m.Roles, id) {
				return roleDenial("You must have the following roles to run this command:", roleIDs)
			}
		}
		return Allow()
	}
}

// resolveRoles maps role names to IDs within the interaction's guild.
func resolveRoles(ctx context.Context, req *Request, names []string) (map[string]string, error) {
	if req.Lookup == nil || req.Interaction.GuildID == "" {
		return nil, fmt.Errorf("no guild to resolve roles in")
	}
	roles, err := req.Lookup.GuildRoles(req.Interaction.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(names))
	for _, r := range roles {
		if slices.Contains(names, r.Name) {
			ids[r.Name] = r.ID
		}
	}
	return ids, nil
}

func namedRoleIDs(names []string, ids map[string]string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if id, ok := ids[n]; ok {
			out = append(out, id)
		}
	}
	return out
}

// InRoleNames is InRoles with role names resolved in the current guild.
func InRoleNames(names ...string) Handler {
	return func(ctx context.Context, req *Request) Decision {
		if req.Interaction.Member == nil {
			return Deny()
		}
		ids, err := resolveRoles(ctx, req, names)
		if err != nil {
			return Deny()
		}
		return InRoles(namedRoleIDs(names, ids)...)(ctx, req)
	}
}

// AllRoleNames is AllRoles with role names resolved in the current guild.
// An unknown name denies.
func AllRoleNames(names ...string) Handler {
	return func(ctx context.Context, req *Request) Decision {
		if req.Interaction.Member == nil {
			return Deny()
		}
		ids, err := resolveRoles(ctx, req, names)
		if err != nil {
			return Deny()
		}
		resolved := namedRoleIDs(names, ids)
		if len(resolved) != len(names) {
			return roleDenial("You must have the following roles to run this command:", resolved)
		}
		return AllRoles(resolved...)(ctx, req)
	}
}

func channelDenial(channelIDs []string) Decision {
	return DenyWith(bulletList("Please use this command in an allowed channel:", channelIDs, "<#%s>"))
}

// InChannels allows interactions from one of channelIDs.
func InChannels(channelIDs ...string) Handler {
	return func(_ context.Context, req *Request) Decision {
		if slices.Contains(channelIDs, req.Interaction.ChannelID) {
			return Allow()
		}
		return channelDenial(channelIDs)
	}
}

// InChannelNames allows interactions from channels with one of names.
func InChannelNames(names ...string) Handler {
	return func(ctx context.Context, req *Request) Decision {
		if req.Lookup == nil || req.Interaction.GuildID == "" {
			return Deny()
		}
		channels, err := req.Lookup.GuildChannels(req.Interaction.GuildID, discordgo.WithContext(ctx))
		if err != nil {
			return Deny()
		}
		var ids []string
		for _, c := range channels {
			if slices.Contains(names, c.Name) {
				ids = append(ids, c.ID)
			}
		}
		if slices.Contains(ids, req.Interaction.ChannelID) {
			return Allow()
		}
		return channelDenial(ids)
	}
}

func parent(ctx context.Context, req *Request) (*discordgo.Channel, bool) {
	if req.Lookup == nil {
		return nil, false
	}
	ch, err := req.Lookup.Channel(req.Interaction.ChannelID, discordgo.WithContext(ctx))
	if err != nil || ch.ParentID == "" {
		return nil, false
	}
	p, err := req.Lookup.Channel(ch.ParentID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, false
	}
	return p, true
}

// InCategories allows interactions from channels under one of categoryIDs.
func InCategories(categoryIDs ...string) Handler {
	return func(ctx context.Context, req *Request) Decision {
		p, ok := parent(ctx, req)
		if !ok {
			return Deny()
		}
		if slices.Contains(categoryIDs, p.ID) {
			return Allow()
		}
		return DenyWith("This command is not allowed in this category")
	}
}

// InCategoryNames allows interactions from channels under a category named
// one of names.
func InCategoryNames(names ...string) Handler {
	return func(ctx context.Context, req *Request) Decision {
		p, ok := parent(ctx, req)
		if !ok {
			return Deny()
		}
		if slices.Contains(names, p.Name) {
			return Allow()
		}
		return DenyWith(bulletList("Please use the command in the following categories:", names, "%s"))
	}
}

func missing(have int64, flags []int64) []int64 {
	var out []int64
	for _, f := range flags {
		if have&f != f {
			out = append(out, f)
		}
	}
	return out
}

// HasUserFlags allows members holding every flag in the channel.
// Administrators always pass.
func HasUserFlags(flags ...int64) Handler {
	return func(_ context.Context, req *Request) Decision {
		m := req.Interaction.Member
		if m == nil {
			return Deny()
		}
		if m.Permissions&discordgo.PermissionAdministrator != 0 {
			return Allow()
		}
		if lack := missing(m.Permissions, flags); len(lack) > 0 {
			return DenyWith(bulletList("You are missing the following permissions:", Names(lack...), "%s"))
		}
		return Allow()
	}
}

// HasClientFlags allows the command only if the bot holds every flag in the
// channel.
func HasClientFlags(flags ...int64) Handler {
	return func(_ context.Context, req *Request) Decision {
		have := req.Interaction.AppPermissions
		if have&discordgo.PermissionAdministrator != 0 {
			return Allow()
		}
		if lack := missing(have, flags); len(lack) > 0 {
			return DenyWith(bulletList("I am missing the following permissions:", Names(lack...), "%s"))
		}
		return Allow()
	}
}
