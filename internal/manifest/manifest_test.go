package manifest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/permission"
	"github.com/keshon/dispatch/pkg/cmd"
)

func registry(t *testing.T) (*cmd.Registry, map[string]*command.Command) {
	t.Helper()
	run := func(context.Context, *command.Context) error { return nil }
	cmds := map[string]*command.Command{
		"ping": {Name: "ping", Run: run, AllowedUsers: []string{"keep"}},
		"poll": {Name: "poll", Run: run, Cooldown: time.Second},
	}
	r := cmd.NewRegistry()
	require.NoError(t, command.Register(r, []*command.Command{cmds["ping"], cmds["poll"]}))
	return r, cmds
}

func TestLoadAndApply(t *testing.T) {
	m, err := Load("testdata/access.yaml")
	require.NoError(t, err)

	r, cmds := registry(t)
	require.NoError(t, m.Apply(r))

	require.Equal(t, []string{"111"}, cmds["ping"].AllowedRoles)
	require.Equal(t, []string{"keep"}, cmds["ping"].AllowedUsers)
	require.Equal(t, 5*time.Second, cmds["ping"].Cooldown)

	require.Equal(t, []string{"222", "333"}, cmds["poll"].AllowedUsers)
	require.Equal(t, time.Second, cmds["poll"].Cooldown)
	require.Nil(t, cmds["ping"].Permission)
}

type guild struct{}

func (guild) GuildRoles(string, ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	return []*discordgo.Role{{ID: "r-member", Name: "Member"}}, nil
}

func (guild) GuildChannels(string, ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	return nil, nil
}

func (guild) Channel(id string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	switch id {
	case "dice":
		return &discordgo.Channel{ID: "dice", ParentID: "cat-games"}, nil
	case "cat-games":
		return &discordgo.Channel{ID: "cat-games", Name: "Games", Type: discordgo.ChannelTypeGuildCategory}, nil
	}
	return &discordgo.Channel{ID: id}, nil
}

func in(channel string, roles ...string) *permission.Request {
	return &permission.Request{
		Interaction: &discordgo.Interaction{
			GuildID:   "g",
			ChannelID: channel,
			Member:    &discordgo.Member{User: &discordgo.User{ID: "u1"}, Roles: roles},
		},
		Lookup: guild{},
	}
}

func TestLocationAndRoleChecks(t *testing.T) {
	m, err := Load("testdata/locations.yaml")
	require.NoError(t, err)

	r, cmds := registry(t)
	own := 0
	cmds["poll"].Permission = func(context.Context, *permission.Request) permission.Decision {
		own++
		return permission.Allow()
	}
	require.NoError(t, m.Apply(r))

	ctx := context.Background()
	ping := cmds["ping"].Permission
	require.NotNil(t, ping)
	require.True(t, ping(ctx, in("bots")).Allowed())
	require.Contains(t, ping(ctx, in("general")).Message(), "<#bots>")

	poll := cmds["poll"].Permission
	require.False(t, poll(ctx, in("general", "r-member")).Allowed())
	require.False(t, poll(ctx, in("dice")).Allowed())
	require.Zero(t, own)

	require.True(t, poll(ctx, in("dice", "r-member")).Allowed())
	require.Equal(t, 1, own)
}

func TestUnknownCommandNamesFile(t *testing.T) {
	m, err := Load("testdata/unknown.yaml")
	require.NoError(t, err)

	r, _ := registry(t)
	err = m.Apply(r)
	require.ErrorIs(t, err, ErrUnknownCommand)
	require.Contains(t, err.Error(), "testdata/unknown.yaml")
	require.Contains(t, err.Error(), "ghost")
}

func TestBadDurationNamesFile(t *testing.T) {
	_, err := Load("testdata/bad_duration.yaml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "testdata/bad_duration.yaml")
}

func TestMissingFile(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	require.ErrorContains(t, err, "testdata/nope.yaml")
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("commands:\n  ping:\n    allowed_rolez: [1]\n"))
	require.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	m, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, m.Commands)
	require.NoError(t, m.Apply(cmd.NewRegistry()))
}
