package commandsync

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sampleDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "ping", Description: "Pong!"},
		{Name: "poll", Description: "Start a poll", Options: []Option{}},
		{
			Kind:        discordgo.ChatApplicationCommand,
			Name:        "roll",
			Description: "Roll dice",
			Options: []Option{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "sides", Description: "Sides", Choices: []Choice{{Name: "d6", Value: 6}, {Name: "d20", Value: int64(20)}}},
				{Type: discordgo.ApplicationCommandOptionString, Name: "label", Description: "Label", Choices: []Choice{}},
			},
		},
		{
			Name:        "config",
			Description: "Configure",
			Options: []Option{
				{
					Type: discordgo.ApplicationCommandOptionSubCommandGroup, Name: "channel", Description: "Channels",
					Options: []Option{
						{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set", Description: "Set", Options: []Option{}},
					},
				},
			},
		},
		{Kind: discordgo.UserApplicationCommand, Name: "Inspect", Description: "ignored", Options: []Option{{Name: "x"}}},
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, d := range sampleDescriptors() {
		once := Normalize(d)
		require.True(t, cmp.Equal(once, Normalize(once)), "descriptor %s", d.Name)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	ds := sampleDescriptors()

	ping := Normalize(ds[0])
	require.Equal(t, discordgo.ChatApplicationCommand, ping.Kind)
	require.Nil(t, ping.Options)

	require.Nil(t, Normalize(ds[1]).Options, "empty options normalize to absent")

	roll := Normalize(ds[2])
	require.Equal(t, []Choice{{Name: "d6", Value: float64(6)}, {Name: "d20", Value: float64(20)}}, roll.Options[0].Choices)
	require.Nil(t, roll.Options[1].Choices, "empty choices normalize to absent")
	require.False(t, roll.Options[0].Required)

	config := Normalize(ds[3])
	require.Nil(t, config.Options[0].Options[0].Options)
}

func TestNormalizeContextMenuKeepsKindAndName(t *testing.T) {
	got := Normalize(sampleDescriptors()[4])
	require.Equal(t, Descriptor{Kind: discordgo.UserApplicationCommand, Name: "Inspect"}, got)
}

func TestApplicationCommandRoundTrip(t *testing.T) {
	for _, d := range sampleDescriptors() {
		wire := d.ApplicationCommand()
		back := FromApplicationCommand(wire)
		require.True(t, cmp.Equal(Normalize(d), Normalize(back)), cmp.Diff(Normalize(d), Normalize(back)))
	}
}

func TestFromApplicationCommandMatchesDecodedRemote(t *testing.T) {
	// Values decoded from the API arrive as float64 and absent slices as nil.
	remote := &discordgo.ApplicationCommand{
		ID:            "1",
		ApplicationID: "app",
		Version:       "7",
		Type:          discordgo.ChatApplicationCommand,
		Name:          "roll",
		Description:   "Roll dice",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "sides", Description: "Sides", Choices: []*discordgo.ApplicationCommandOptionChoice{{Name: "d6", Value: float64(6)}, {Name: "d20", Value: float64(20)}}},
			{Type: discordgo.ApplicationCommandOptionString, Name: "label", Description: "Label"},
		},
	}
	require.True(t, cmp.Equal(Normalize(sampleDescriptors()[2]), Normalize(FromApplicationCommand(remote))))
}

func TestNilApplicationCommand(t *testing.T) {
	require.Equal(t, Descriptor{}, FromApplicationCommand(nil))
}
