package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/commandsync"
	"github.com/keshon/dispatch/internal/ui"
)

var palette = map[string]int{
	"black":  0x23272a,
	"blue":   0x5865f2,
	"green":  0x57f287,
	"orange": 0xe67e22,
	"pink":   0xeb459e,
	"purple": 0x9b59b6,
	"red":    0xed4245,
	"white":  0xffffff,
	"yellow": 0xfee75c,
}

func paletteNames() []string {
	names := make([]string, 0, len(palette))
	for n := range palette {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Color shows a swatch for a named color, or a menu to pick some when no
// name is given.
func Color() *command.Command {
	return &command.Command{
		Name:        "color",
		Description: "Show a color swatch.",
		Options: []commandsync.Option{{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         "name",
			Description:  "Color name",
			Autocomplete: true,
		}},
		Autocomplete: completeColor,
		Run:          runColor,
	}
}

func completeColor(_ context.Context, c *command.AutocompleteContext) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	prefix := ""
	if f := c.Focused(); f != nil {
		prefix = strings.ToLower(strings.TrimSpace(f.StringValue()))
	}
	var out []*discordgo.ApplicationCommandOptionChoice
	for _, n := range paletteNames() {
		if strings.HasPrefix(n, prefix) {
			out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: n, Value: n})
		}
	}
	return out, nil
}

func runColor(_ context.Context, c *command.Context) error {
	if o := c.Option("name"); o != nil {
		name := strings.ToLower(strings.TrimSpace(o.StringValue()))
		hex, ok := palette[name]
		if !ok {
			return c.Ephemeral(fmt.Sprintf("Unknown color %q.", name))
		}
		return c.Embed(swatch(name, hex))
	}

	names := paletteNames()
	opts := make([]ui.SelectOption, 0, len(names))
	for _, n := range names {
		opts = append(opts, ui.SelectOption{Label: n, Description: fmt.Sprintf("#%06x", palette[n])})
	}
	menu := ui.SelectMenu{
		Placeholder: "Pick up to 3 colors",
		Options:     opts,
		MaxValues:   3,
		OnSelect: func(_ context.Context, e *ui.Event, values []string) error {
			if len(values) == 0 {
				return e.Update("No colors picked.", nil)
			}
			return e.Update("You picked: "+strings.Join(values, ", "), nil)
		},
	}
	return c.ReplyUI("Which colors do you like?", menu, true)
}

func swatch(name string, hex int) *discordgo.MessageEmbed {
	return embed.NewEmbed().
		SetColor(hex).
		SetTitle(name).
		SetDescription(fmt.Sprintf("`#%06x`", hex)).
		MessageEmbed
}
