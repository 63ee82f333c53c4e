package commands

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/commandsync"
)

const defaultSides = 6

var commonDice = []int64{4, 6, 8, 10, 12, 20, 100}

func Roll() *command.Command {
	return &command.Command{
		Name:        "roll",
		Description: "Roll a die.",
		Options: []commandsync.Option{{
			Type:         discordgo.ApplicationCommandOptionInteger,
			Name:         "sides",
			Description:  "Number of sides (default 6)",
			Autocomplete: true,
		}},
		Cooldown: 5 * time.Second,
		Run: func(_ context.Context, c *command.Context) error {
			sides := int64(defaultSides)
			if o := c.Option("sides"); o != nil {
				sides = o.IntValue()
			}
			if sides < 2 {
				return c.Ephemeral("A die needs at least 2 sides.")
			}
			return c.Reply(fmt.Sprintf("🎲 You rolled **%d** (d%d)", rand.Int64N(sides)+1, sides))
		},
	}
}

// completeSides suggests the usual dice matching what was typed so far.
// Integer options arrive as text or numbers while the user types.
func completeSides(_ context.Context, c *command.AutocompleteContext) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	typed := ""
	if f := c.Focused(); f != nil && f.Value != nil {
		typed = strings.TrimPrefix(strings.TrimSpace(fmt.Sprint(f.Value)), "d")
	}
	var out []*discordgo.ApplicationCommandOptionChoice
	for _, n := range commonDice {
		s := strconv.FormatInt(n, 10)
		if strings.HasPrefix(s, typed) {
			out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: "d" + s, Value: n})
		}
	}
	return out, nil
}
