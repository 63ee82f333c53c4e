// Package commandsync reconciles the locally defined application commands with
// the set registered on Discord: it normalizes both sides, decides whether a
// push is needed and publishes the full set (plus per-command grants when
// publishing to a single guild).
package commandsync

import (
	"encoding/json"

	"github.com/bwmarrin/discordgo"
)

// Descriptor is the comparable form of an application command.
type Descriptor struct {
	Kind        discordgo.ApplicationCommandType `json:"type"`
	Name        string                           `json:"name"`
	Description string                           `json:"description,omitempty"`
	Options     []Option                         `json:"options,omitempty"`
}

// Option describes one command option. Options only nest for subcommands and
// subcommand groups.
type Option struct {
	Type         discordgo.ApplicationCommandOptionType `json:"type"`
	Name         string                                 `json:"name"`
	Description  string                                 `json:"description"`
	Required     bool                                   `json:"required"`
	Autocomplete bool                                   `json:"autocomplete,omitempty"`
	Choices      []Choice                               `json:"choices,omitempty"`
	Options      []Option                               `json:"options,omitempty"`
}

// Choice is a fixed value offered for an option.
type Choice struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Normalize returns the canonical form of d. Empty and absent slices both
// become nil, numeric choice values become float64 and context-menu commands
// keep only their kind and name. Normalize is idempotent.
func Normalize(d Descriptor) Descriptor {
	kind := d.Kind
	if kind == 0 {
		kind = discordgo.ChatApplicationCommand
	}
	if kind != discordgo.ChatApplicationCommand {
		return Descriptor{Kind: kind, Name: d.Name}
	}
	return Descriptor{
		Kind:        kind,
		Name:        d.Name,
		Description: d.Description,
		Options:     normalizeOptions(d.Options),
	}
}

func normalizeOptions(opts []Option) []Option {
	if len(opts) == 0 {
		return nil
	}
	out := make([]Option, len(opts))
	for i, o := range opts {
		out[i] = Option{
			Type:         o.Type,
			Name:         o.Name,
			Description:  o.Description,
			Required:     o.Required,
			Autocomplete: o.Autocomplete,
			Choices:      normalizeChoices(o.Choices),
			Options:      normalizeOptions(o.Options),
		}
	}
	return out
}

func normalizeChoices(choices []Choice) []Choice {
	if len(choices) == 0 {
		return nil
	}
	out := make([]Choice, len(choices))
	for i, c := range choices {
		out[i] = Choice{Name: c.Name, Value: canonicalValue(c.Value)}
	}
	return out
}

// canonicalValue maps every numeric type onto float64, the type the JSON
// decoder produces for values read back from the API.
func canonicalValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	default:
		return v
	}
}

// FromApplicationCommand converts a command as returned by the API.
// The result is not normalized.
func FromApplicationCommand(ac *discordgo.ApplicationCommand) Descriptor {
	if ac == nil {
		return Descriptor{}
	}
	return Descriptor{
		Kind:        ac.Type,
		Name:        ac.Name,
		Description: ac.Description,
		Options:     fromOptions(ac.Options),
	}
}

func fromOptions(opts []*discordgo.ApplicationCommandOption) []Option {
	if opts == nil {
		return nil
	}
	out := make([]Option, 0, len(opts))
	for _, o := range opts {
		if o == nil {
			continue
		}
		opt := Option{
			Type:         o.Type,
			Name:         o.Name,
			Description:  o.Description,
			Required:     o.Required,
			Autocomplete: o.Autocomplete,
			Options:      fromOptions(o.Options),
		}
		if o.Choices != nil {
			opt.Choices = make([]Choice, 0, len(o.Choices))
			for _, c := range o.Choices {
				if c != nil {
					opt.Choices = append(opt.Choices, Choice{Name: c.Name, Value: c.Value})
				}
			}
		}
		out = append(out, opt)
	}
	return out
}

// ApplicationCommand renders the normalized descriptor in wire form.
func (d Descriptor) ApplicationCommand() *discordgo.ApplicationCommand {
	n := Normalize(d)
	return &discordgo.ApplicationCommand{
		Type:        n.Kind,
		Name:        n.Name,
		Description: n.Description,
		Options:     toOptions(n.Options),
	}
}

func toOptions(opts []Option) []*discordgo.ApplicationCommandOption {
	if len(opts) == 0 {
		return nil
	}
	out := make([]*discordgo.ApplicationCommandOption, len(opts))
	for i, o := range opts {
		wire := &discordgo.ApplicationCommandOption{
			Type:         o.Type,
			Name:         o.Name,
			Description:  o.Description,
			Required:     o.Required,
			Autocomplete: o.Autocomplete,
			Options:      toOptions(o.Options),
		}
		for _, c := range o.Choices {
			wire.Choices = append(wire.Choices, &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Value})
		}
		out[i] = wire
	}
	return out
}
