// Package commands holds the built-in commands.
package commands

import (
	"go.uber.org/zap"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/pkg/cmd"
)

const (
	AppName        = "dispatch"
	AppDescription = "Slash commands, buttons and menus on top of discordgo."
	Repository     = "https://github.com/keshon/dispatch"
)

// All returns a fresh set of the built-in commands.
func All() []*command.Command {
	return []*command.Command{
		About(),
		Color(),
		Filter(),
		Ping(),
		Poll(),
		Quote(),
		Roll(),
		UserInfo(),
	}
}

// guildOnly commands make no sense in direct messages.
var guildOnly = map[string]bool{"filter": true}

// Register registers All in r with the default middleware chain.
func Register(r *cmd.Registry, logger *zap.Logger) error {
	for _, c := range All() {
		mws := []cmd.Middleware{command.WithLogging(logger)}
		if guildOnly[c.Name] {
			mws = append(mws, command.WithGuildOnly())
		}
		if err := command.Register(r, []*command.Command{c}, mws...); err != nil {
			return err
		}
		if got, ok := r.Get(c.Name); ok {
			logger.Debug("Command registered", zap.String("command", c.Name), zap.Strings("middleware", cmd.Layers(got)))
		}
	}
	return nil
}

// Autocompleter takes standalone autocomplete handlers (see router.Router).
type Autocompleter interface {
	RegisterAutocomplete(name string, fn command.AutocompleteFunc)
}

// RegisterAutocomplete adds the handlers answering for commands that declare
// autocomplete options without an Autocomplete func of their own.
func RegisterAutocomplete(a Autocompleter) {
	a.RegisterAutocomplete("roll", completeSides)
}
