// Package command defines the runtime command model: what a command
// declares, what it receives when it runs, and the adapter that lets it live
// in a cmd.Registry.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/commandsync"
	"github.com/keshon/dispatch/internal/permission"
	"github.com/keshon/dispatch/pkg/cmd"
)

var ErrInvalid = errors.New("invalid command")

// RunFunc executes a command.
type RunFunc func(ctx context.Context, c *Context) error

// AutocompleteFunc returns the choices for the focused option.
type AutocompleteFunc func(ctx context.Context, c *AutocompleteContext) ([]*discordgo.ApplicationCommandOptionChoice, error)

// Command is a user-invokable action.
type Command struct {
	Name        string
	Description string
	// Kind defaults to a chat input (slash) command.
	Kind    discordgo.ApplicationCommandType
	Options []commandsync.Option

	// AllowedRoles and AllowedUsers gate the command statically. In guild
	// scope they are also published as command permissions.
	AllowedRoles []string
	AllowedUsers []string

	Permission   permission.Handler
	Cooldown     time.Duration
	Autocomplete AutocompleteFunc
	Run          RunFunc
}

// Validate checks what the type system cannot.
func (c *Command) Validate() error {
	switch {
	case c == nil:
		return fmt.Errorf("%w: nil", ErrInvalid)
	case c.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalid)
	case c.Run == nil:
		return fmt.Errorf("%w: %s has no Run", ErrInvalid, c.Name)
	case c.Cooldown < 0:
		return fmt.Errorf("%w: %s has a negative cooldown", ErrInvalid, c.Name)
	}
	return nil
}

// Descriptor returns the definition published to Discord.
func (c *Command) Descriptor() commandsync.Descriptor {
	return commandsync.Descriptor{
		Kind:        c.Kind,
		Name:        c.Name,
		Description: c.Description,
		Options:     c.Options,
	}
}

// Entry returns the descriptor together with the static access lists.
func (c *Command) Entry() commandsync.Entry {
	return commandsync.Entry{
		Descriptor:   c.Descriptor(),
		AllowedRoles: c.AllowedRoles,
		AllowedUsers: c.AllowedUsers,
	}
}

// Adapter adapts a *Command to cmd.Command so it can live in a cmd.Registry
// and be wrapped by middleware. Run expects inv.Data to be a *Context.
type Adapter struct {
	Cmd *Command
}

func (a *Adapter) Name() string        { return a.Cmd.Name }
func (a *Adapter) Description() string { return a.Cmd.Description }

func (a *Adapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	c, ok := inv.Data.(*Context)
	if !ok {
		return fmt.Errorf("command %s: unexpected invocation data %T", a.Cmd.Name, inv.Data)
	}
	return a.Cmd.Run(ctx, c)
}

// From returns the *Command behind c, walking through middleware wrappers.
func From(c cmd.Command) (*Command, bool) {
	a, ok := cmd.Root(c).(*Adapter)
	if !ok || a.Cmd == nil {
		return nil, false
	}
	return a.Cmd, true
}

// Register validates each command and registers it, wrapped by mws, in r.
func Register(r *cmd.Registry, cmds []*Command, mws ...cmd.Middleware) error {
	for _, c := range cmds {
		if err := c.Validate(); err != nil {
			return err
		}
		if err := r.Register(cmd.Apply(&Adapter{Cmd: c}, mws...)); err != nil {
			return err
		}
	}
	return nil
}

// Entries returns the publishable entries of every command in r, sorted by name.
func Entries(r *cmd.Registry) []commandsync.Entry {
	all := r.GetAll()
	out := make([]commandsync.Entry, 0, len(all))
	for _, c := range all {
		if dc, ok := From(c); ok {
			out = append(out, dc.Entry())
		}
	}
	return out
}
