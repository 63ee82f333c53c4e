// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How it is registered and
// dispatched (Discord interactions, CLI) is defined by adapters that wrap this.
package cmd

import "context"

// Invocation carries the input a dispatcher hands to a command. Adapters put
// their own context into Data (e.g. a *command.Context for Discord interactions).
type Invocation struct {
	Args []string
	Data any
}

// Command is the universal contract: identity plus execution. Permissions,
// cooldowns and transport-specific registration stay in adapters.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
