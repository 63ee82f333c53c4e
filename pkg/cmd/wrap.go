package cmd

import "context"

// Unwrappable is implemented by decorated commands. Adapters walk it to reach
// the registered command and its static definition.
type Unwrappable interface {
	Command
	Unwrap() Command
}

// Wrapped is one middleware layer around Inner.
type Wrapped struct {
	Inner Command

	// Layer names the middleware for registration logs.
	Layer   string
	RunFunc func(ctx context.Context, inv *Invocation) error
}

func (w *Wrapped) Name() string        { return w.Inner.Name() }
func (w *Wrapped) Description() string { return w.Inner.Description() }

// Run runs RunFunc, or Inner when the layer has no body.
func (w *Wrapped) Run(ctx context.Context, inv *Invocation) error {
	if w.RunFunc == nil {
		return w.Inner.Run(ctx, inv)
	}
	return w.RunFunc(ctx, inv)
}

func (w *Wrapped) Unwrap() Command { return w.Inner }

// Wrap returns a layer named layer that runs run in place of c.Run.
func Wrap(c Command, layer string, run func(ctx context.Context, inv *Invocation) error) Command {
	return &Wrapped{Inner: c, Layer: layer, RunFunc: run}
}

// Root strips every Unwrappable layer from c.
func Root(c Command) Command {
	for u, ok := c.(Unwrappable); ok; u, ok = c.(Unwrappable) {
		c = u.Unwrap()
	}
	return c
}
