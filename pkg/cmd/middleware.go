package cmd

// Middleware decorates a command's Run. Guards such as guild-only checks and
// invocation logging are middleware; the result must still answer to the
// inner command's name so the registry keys stay stable.
type Middleware func(Command) Command

// Apply wraps c with mws in order, so the last middleware runs first.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		c = mw(c)
	}
	return c
}

// Layers lists the middleware names around c, outermost first. Unnamed
// layers are reported as "-".
func Layers(c Command) []string {
	var names []string
	for {
		w, ok := c.(*Wrapped)
		if !ok {
			return names
		}
		if w.Layer == "" {
			names = append(names, "-")
		} else {
			names = append(names, w.Layer)
		}
		c = w.Inner
	}
}
