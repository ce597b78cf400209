package pipeline

// Result tells the dispatcher whether to go on after a handler returns.
type Result int

const (
	// Continue advances to the next node.
	Continue Result = iota
	// Stop halts the dispatch of the current update.
	Stop
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// Handler is one unit of work in a pipeline. A non-nil error, like a
// panic, is reported as a HandlerFault and aborts the dispatch.
type Handler interface {
	HandleUpdate(c *Context) (Result, error)
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(c *Context) (Result, error)

// HandleUpdate calls f(c).
func (f HandlerFunc) HandleUpdate(c *Context) (Result, error) {
	return f(c)
}

// Factory builds the handler registered under a name.
type Factory func() (Handler, error)

// Instance returns a Factory that always yields h.
func Instance(h Handler) Factory {
	return func() (Handler, error) {
		return h, nil
	}
}

// Descriptor pairs a registry name with its factory. Descriptors are
// collected at startup and fed to Registry.Register.
type Descriptor struct {
	Name    string
	Factory Factory
}
