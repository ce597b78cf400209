package pipeline

import (
	"errors"
	"fmt"
)

// Configuration failures wrapped by ConfigError.
var (
	ErrUnknownHandler   = errors.New("unknown handler")
	ErrDuplicateHandler = errors.New("handler already registered")
	ErrEmptyName        = errors.New("name is required")
	ErrNilHandler       = errors.New("handler is nil")
	ErrNilFactory       = errors.New("factory is nil")
	ErrNilPredicate     = errors.New("predicate is nil")
	ErrNilBranch        = errors.New("branch configurator is nil")
	ErrNoRegistry       = errors.New("builder has no registry")
)

// ConfigError is returned while registering handlers or building a
// pipeline. It is always fatal at startup and never happens at dispatch.
type ConfigError struct {
	// Op is the builder or registry operation, e.g. "use_handler".
	Op string
	// Name is the handler or branch name involved, if any.
	Name string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("pipeline: %s %q: %v", e.Op, e.Name, e.Err)
	}
	return fmt.Sprintf("pipeline: %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// HandlerFault is a handler error or a recovered panic. It aborts only the
// dispatch of the update it happened on.
type HandlerFault struct {
	Handler  string
	UpdateID int
	Err      error
	// Stack is set when the fault was a panic.
	Stack []byte
}

func (e *HandlerFault) Error() string {
	return fmt.Sprintf("pipeline: handler %q failed on update %d: %v", e.Handler, e.UpdateID, e.Err)
}

func (e *HandlerFault) Unwrap() error {
	return e.Err
}

// Panicked reports whether the fault came from a recovered panic.
func (e *HandlerFault) Panicked() bool {
	return e.Stack != nil
}
