package pipeline

import "sort"

// Registry maps stable handler names to factories. Populate it during
// startup; after the pipeline is built it is only read.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return &ConfigError{Op: "register", Err: ErrEmptyName}
	}
	if factory == nil {
		return &ConfigError{Op: "register", Name: name, Err: ErrNilFactory}
	}
	if _, ok := r.factories[name]; ok {
		return &ConfigError{Op: "register", Name: name, Err: ErrDuplicateHandler}
	}
	r.factories[name] = factory
	return nil
}

// RegisterAll registers every descriptor, stopping at the first error.
func (r *Registry) RegisterAll(descriptors ...Descriptor) error {
	for _, d := range descriptors {
		if err := r.Register(d.Name, d.Factory); err != nil {
			return err
		}
	}
	return nil
}

// Resolve builds the handler registered under name.
func (r *Registry) Resolve(name string) (Handler, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, &ConfigError{Op: "resolve", Name: name, Err: ErrUnknownHandler}
	}
	h, err := factory()
	if err != nil {
		return nil, &ConfigError{Op: "resolve", Name: name, Err: err}
	}
	if h == nil {
		return nil, &ConfigError{Op: "resolve", Name: name, Err: ErrNilHandler}
	}
	return h, nil
}

// Names lists registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
