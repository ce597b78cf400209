package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistry_registerAndResolve(t *testing.T) {
	r := NewRegistry()
	rec := &recorder{}
	if err := r.Register("Ping", Instance(rec.handler("ping", Stop))); err != nil {
		t.Fatalf("Register: %v", err)
	}

	h, err := r.Resolve("Ping")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	res, err := h.HandleUpdate(newContext(context.Background(), textUpdate(1, "x"), nil))
	if err != nil || res != Stop {
		t.Errorf("HandleUpdate() = %v, %v; want stop, nil", res, err)
	}
	if diff := cmp.Diff([]string{"ping"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_errors(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("A", Instance(HandlerFunc(func(*Context) (Result, error) { return Continue, nil })))

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"empty name", r.Register("", Instance(nil)), ErrEmptyName},
		{"nil factory", r.Register("B", nil), ErrNilFactory},
		{"duplicate", r.Register("A", Instance(nil)), ErrDuplicateHandler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfgErr *ConfigError
			if !errors.As(tt.err, &cfgErr) {
				t.Fatalf("error %v is not a *ConfigError", tt.err)
			}
			if !errors.Is(tt.err, tt.wantErr) {
				t.Errorf("error = %v, want %v", tt.err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_resolveUnknown(t *testing.T) {
	_, err := NewRegistry().Resolve("Missing")
	if !errors.Is(err, ErrUnknownHandler) {
		t.Fatalf("Resolve() error = %v, want ErrUnknownHandler", err)
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Name != "Missing" {
		t.Errorf("ConfigError = %+v, want Name Missing", cfgErr)
	}
}

func TestRegistry_factoryFailure(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry()
	_ = r.Register("Broken", func() (Handler, error) { return nil, boom })
	_ = r.Register("Nil", func() (Handler, error) { return nil, nil })

	if _, err := r.Resolve("Broken"); !errors.Is(err, boom) {
		t.Errorf("Resolve(Broken) error = %v, want %v", err, boom)
	}
	if _, err := r.Resolve("Nil"); !errors.Is(err, ErrNilHandler) {
		t.Errorf("Resolve(Nil) error = %v, want ErrNilHandler", err)
	}
}

func TestRegistry_registerAllAndNames(t *testing.T) {
	noop := Instance(HandlerFunc(func(*Context) (Result, error) { return Continue, nil }))
	r := NewRegistry()
	err := r.RegisterAll(
		Descriptor{Name: "TextEchoer", Factory: noop},
		Descriptor{Name: "ExceptionHandler", Factory: noop},
	)
	if err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if diff := cmp.Diff([]string{"ExceptionHandler", "TextEchoer"}, r.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	if err := r.RegisterAll(Descriptor{Name: "TextEchoer", Factory: noop}); !errors.Is(err, ErrDuplicateHandler) {
		t.Errorf("RegisterAll duplicate error = %v, want ErrDuplicateHandler", err)
	}
}
