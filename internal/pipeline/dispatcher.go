package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
)

// Outcome is the terminal state of one dispatch.
type Outcome int

const (
	// Completed means every applicable node ran.
	Completed Outcome = iota
	// Halted means a handler returned Stop.
	Halted
	// BranchedTerminal means a Map or MapWhen branch was entered.
	BranchedTerminal
	// Faulted means a handler failed and the dispatch was aborted.
	Faulted
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Halted:
		return "halted"
	case BranchedTerminal:
		return "branched_terminal"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// StopScope controls how far a Stop returned inside a UseWhen branch reaches.
type StopScope int

const (
	// StopDispatch halts the whole dispatch.
	StopDispatch StopScope = iota
	// StopBranch ends only the branch; the outer pipeline resumes.
	StopBranch
)

// FaultReporter receives every fault after the context's own hooks ran.
type FaultReporter func(c *Context, err error)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithSender sets the outbound API exposed through Context.
func WithSender(s Sender) DispatcherOption {
	return func(d *Dispatcher) {
		d.sender = s
	}
}

// WithFaultReporter replaces the default reporter, which logs at error level.
func WithFaultReporter(r FaultReporter) DispatcherOption {
	return func(d *Dispatcher) {
		d.report = r
	}
}

// WithBranchStopScope sets how Stop inside UseWhen branches behaves.
func WithBranchStopScope(scope StopScope) DispatcherOption {
	return func(d *Dispatcher) {
		d.stopScope = scope
	}
}

// Dispatcher walks a Pipeline for each update. It holds no per-update
// state, so Dispatch may be called concurrently.
type Dispatcher struct {
	pipeline  *Pipeline
	logger    *zap.Logger
	sender    Sender
	report    FaultReporter
	stopScope StopScope
}

// NewDispatcher creates a Dispatcher for p.
func NewDispatcher(p *Pipeline, opts ...DispatcherOption) *Dispatcher {
	if p == nil {
		p = &Pipeline{}
	}
	d := &Dispatcher{
		pipeline: p,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.report == nil {
		d.report = d.logFault
	}
	return d
}

// walkState is how a (sub-)sequence ended.
type walkState int

const (
	walkEnd walkState = iota
	walkStop
	walkTerminal
)

// Dispatch pushes u through the pipeline. Faults are reported and turned
// into the Faulted outcome; they never reach the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, u *Update) (out Outcome) {
	if u == nil {
		d.logger.Warn("dropping nil update")
		return Halted
	}
	c := newContext(ctx, u, d.sender)

	defer func() {
		if r := recover(); r != nil {
			d.fault(c, &HandlerFault{
				Handler:  "pipeline",
				UpdateID: u.ID,
				Err:      fmt.Errorf("panic recovered: %v", r),
				Stack:    debug.Stack(),
			})
			out = Faulted
		}
	}()

	state, err := d.walk(c, d.pipeline.nodes)
	switch {
	case err != nil:
		d.fault(c, err)
		out = Faulted
	case state == walkStop:
		out = Halted
	case state == walkTerminal:
		out = BranchedTerminal
	default:
		out = Completed
	}

	d.logger.Debug("update dispatched",
		zap.String("trace_id", c.TraceID().String()),
		zap.Int("update_id", u.ID),
		zap.String("kind", string(u.Kind)),
		zap.String("source", string(u.Source)),
		zap.Stringer("outcome", out),
	)
	return out
}

func (d *Dispatcher) walk(c *Context, nodes []node) (walkState, error) {
	for _, n := range nodes {
		switch n.kind {
		case nodeHandler:
			res, err := d.invoke(c, n)
			if err != nil {
				return walkStop, err
			}
			if res == Stop {
				return walkStop, nil
			}

		case nodeBranch:
			if !n.when(c.update) {
				continue
			}
			state, err := d.walk(c, n.branch)
			if err != nil {
				return state, err
			}
			if state == walkTerminal {
				return walkTerminal, nil
			}
			if state == walkStop && d.stopScope == StopDispatch {
				return walkStop, nil
			}

		case nodeMap:
			if !n.when(c.update) {
				continue
			}
			// Entering a map ends the dispatch whatever the branch returned.
			if state, err := d.walk(c, n.branch); err != nil {
				return state, err
			}
			return walkTerminal, nil
		}
	}
	return walkEnd, nil
}

func (d *Dispatcher) invoke(c *Context, n node) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerFault{
				Handler:  n.name,
				UpdateID: c.update.ID,
				Err:      fmt.Errorf("panic recovered: %v", r),
				Stack:    debug.Stack(),
			}
		}
	}()

	res, err = n.handler.HandleUpdate(c)
	if err != nil {
		return Stop, &HandlerFault{Handler: n.name, UpdateID: c.update.ID, Err: err}
	}
	return res, nil
}

func (d *Dispatcher) fault(c *Context, err error) {
	for _, hook := range c.faultHooks {
		d.runHook(hook, err)
	}
	d.report(c, err)
}

func (d *Dispatcher) runHook(hook func(error), err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("fault hook panicked", zap.Any("panic", r))
		}
	}()
	hook(err)
}

func (d *Dispatcher) logFault(c *Context, err error) {
	fields := []zap.Field{
		zap.String("trace_id", c.TraceID().String()),
		zap.Int("update_id", c.update.ID),
		zap.String("kind", string(c.update.Kind)),
		zap.Error(err),
	}
	var fault *HandlerFault
	if errors.As(err, &fault) {
		fields = append(fields, zap.String("handler", fault.Handler))
		if fault.Panicked() {
			fields = append(fields, zap.ByteString("stack", fault.Stack))
		}
	}
	d.logger.Error("handler fault", fields...)
}
