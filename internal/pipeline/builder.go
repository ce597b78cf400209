package pipeline

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

type nodeKind int

const (
	// nodeHandler runs a handler unconditionally.
	nodeHandler nodeKind = iota
	// nodeBranch runs a sub-pipeline when its predicate holds, then resumes.
	nodeBranch
	// nodeMap runs a sub-pipeline when its predicate holds and ends the dispatch.
	nodeMap
)

type node struct {
	kind    nodeKind
	name    string
	handler Handler
	when    Predicate
	branch  []node
}

func cloneNodes(nodes []node) []node {
	if nodes == nil {
		return nil
	}
	out := make([]node, len(nodes))
	for i, n := range nodes {
		out[i] = n
		out[i].branch = cloneNodes(n.branch)
	}
	return out
}

// DefaultCommandPrefix is the prefix UseCommand expects before a command name.
const DefaultCommandPrefix = "/"

type builderOptions struct {
	registry      *Registry
	commandPrefix string
	botUsername   string
}

// BuilderOption configures a Builder.
type BuilderOption func(*builderOptions)

// WithRegistry lets UseHandler and UseCommandHandler resolve handlers by name.
func WithRegistry(r *Registry) BuilderOption {
	return func(o *builderOptions) {
		o.registry = r
	}
}

// WithCommandPrefix overrides the "/" command prefix.
func WithCommandPrefix(prefix string) BuilderOption {
	return func(o *builderOptions) {
		o.commandPrefix = prefix
	}
}

// WithBotUsername also matches commands addressed as /name@username.
func WithBotUsername(username string) BuilderOption {
	return func(o *builderOptions) {
		o.botUsername = username
	}
}

// Builder assembles a Pipeline. Methods record configuration errors
// instead of returning them; Build reports all of them at once.
// A Builder is not safe for concurrent use.
type Builder struct {
	opts  *builderOptions
	nodes []node
	err   error
}

// NewBuilder creates an empty Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	o := &builderOptions{commandPrefix: DefaultCommandPrefix}
	for _, opt := range opts {
		opt(o)
	}
	return &Builder{opts: o}
}

func (b *Builder) fail(op, name string, err error) *Builder {
	b.err = multierr.Append(b.err, &ConfigError{Op: op, Name: name, Err: err})
	return b
}

// Use appends a handler that runs for every update reaching it.
func (b *Builder) Use(h Handler) *Builder {
	if h == nil {
		return b.fail("use", "", ErrNilHandler)
	}
	b.nodes = append(b.nodes, node{kind: nodeHandler, name: handlerName(h), handler: h})
	return b
}

// UseHandler appends the handler registered under name.
func (b *Builder) UseHandler(name string) *Builder {
	h, err := b.resolve("use_handler", name)
	if err != nil {
		b.err = multierr.Append(b.err, err)
		return b
	}
	b.nodes = append(b.nodes, node{kind: nodeHandler, name: name, handler: h})
	return b
}

// UseWhen appends a branch that runs when p holds. Once the branch runs
// to its end, the dispatch resumes at the next node.
func (b *Builder) UseWhen(p Predicate, configure func(*Builder)) *Builder {
	return b.branch(nodeBranch, "use_when", "", p, configure)
}

// Map appends a terminal branch for updates of exactly the given kind.
func (b *Builder) Map(kind Kind, configure func(*Builder)) *Builder {
	if kind == "" {
		return b.fail("map", "", ErrEmptyName)
	}
	return b.branch(nodeMap, "map", string(kind), KindIs(kind), configure)
}

// MapWhen appends a terminal branch that runs when p holds. After it
// runs, no later node of the pipeline is evaluated.
func (b *Builder) MapWhen(p Predicate, configure func(*Builder)) *Builder {
	return b.branch(nodeMap, "map_when", "", p, configure)
}

// UseCommand runs h when a new text message starts with the command name.
// It is UseWhen(TextStartsWithCommand(...), Use(h)).
func (b *Builder) UseCommand(name string, h Handler) *Builder {
	if name == "" {
		return b.fail("use_command", "", ErrEmptyName)
	}
	p := TextStartsWithCommand(b.opts.commandPrefix, name, b.opts.botUsername)
	return b.branch(nodeBranch, "use_command", name, p, func(sub *Builder) {
		sub.Use(h)
	})
}

// UseCommandHandler is UseCommand with a handler resolved from the registry.
func (b *Builder) UseCommandHandler(command, handlerName string) *Builder {
	if command == "" {
		return b.fail("use_command", "", ErrEmptyName)
	}
	p := TextStartsWithCommand(b.opts.commandPrefix, command, b.opts.botUsername)
	return b.branch(nodeBranch, "use_command", command, p, func(sub *Builder) {
		sub.UseHandler(handlerName)
	})
}

func (b *Builder) branch(kind nodeKind, op, label string, p Predicate, configure func(*Builder)) *Builder {
	if p == nil {
		return b.fail(op, label, ErrNilPredicate)
	}
	if configure == nil {
		return b.fail(op, label, ErrNilBranch)
	}
	sub := &Builder{opts: b.opts}
	configure(sub)
	if sub.err != nil {
		b.err = multierr.Append(b.err, sub.err)
		return b
	}
	if label == "" {
		label = op
	}
	b.nodes = append(b.nodes, node{kind: kind, name: label, when: p, branch: cloneNodes(sub.nodes)})
	return b
}

func (b *Builder) resolve(op, name string) (Handler, error) {
	if name == "" {
		return nil, &ConfigError{Op: op, Err: ErrEmptyName}
	}
	if b.opts.registry == nil {
		return nil, &ConfigError{Op: op, Name: name, Err: ErrNoRegistry}
	}
	return b.opts.registry.Resolve(name)
}

// Build returns the assembled Pipeline, or every configuration error
// recorded so far combined with multierr.
func (b *Builder) Build() (*Pipeline, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Pipeline{nodes: cloneNodes(b.nodes)}, nil
}

// Pipeline is an immutable, ordered tree of nodes. It is safe for
// concurrent use by any number of dispatches.
type Pipeline struct {
	nodes []node
}

// Len returns the number of top-level nodes.
func (p *Pipeline) Len() int {
	return len(p.nodes)
}

// Describe renders the pipeline as an indented tree for startup logs.
func (p *Pipeline) Describe() string {
	var sb strings.Builder
	describe(&sb, p.nodes, 0)
	return strings.TrimRight(sb.String(), "\n")
}

func describe(sb *strings.Builder, nodes []node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		switch n.kind {
		case nodeHandler:
			fmt.Fprintf(sb, "%suse %s\n", indent, n.name)
		case nodeBranch:
			fmt.Fprintf(sb, "%swhen %s\n", indent, n.name)
			describe(sb, n.branch, depth+1)
		case nodeMap:
			fmt.Fprintf(sb, "%smap %s\n", indent, n.name)
			describe(sb, n.branch, depth+1)
		}
	}
}

// Namer lets a handler report the name used in logs and faults.
type Namer interface {
	Name() string
}

func handlerName(h Handler) string {
	if n, ok := h.(Namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", h)
}
