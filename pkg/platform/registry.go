package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
)

var (
	// ErrUnknownPlatform is returned by Lookup for names that were never registered.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrCycle is returned by Lookup when a platform extends itself.
	ErrCycle = errors.New("platform cycle")
)

// Constructor builds the configuration for a platform.
type Constructor func(r *Registry) (Configuration, error)

// Registry maps platform names to configurations. Configurations are built
// on first lookup and reused afterwards. Safe for concurrent use.
type Registry struct {
	constructors *xsync.Map[string, Constructor]
	built        *xsync.Map[string, Configuration]

	// visiting is the chain of names being built by the current Lookup.
	visiting []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: xsync.NewMap[string, Constructor](),
		built:        xsync.NewMap[string, Configuration](),
	}
}

// Register associates name with fn, replacing any earlier registration.
// Every built configuration is dropped, since descendants of name hold a
// reference to its previous configuration.
func (r *Registry) Register(name string, fn Constructor) {
	r.constructors.Store(name, fn)
	r.built.Clear()
}

// Lookup returns the configuration registered under name.
func (r *Registry) Lookup(name string) (Configuration, error) {
	if cfg, ok := r.built.Load(name); ok {
		return cfg, nil
	}
	fn, ok := r.constructors.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
	}

	if slices.Contains(r.visiting, name) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrCycle, strings.Join(r.visiting, " -> "), name)
	}

	// Constructors see a view of the registry that remembers the names above them.
	view := *r
	view.visiting = append(slices.Clip(r.visiting), name)
	cfg, err := fn(&view)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}
	slog.Debug("built platform configuration", "platform", name, "lineage", Lineage(cfg))

	// Concurrent builders may race; keep whichever landed first.
	cfg, _ = r.built.LoadOrStore(name, cfg)
	return cfg, nil
}

// Names returns all registered platform names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.constructors.Size())
	r.constructors.Range(func(name string, _ Constructor) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}

// Extend returns a constructor that stacks tables on the configuration
// registered as parent.
func Extend(name, parent string, tables Tables) Constructor {
	return func(r *Registry) (Configuration, error) {
		ancestor, err := r.Lookup(parent)
		if err != nil {
			return nil, err
		}
		return NewLayer(name, ancestor, tables), nil
	}
}
