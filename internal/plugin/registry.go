package plugin

import (
	"fmt"
	"sort"
)

// Mode selects how unknown hyperparameter names are handled for a plugin.
type Mode int

const (
	// Strict rejects names outside the marshaler's dispatch table.
	Strict Mode = iota
	// Permissive passes unknown names through to Args.Extra.
	Permissive
)

func (m Mode) String() string {
	if m == Permissive {
		return "permissive"
	}
	return "strict"
}

// Factory constructs a plugin instance from its resolved configuration.
type Factory func(cfg ResolvedConfig, deps Deps) (Plugin, error)

// Descriptor registers one plugin implementation under a tag.
type Descriptor struct {
	Tag         string
	Factory     Factory
	Mode        Mode
	Description string
}

// Registry is an immutable tag -> descriptor table built once at startup.
type Registry struct {
	entries map[string]Descriptor
}

// NewRegistry builds a registry from a static table. Duplicate or empty tags
// and nil factories are rejected.
func NewRegistry(ds ...Descriptor) (*Registry, error) {
	r := &Registry{entries: make(map[string]Descriptor, len(ds))}
	for _, d := range ds {
		if d.Tag == "" {
			return nil, fmt.Errorf("plugin registry: empty tag")
		}
		if d.Factory == nil {
			return nil, fmt.Errorf("plugin registry: nil factory for %q", d.Tag)
		}
		if _, dup := r.entries[d.Tag]; dup {
			return nil, fmt.Errorf("plugin registry: duplicate tag %q", d.Tag)
		}
		r.entries[d.Tag] = d
	}
	return r, nil
}

// Resolve returns the descriptor registered under tag.
func (r *Registry) Resolve(tag string) (Descriptor, error) {
	d, ok := r.entries[tag]
	if !ok {
		return Descriptor{}, UnknownPluginError{Tag: tag}
	}
	return d, nil
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag string) bool {
	_, ok := r.entries[tag]
	return ok
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []string {
	out := make([]string, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
