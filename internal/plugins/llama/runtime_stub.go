//go:build !llama

package llama

import "flowd/internal/plugin"

// Built reports whether this binary carries the llama.cpp runtime.
const Built = false

// New fails fast: the llama.cpp runtime is not compiled into this binary.
func New(plugin.ResolvedConfig, plugin.Deps) (plugin.Plugin, error) {
	return nil, plugin.DependencyUnavailableError{Msg: "llama support not built (missing 'llama' build tag)"}
}
