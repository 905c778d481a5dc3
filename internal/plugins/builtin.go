// Package plugins holds the static table of plugin implementations compiled
// into flowd.
package plugins

import (
	"flowd/internal/plugin"
	"flowd/internal/plugins/llama"
	"flowd/internal/plugins/pixel"
)

// Descriptors lists the built-in plugins.
func Descriptors() []plugin.Descriptor {
	return []plugin.Descriptor{
		{
			Tag:         pixel.Tag,
			Factory:     pixel.New,
			Mode:        plugin.Strict,
			Description: "pixel statistics and perceptual hash comparison",
		},
		llama.Descriptor(),
	}
}

// Builtin returns a registry of the built-in plugins plus extra.
func Builtin(extra ...plugin.Descriptor) (*plugin.Registry, error) {
	return plugin.NewRegistry(append(Descriptors(), extra...)...)
}
