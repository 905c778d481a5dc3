package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowd/internal/plugin"
	"flowd/internal/plugins/llama"
	"flowd/internal/plugins/pixel"
)

func TestBuiltin(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)
	assert.Equal(t, []string{llama.Tag, pixel.Tag}, r.Tags())

	d, err := r.Resolve(pixel.Tag)
	require.NoError(t, err)
	assert.Equal(t, plugin.Strict, d.Mode)

	_, err = Builtin(plugin.Descriptor{Tag: pixel.Tag, Factory: pixel.New})
	assert.Error(t, err, "duplicate tags are rejected")
}
