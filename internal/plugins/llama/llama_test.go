package llama

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowd/internal/plugin"
)

func TestParamsOverriddenByExtra(t *testing.T) {
	c := defaults()
	warm := 0.7
	c.Temperature = &warm
	p := c.params(map[string]any{
		"max_tokens":  64.0,
		"temperature": 0.1,
		"stop":        []any{"</s>", 3},
	})
	assert.Equal(t, 64, p.MaxTokens)
	require.NotNil(t, p.Temperature)
	assert.Equal(t, 0.1, *p.Temperature)
	assert.Equal(t, []string{"</s>"}, p.Stop)

	p = c.params(nil)
	assert.Equal(t, 256, p.MaxTokens)
	require.NotNil(t, p.Temperature)
	assert.Equal(t, 0.7, *p.Temperature)
}

func TestSampling_ZeroIsNotUnset(t *testing.T) {
	temp, topP, topK := genParams{}.sampling(0.8, 0.95, 40)
	assert.Equal(t, float32(0.8), temp)
	assert.Equal(t, float32(0.95), topP)
	assert.Equal(t, 40, topK)

	p := defaults().params(map[string]any{"temperature": 0.0, "top_k": 0.0})
	temp, topP, topK = p.sampling(0.8, 0.95, 40)
	assert.Equal(t, float32(0), temp)
	assert.Equal(t, float32(0.95), topP)
	assert.Equal(t, 0, topK)
}

func TestConfigDecode_KeepsExplicitZeroTemperature(t *testing.T) {
	c := defaults()
	cfg := plugin.ResolvedConfig{Pipeline: Tag, Params: map[string]any{"temperature": 0}}
	require.NoError(t, cfg.Decode(&c))
	require.NotNil(t, c.Temperature)
	assert.Equal(t, 0.0, *c.Temperature)
	assert.Nil(t, c.TopP)
}

func TestPrompt(t *testing.T) {
	assert.Equal(t, "hi", prompt(plugin.Args{Kwargs: map[string]any{"text_prompt": "hi"}}))
	assert.Equal(t, "there", prompt(plugin.Args{Extra: map[string]any{"prompt": " there "}}))
	assert.Empty(t, prompt(plugin.Args{}))
}

func TestDescriptorIsPermissive(t *testing.T) {
	d := Descriptor()
	assert.Equal(t, Tag, d.Tag)
	assert.Equal(t, plugin.Permissive, d.Mode)
}

func TestStubReportsUnavailable(t *testing.T) {
	if Built {
		t.Skip("llama runtime compiled in")
	}
	_, err := New(plugin.ResolvedConfig{Pipeline: Tag}, plugin.Deps{})
	assert.True(t, plugin.IsDependencyUnavailable(err))
}
