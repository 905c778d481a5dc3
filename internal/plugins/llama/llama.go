// Package llama implements the llama_text plugin: text generation over a
// GGUF model bound to the revision's "model" weight key. The real runtime is
// compiled only with the 'llama' build tag; default builds fail the load
// with a dependency-unavailable error.
package llama

import (
	"strings"

	"flowd/internal/plugin"
)

// Tag is the registry tag of this plugin.
const Tag = "llama_text"

// WeightKey is the weight key holding the GGUF model file.
const WeightKey = "model"

type config struct {
	ContextSize int     `mapstructure:"context_size"`
	Threads     int     `mapstructure:"threads"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature *float64 `mapstructure:"temperature"`
	TopP        *float64 `mapstructure:"top_p"`
	TopK        *int     `mapstructure:"top_k"`
	Seed        int      `mapstructure:"seed"`
}

func defaults() config {
	return config{ContextSize: 2048, Threads: 4, MaxTokens: 256}
}

var meta = plugin.Meta{
	OutputModes:       map[string]string{"text": "Text"},
	DefaultOutputMode: "text",
}

// genParams are the per-call generation settings: revision params
// overridden by pass-through hyperparameters. Nil sampling fields fall back
// to the runtime defaults; zero is a real value (temperature 0 is greedy).
type genParams struct {
	MaxTokens   int
	Temperature *float64
	TopP        *float64
	TopK        *int
	Seed        int
	Stop        []string
}

// sampling returns the effective temperature, top-p and top-k.
func (p genParams) sampling(temp, topP float32, topK int) (float32, float32, int) {
	if p.Temperature != nil {
		temp = float32(max(0, *p.Temperature))
	}
	if p.TopP != nil {
		topP = float32(max(0, *p.TopP))
	}
	if p.TopK != nil {
		topK = max(0, *p.TopK)
	}
	return temp, topP, topK
}

func (c config) params(extra map[string]any) genParams {
	p := genParams{MaxTokens: c.MaxTokens, Temperature: c.Temperature, TopP: c.TopP, TopK: c.TopK, Seed: c.Seed}
	if v, ok := number(extra["max_tokens"]); ok {
		p.MaxTokens = int(v)
	}
	if v, ok := number(extra["temperature"]); ok {
		p.Temperature = &v
	}
	if v, ok := number(extra["top_p"]); ok {
		p.TopP = &v
	}
	if v, ok := number(extra["top_k"]); ok {
		k := int(v)
		p.TopK = &k
	}
	if v, ok := number(extra["seed"]); ok {
		p.Seed = int(v)
	}
	switch s := extra["stop"].(type) {
	case string:
		p.Stop = []string{s}
	case []any:
		for _, x := range s {
			if str, ok := x.(string); ok {
				p.Stop = append(p.Stop, str)
			}
		}
	}
	return p
}

func prompt(args plugin.Args) string {
	if s := args.String("text_prompt", ""); s != "" {
		return s
	}
	if s, ok := args.Extra["prompt"].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Descriptor registers the plugin. Open ended generation options pass
// through, so marshaling is permissive.
func Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Tag:         Tag,
		Factory:     New,
		Mode:        plugin.Permissive,
		Description: "text generation with llama.cpp",
	}
}
