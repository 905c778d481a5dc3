//go:build llama

package llama

import (
	"context"
	"errors"
	"fmt"

	llama "github.com/go-skynet/go-llama.cpp"

	"flowd/internal/plugin"
)

// Built reports whether this binary carries the llama.cpp runtime.
const Built = true

// Generator owns a loaded llama.cpp model.
type Generator struct {
	plugin.Base
	model *llama.LLama
	cfg   config
	deps  plugin.Deps
}

// New loads the GGUF model bound to the "model" weight key.
func New(cfg plugin.ResolvedConfig, deps plugin.Deps) (plugin.Plugin, error) {
	c := defaults()
	if err := cfg.Decode(&c); err != nil {
		return nil, err
	}
	wc, ok := cfg.Weights[WeightKey]
	if !ok {
		return nil, fmt.Errorf("weight key %q is not bound", WeightKey)
	}
	if deps.Weights == nil {
		return nil, errors.New("no weight fetcher configured")
	}
	path, err := deps.Weights.Path(context.Background(), cfg.Revision, wc, deps.Sink)
	if err != nil {
		return nil, err
	}
	deps.Emit("Loading " + path)
	m, err := llama.New(path, llama.SetContext(c.ContextSize))
	if err != nil {
		return nil, err
	}
	return &Generator{Base: plugin.NewBase(meta, "edit_text", "button_run"), model: m, cfg: c, deps: deps}, nil
}

func (g *Generator) Predict(args plugin.Args) (*plugin.Result, error) {
	if g.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	text := prompt(args)
	if text == "" {
		return nil, errors.New("text_prompt is required")
	}
	var tokens int
	g.model.SetTokenCallback(func(string) bool {
		tokens++
		return true
	})
	out, err := g.model.Predict(text, predictOptions(g.cfg.params(args.Extra), g.cfg.Threads)...)
	if err != nil {
		return nil, err
	}
	return &plugin.Result{
		Description: out,
		Extra:       map[string]any{"text": out, "completion_tokens": tokens},
	}, nil
}

func (g *Generator) Release() error {
	if g.model != nil {
		g.model.Free()
		g.model = nil
	}
	return nil
}

func predictOptions(p genParams, threads int) []llama.PredictOption {
	d := llama.DefaultOptions
	temp, topP, topK := p.sampling(d.Temperature, d.TopP, d.TopK)
	po := []llama.PredictOption{
		llama.SetTokens(max(1, p.MaxTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopP(topP),
		llama.SetTopK(topK),
		llama.SetTemperature(temp),
	}
	if p.Seed != 0 {
		po = append(po, llama.SetSeed(p.Seed))
	}
	if len(p.Stop) > 0 {
		po = append(po, llama.SetStopWords(p.Stop...))
	}
	return po
}
