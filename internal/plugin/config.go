package plugin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// WeightConfig is the access configuration of one bound weight record.
type WeightConfig struct {
	Name   string `mapstructure:"name"`
	Local  string `mapstructure:"local"`
	Online string `mapstructure:"online"`
}

// ResolvedConfig is the fully merged, load-ready configuration of a plugin.
type ResolvedConfig struct {
	Pipeline    string
	Revision    string
	DisplayName string
	Weights     map[string]WeightConfig
	Params      map[string]any
}

// Flatten renders the config as the flat map plugin constructors decode:
// {type, name, display_name, <params>, <weight key>: {local, online}}.
func (c ResolvedConfig) Flatten() map[string]any {
	out := make(map[string]any, 3+len(c.Params)+len(c.Weights))
	out["type"] = c.Pipeline
	out["name"] = c.Revision
	out["display_name"] = c.DisplayName
	for k, v := range c.Params {
		out[k] = v
	}
	for k, w := range c.Weights {
		out[k] = map[string]any{"local": w.Local, "online": w.Online}
	}
	return out
}

// Summary is a short, log friendly description of the config.
func (c ResolvedConfig) Summary() string {
	keys := make([]string, 0, len(c.Weights))
	for k, w := range c.Weights {
		keys = append(keys, k+"="+w.Name)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s/%s weights=[%s] params=%d", c.Pipeline, c.Revision, strings.Join(keys, ","), len(c.Params))
}

// Decode decodes the flattened config into out using mapstructure tags,
// converting loosely typed values ("0.5" -> 0.5).
func (c ResolvedConfig) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(c.Flatten()); err != nil {
		return fmt.Errorf("decode %s config: %w", c.Pipeline, err)
	}
	return nil
}

// HyperSpec describes one externally visible hyperparameter.
type HyperSpec struct {
	Name    string
	Type    string
	Default any
	Widget  map[string]any
}
