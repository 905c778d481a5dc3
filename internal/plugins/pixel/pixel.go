// Package pixel implements the pixel_analysis plugin: image level checks
// that need no learned weights. In saturation mode it flags images whose
// mean saturation suggests a web or screen capture; in hash mode it compares
// the input against a reference image using a 64-bit average hash.
package pixel

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"flowd/internal/plugin"
)

// Tag is the registry tag of this plugin.
const Tag = "pixel_analysis"

const (
	ModeSaturation = "saturation"
	ModeHash       = "hash"
)

const (
	defaultHashThreshold       = 5
	defaultSaturationThreshold = 100
)

type config struct {
	HashThreshold       int                  `mapstructure:"hash_threshold"`
	SaturationThreshold float64              `mapstructure:"saturation_threshold"`
	Reference           *plugin.WeightConfig `mapstructure:"reference"`
}

// Analyzer is the pixel_analysis plugin.
type Analyzer struct {
	plugin.Base
	hashThreshold       int
	saturationThreshold float64
	reference           image.Image
	deps                plugin.Deps
}

// New builds an Analyzer. The optional "reference" weight is an image used
// by hash mode when the request carries no minor image.
func New(cfg plugin.ResolvedConfig, deps plugin.Deps) (plugin.Plugin, error) {
	c := config{HashThreshold: defaultHashThreshold, SaturationThreshold: defaultSaturationThreshold}
	if err := cfg.Decode(&c); err != nil {
		return nil, err
	}
	a := &Analyzer{
		Base: plugin.NewBase(plugin.Meta{
			OutputModes: map[string]string{
				ModeSaturation: "Saturation analysis",
				ModeHash:       "Similarity hash",
			},
			DefaultOutputMode: ModeSaturation,
		}, "upload_minor_image", "button_run"),
		hashThreshold:       c.HashThreshold,
		saturationThreshold: c.SaturationThreshold,
		deps:                deps,
	}
	if wc, ok := cfg.Weights["reference"]; ok {
		img, err := a.loadReference(cfg.Revision, wc)
		if err != nil {
			return nil, fmt.Errorf("load reference image: %w", err)
		}
		a.reference = img
	}
	deps.Emit(fmt.Sprintf("%s ready (hash<=%d, saturation>%.0f)", cfg.DisplayName, a.hashThreshold, a.saturationThreshold))
	return a, nil
}

func (a *Analyzer) loadReference(revision string, wc plugin.WeightConfig) (image.Image, error) {
	if a.deps.Weights == nil {
		return nil, errors.New("no weight fetcher configured")
	}
	p, err := a.deps.Weights.Path(context.Background(), revision, wc, a.deps.Sink)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func (a *Analyzer) Predict(args plugin.Args) (*plugin.Result, error) {
	if args.Image == nil {
		return nil, errors.New("image is required")
	}
	switch a.OutputMode() {
	case ModeHash:
		minor := args.Minor
		if minor == nil {
			minor = a.reference
		}
		if minor == nil {
			return nil, errors.New("minor image is required in hash mode")
		}
		d := Distance(AverageHash(args.Image), AverageHash(minor))
		similar := d < a.hashThreshold
		desc := "not similar"
		if similar {
			desc = "similar image"
		}
		return &plugin.Result{
			Shapes:      []plugin.Shape{{Label: label(similar), Score: float64(d)}},
			Description: desc,
			Extra:       map[string]any{"hash_distance": d},
		}, nil
	case ModeSaturation:
		brightness, saturation := BrightnessSaturation(args.Image)
		web := saturation > a.saturationThreshold
		desc := "not a web image"
		if web {
			desc = "suspected web image"
		}
		return &plugin.Result{
			Shapes:      []plugin.Shape{{Label: label(web), Score: saturation}},
			Description: desc,
			Extra:       map[string]any{"brightness": brightness, "saturation": saturation},
		}, nil
	}
	return &plugin.Result{}, nil
}

func (a *Analyzer) Release() error {
	a.reference = nil
	return nil
}

func label(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
