// Package plugin defines the contract every inference back-end satisfies and
// the registry that maps a plugin tag to its constructor.
//
// A plugin is constructed from a fully resolved configuration, receives
// marshaled arguments on every prediction and releases its resources when the
// manager swaps it out. Runtime knobs that are not plain arguments (output
// mode, confidence, tracker reset) are reached through the optional setter
// interfaces below; the hyperparameter marshaler discovers them by type
// assertion.
package plugin

import (
	"context"
	"image"

	"github.com/rs/zerolog"
)

// Plugin is the contract every registered implementation satisfies.
type Plugin interface {
	// Predict runs inference. It is never called concurrently.
	Predict(args Args) (*Result, error)
	// Release frees the resources held by the instance.
	Release() error
	// RequiredWidgets lists the widgets the plugin needs exposed to users.
	RequiredWidgets() []string
	// Meta reports static plugin metadata.
	Meta() Meta
}

// Meta is static metadata declared by a plugin implementation.
type Meta struct {
	// OutputModes maps output mode id to its display label.
	OutputModes       map[string]string
	DefaultOutputMode string
}

// Args is the marshaled input of one prediction.
type Args struct {
	Image image.Image
	Mask  image.Image
	Minor image.Image
	// Kwargs holds named predict-time arguments (sim_threshold, text_prompt, ...).
	Kwargs map[string]any
	// Extra holds values passed through verbatim by permissive marshaling.
	Extra map[string]any
}

// Float returns a float kwarg or def when absent.
func (a Args) Float(name string, def float64) float64 {
	if v, ok := a.Kwargs[name].(float64); ok {
		return v
	}
	return def
}

// String returns a string kwarg or def when absent.
func (a Args) String(name, def string) string {
	if v, ok := a.Kwargs[name].(string); ok && v != "" {
		return v
	}
	return def
}

// Bool returns a bool kwarg or def when absent.
func (a Args) Bool(name string, def bool) bool {
	if v, ok := a.Kwargs[name].(bool); ok {
		return v
	}
	return def
}

// Result is the plugin-defined structured output of a prediction.
type Result struct {
	Shapes      []Shape
	Description string
	Extra       map[string]any
}

// Shape is a single labeled output primitive.
type Shape struct {
	Label     string
	Score     float64
	ShapeType string
	Points    [][2]float64
	Visible   bool
	GroupID   *int
}

// Mark is a user supplied prompt (a point or an xyxy rectangle).
type Mark struct {
	Type string
	Data []float64
}

// MessageSink receives human readable status messages from a plugin.
type MessageSink func(msg string)

// WeightFetcher turns a weight config into a local file path, downloading
// the artifact when only a remote URL is available.
type WeightFetcher interface {
	Path(ctx context.Context, revision string, wc WeightConfig, sink MessageSink) (string, error)
}

// Deps are the collaborators handed to a plugin factory.
type Deps struct {
	Sink    MessageSink
	Weights WeightFetcher
	Logger  zerolog.Logger
}

// Emit forwards msg to the sink if one is set.
func (d Deps) Emit(msg string) {
	if d.Sink != nil {
		d.Sink(msg)
	}
}

// OutputModeSetter is implemented by plugins with selectable output modes.
type OutputModeSetter interface {
	SetOutputMode(mode string) error
}

// ConfidenceSetter is implemented by plugins with a confidence threshold.
type ConfidenceSetter interface {
	SetConfidence(v float64)
}

// IoUSetter is implemented by plugins with an overlap threshold.
type IoUSetter interface {
	SetIoU(v float64)
}

// MarksSetter is implemented by promptable plugins.
type MarksSetter interface {
	SetMarks(marks []Mark)
}

// TrackerResetter is implemented by tracking plugins.
type TrackerResetter interface {
	ResetTracker()
}

// PreserveAnnotationsSetter is implemented by plugins that can keep
// annotations from previous runs.
type PreserveAnnotationsSetter interface {
	SetPreserveExisting(on bool)
}
