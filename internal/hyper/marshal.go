// Package hyper translates named hyperparameter values into plugin
// arguments and setter calls, and derives a plugin's public hyperparameter
// schema from the widgets it declares.
package hyper

import (
	"errors"
	"image"
	"sort"

	"github.com/rs/zerolog"

	"flowd/internal/plugin"
)

// OutputMode is the name of the synthetic output mode hyperparameter.
const OutputMode = "output_mode"

var errNoSetter = errors.New("plugin does not support this hyperparameter")

// handler validates one value. It writes plain arguments into a and returns
// the setter call to run once every value has been accepted.
type handler func(p plugin.Plugin, v any, a *plugin.Args) (apply func(), err error)

var dispatch = map[string]handler{
	"origin_image": imageArg(func(a *plugin.Args) *image.Image { return &a.Image }),
	"mask_image":   imageArg(func(a *plugin.Args) *image.Image { return &a.Mask }),
	"minor_image":  imageArg(func(a *plugin.Args) *image.Image { return &a.Minor }),

	"sim_threshold": kwarg("sim_threshold", toFloat),
	"scale":         kwarg("scale", toFloat),
	"text_prompt":   kwarg("text_prompt", toString),
	"prompt_mode":   kwarg("prompt_mode", toString),
	"run_tracker":   kwarg("run_tracker", toBool),
	"mask_enhance":  kwarg("mask_enhance", toBool),

	"conf_threshold": func(p plugin.Plugin, v any, _ *plugin.Args) (func(), error) {
		s, ok := p.(plugin.ConfidenceSetter)
		if !ok {
			return nil, errNoSetter
		}
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return func() { s.SetConfidence(f) }, nil
	},
	"iou_threshold": iouSetter,
	"box_threshold": iouSetter,
	"shapes_prompt": func(p plugin.Plugin, v any, _ *plugin.Args) (func(), error) {
		s, ok := p.(plugin.MarksSetter)
		if !ok {
			return nil, errNoSetter
		}
		marks, err := decodeMarks(v)
		if err != nil {
			return nil, err
		}
		return func() { s.SetMarks(marks) }, nil
	},
	"toggle_preserve_existing_annotations": func(p plugin.Plugin, v any, _ *plugin.Args) (func(), error) {
		s, ok := p.(plugin.PreserveAnnotationsSetter)
		if !ok {
			return nil, errNoSetter
		}
		on, err := toBool(v)
		if err != nil {
			return nil, err
		}
		return func() { s.SetPreserveExisting(on) }, nil
	},
	"reset_tracker": func(p plugin.Plugin, v any, _ *plugin.Args) (func(), error) {
		s, ok := p.(plugin.TrackerResetter)
		if !ok {
			return nil, errNoSetter
		}
		on, err := toBool(v)
		if err != nil || !on {
			return nil, err
		}
		return s.ResetTracker, nil
	},
	OutputMode: func(p plugin.Plugin, v any, _ *plugin.Args) (func(), error) {
		s, ok := p.(plugin.OutputModeSetter)
		if !ok {
			return nil, errNoSetter
		}
		mode, err := toString(v)
		if err != nil {
			return nil, err
		}
		if _, ok := p.Meta().OutputModes[mode]; !ok {
			return nil, plugin.OutputModeError{Mode: mode}
		}
		return func() { _ = s.SetOutputMode(mode) }, nil
	},
}

// Known reports whether name is in the dispatch table.
func Known(name string) bool {
	_, ok := dispatch[name]
	return ok
}

// Marshaler converts named hyperparameters into plugin arguments.
type Marshaler struct {
	log zerolog.Logger
}

// New returns a Marshaler logging skipped values to log.
func New(log zerolog.Logger) *Marshaler {
	return &Marshaler{log: log}
}

// ToPluginArgs validates and decodes every value first and only then runs
// the setter calls, so a rejected value leaves the plugin untouched.
//
// Names outside the dispatch table go to Args.Extra in permissive mode and
// fail with UnknownHyperparameterError in strict mode. A name whose setter the
// plugin lacks fails the same way in strict mode and is skipped in permissive
// mode.
func (m *Marshaler) ToPluginArgs(p plugin.Plugin, mode plugin.Mode, named map[string]any) (plugin.Args, error) {
	args := plugin.Args{Kwargs: map[string]any{}, Extra: map[string]any{}}
	names := make([]string, 0, len(named))
	for n := range named {
		names = append(names, n)
	}
	sort.Strings(names)

	var effects []func()
	for _, name := range names {
		v := named[name]
		h, ok := dispatch[name]
		if !ok {
			if mode == plugin.Permissive {
				args.Extra[name] = v
				continue
			}
			return plugin.Args{}, UnknownHyperparameterError{Name: name}
		}
		apply, err := h(p, v, &args)
		switch {
		case errors.Is(err, errNoSetter):
			if mode == plugin.Permissive {
				m.log.Debug().Str("hyper", name).Msg("plugin has no setter; skipped")
				continue
			}
			return plugin.Args{}, UnknownHyperparameterError{Name: name}
		case err != nil:
			var ome plugin.OutputModeError
			if errors.As(err, &ome) {
				return plugin.Args{}, err
			}
			return plugin.Args{}, InvalidValueError{Name: name, Err: err}
		}
		if apply != nil {
			effects = append(effects, apply)
		}
	}
	for _, apply := range effects {
		apply()
	}
	return args, nil
}

func imageArg(field func(a *plugin.Args) *image.Image) handler {
	return func(_ plugin.Plugin, v any, a *plugin.Args) (func(), error) {
		img, err := DecodeImage(v)
		if err != nil {
			return nil, err
		}
		*field(a) = img
		return nil, nil
	}
}

func kwarg[T any](name string, conv func(any) (T, error)) handler {
	return func(_ plugin.Plugin, v any, a *plugin.Args) (func(), error) {
		out, err := conv(v)
		if err != nil {
			return nil, err
		}
		a.Kwargs[name] = out
		return nil, nil
	}
}

func iouSetter(p plugin.Plugin, v any, _ *plugin.Args) (func(), error) {
	s, ok := p.(plugin.IoUSetter)
	if !ok {
		return nil, errNoSetter
	}
	f, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	return func() { s.SetIoU(f) }, nil
}
