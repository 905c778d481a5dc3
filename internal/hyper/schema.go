package hyper

import (
	"sort"

	"flowd/internal/plugin"
)

// widgets maps a plugin widget name to the hyperparameter it exposes.
// Widgets with no entry (button_run, ...) expose nothing.
var widgets = map[string]plugin.HyperSpec{
	"edit_conf": {Name: "conf_threshold", Type: "number", Default: 0.25,
		Widget: map[string]any{"min": 0.0, "max": 1.0, "step": 0.01}},
	"edit_iou": {Name: "iou_threshold", Type: "number", Default: 0.45,
		Widget: map[string]any{"min": 0.0, "max": 1.0, "step": 0.01}},
	"edit_box_threshold": {Name: "box_threshold", Type: "number", Default: 0.3,
		Widget: map[string]any{"min": 0.0, "max": 1.0, "step": 0.01}},
	"edit_sim": {Name: "sim_threshold", Type: "number", Default: 0.8,
		Widget: map[string]any{"min": 0.0, "max": 1.0, "step": 0.01}},
	"edit_scale": {Name: "scale", Type: "number", Default: 1.0,
		Widget: map[string]any{"min": 0.1, "max": 10.0, "step": 0.1}},
	"edit_text":            {Name: "text_prompt", Type: "text", Default: ""},
	"select_prompt_mode":   {Name: "prompt_mode", Type: "text", Default: ""},
	"toggle_run_tracker":   {Name: "run_tracker", Type: "switch", Default: false},
	"toggle_mask_enhance":  {Name: "mask_enhance", Type: "switch", Default: false},
	"button_reset_tracker": {Name: "reset_tracker", Type: "button", Default: false},
	"toggle_preserve_existing_annotations": {Name: "toggle_preserve_existing_annotations",
		Type: "switch", Default: false},
	"button_add_point": {Name: "shapes_prompt", Type: "shapes", Default: []any{}},
	"button_add_rect":  {Name: "shapes_prompt", Type: "shapes", Default: []any{}},
	"upload_minor_image": {Name: "minor_image", Type: "image", Default: ""},
	"upload_mask_image":  {Name: "mask_image", Type: "image", Default: ""},
}

// FromPluginSchema lists the hyperparameters the plugin's widgets expose, in
// widget order, followed by the synthetic output_mode select.
func FromPluginSchema(p plugin.Plugin) []plugin.HyperSpec {
	var out []plugin.HyperSpec
	seen := make(map[string]bool)
	for _, w := range p.RequiredWidgets() {
		spec, ok := widgets[w]
		if !ok || seen[spec.Name] {
			continue
		}
		seen[spec.Name] = true
		out = append(out, spec)
	}
	return append(out, outputModeSpec(p.Meta()))
}

func outputModeSpec(meta plugin.Meta) plugin.HyperSpec {
	options := make([]map[string]any, 0, len(meta.OutputModes))
	ids := make([]string, 0, len(meta.OutputModes))
	for id := range meta.OutputModes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		options = append(options, map[string]any{"value": id, "label": meta.OutputModes[id]})
	}
	return plugin.HyperSpec{
		Name:    OutputMode,
		Type:    "select",
		Default: meta.DefaultOutputMode,
		Widget:  map[string]any{"options": options, "multiple": false},
	}
}
