package hyper

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowd/internal/plugin"
)

type fakePlugin struct {
	plugin.Base
	conf     float64
	iou      float64
	marks    []plugin.Mark
	preserve bool
	resets   int
}

func newFake(widgets ...string) *fakePlugin {
	return &fakePlugin{Base: plugin.NewBase(plugin.Meta{
		OutputModes:       map[string]string{"rectangle": "Rectangle", "polygon": "Polygon"},
		DefaultOutputMode: "rectangle",
	}, widgets...)}
}

func (f *fakePlugin) Predict(plugin.Args) (*plugin.Result, error) { return &plugin.Result{}, nil }
func (f *fakePlugin) Release() error                               { return nil }
func (f *fakePlugin) SetConfidence(v float64)                      { f.conf = v }
func (f *fakePlugin) SetIoU(v float64)                             { f.iou = v }
func (f *fakePlugin) SetMarks(m []plugin.Mark)                     { f.marks = m }
func (f *fakePlugin) SetPreserveExisting(on bool)                  { f.preserve = on }
func (f *fakePlugin) ResetTracker()                                { f.resets++ }

// bare implements only the required methods.
type bare struct{ plugin.Base }

func (bare) Predict(plugin.Args) (*plugin.Result, error) { return nil, nil }
func (bare) Release() error                               { return nil }

func pngBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestToPluginArgs_Dispatch(t *testing.T) {
	m := New(zerolog.Nop())
	p := newFake()
	args, err := m.ToPluginArgs(p, plugin.Strict, map[string]any{
		"origin_image":   "data:image/png;base64," + pngBase64(t),
		"minor_image":    pngBase64(t),
		"sim_threshold":  "0.7",
		"text_prompt":    "cat",
		"run_tracker":    "true",
		"conf_threshold": 0.4,
		"iou_threshold":  0.6,
		"shapes_prompt": []any{
			map[string]any{"type": "point", "data": []any{1, 2}},
			map[string]any{"type": "rectangle", "points": []any{[]any{5, 1}, []any{2, 8}}},
		},
		"toggle_preserve_existing_annotations": true,
		"reset_tracker":                        true,
		"output_mode":                          "polygon",
	})
	require.NoError(t, err)
	require.NotNil(t, args.Image)
	require.NotNil(t, args.Minor)
	assert.Nil(t, args.Mask)
	assert.Equal(t, 0.7, args.Float("sim_threshold", 0))
	assert.Equal(t, "cat", args.String("text_prompt", ""))
	assert.True(t, args.Bool("run_tracker", false))
	assert.Empty(t, args.Extra)

	assert.Equal(t, 0.4, p.conf)
	assert.Equal(t, 0.6, p.iou)
	assert.True(t, p.preserve)
	assert.Equal(t, 1, p.resets)
	assert.Equal(t, "polygon", p.OutputMode())
	require.Len(t, p.marks, 2)
	assert.Equal(t, []float64{1, 2}, p.marks[0].Data)
	assert.Equal(t, []float64{2, 1, 5, 8}, p.marks[1].Data)
}

func TestToPluginArgs_StrictRejectsUnknown(t *testing.T) {
	m := New(zerolog.Nop())
	p := newFake()
	_, err := m.ToPluginArgs(p, plugin.Strict, map[string]any{"conf_threshold": 0.9, "temperature": 0.2})
	require.Error(t, err)
	assert.True(t, IsUnknownHyperparameter(err))
	assert.Zero(t, p.conf, "no setter runs when any value is rejected")
}

func TestToPluginArgs_PermissivePassesThrough(t *testing.T) {
	m := New(zerolog.Nop())
	args, err := m.ToPluginArgs(&bare{}, plugin.Permissive, map[string]any{
		"temperature":    0.2,
		"conf_threshold": 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"temperature": 0.2}, args.Extra)
}

func TestToPluginArgs_MissingSetter(t *testing.T) {
	m := New(zerolog.Nop())
	_, err := m.ToPluginArgs(&bare{}, plugin.Strict, map[string]any{"reset_tracker": true})
	assert.True(t, IsUnknownHyperparameter(err))
}

func TestToPluginArgs_InvalidValues(t *testing.T) {
	m := New(zerolog.Nop())
	cases := map[string]any{
		"origin_image":  "not base64!",
		"sim_threshold": "high",
		"shapes_prompt": []any{map[string]any{"type": "circle"}},
	}
	for name, v := range cases {
		p := newFake()
		_, err := m.ToPluginArgs(p, plugin.Strict, map[string]any{name: v, "conf_threshold": 0.1})
		assert.True(t, IsInvalidValue(err), "%s: %v", name, err)
		assert.Zero(t, p.conf, name)
	}

	p := newFake()
	_, err := m.ToPluginArgs(p, plugin.Strict, map[string]any{"output_mode": "mask"})
	var ome plugin.OutputModeError
	require.ErrorAs(t, err, &ome)
	assert.Equal(t, "rectangle", p.OutputMode())
}

func TestFromPluginSchema(t *testing.T) {
	p := newFake("edit_conf", "button_run", "button_add_point", "button_add_rect", "upload_minor_image")
	specs := FromPluginSchema(p)
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"conf_threshold", "shapes_prompt", "minor_image", OutputMode}, names)
	last := specs[len(specs)-1]
	assert.Equal(t, "select", last.Type)
	assert.Equal(t, "rectangle", last.Default)
}

// Every listed hyperparameter must be accepted by a strict plugin.
func TestSchemaRoundTrip(t *testing.T) {
	var all []string
	for w := range widgets {
		all = append(all, w)
	}
	p := newFake(all...)
	m := New(zerolog.Nop())
	img := pngBase64(t)
	for _, spec := range FromPluginSchema(p) {
		v := spec.Default
		switch spec.Type {
		case "image":
			v = img
		case "shapes":
			v = []any{map[string]any{"type": "point", "data": []any{1, 1}}}
		}
		_, err := m.ToPluginArgs(p, plugin.Strict, map[string]any{spec.Name: v})
		assert.NoError(t, err, spec.Name)
	}
}
