package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowd/internal/catalog"
	"flowd/internal/plugin"
	"flowd/internal/session"
)

const doc = `{
  "categories": {"vision": {"detection": ["detector"]}},
  "weights": [
    {"id": "w1", "name": "resnet50", "local": "/w/r50.pt"},
    {"id": "w2", "name": "resnet101", "online": "https://example.com/r101.pt"},
    {"id": "w3", "name": "legacy", "local": "/w/legacy.pt", "enabled": false},
    {"id": "w4", "name": "vocab", "local": "/w/vocab.txt"}
  ],
  "revisions": [
    {"type": "detector", "name": "v1", "display_name": "Detector v1",
     "weights": {"backbone": ["w1", "w2", "w3"]},
     "params": {"input_size": 640, "classes": 80}},
    {"type": "detector", "name": "v2", "display_name": "Detector v2",
     "weights": {"backbone": ["w1"], "tokenizer": ["w4"]}}
  ]
}`

func revision(t *testing.T, name string) *catalog.Revision {
	t.Helper()
	c, err := catalog.Parse([]byte(doc), "json")
	require.NoError(t, err)
	rev, ok := c.Lookup("detector", name)
	require.True(t, ok)
	return rev
}

func TestResolve_NoWeightSelected(t *testing.T) {
	rev := revision(t, "v1")
	st := &session.SelectionState{}
	st.SelectRevision("vision", "detection", "detector", "v1")

	cfg, err := Resolve(rev, st)
	require.Error(t, err)
	var inc IncompleteWeightSelectionError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, "backbone", inc.Key)
	assert.Equal(t, plugin.ResolvedConfig{}, cfg)
}

func TestResolve_Merges(t *testing.T) {
	rev := revision(t, "v1")
	st := &session.SelectionState{}
	st.SetWeight("backbone", "w2")
	st.SetParam("input_size", 320)

	cfg, err := Resolve(rev, st)
	require.NoError(t, err)
	assert.Equal(t, "detector", cfg.Pipeline)
	assert.Equal(t, "v1", cfg.Revision)
	assert.Equal(t, 320, cfg.Params["input_size"])
	assert.Equal(t, float64(80), cfg.Params["classes"])
	assert.Equal(t, plugin.WeightConfig{Name: "resnet101", Online: "https://example.com/r101.pt"}, cfg.Weights["backbone"])

	flat := cfg.Flatten()
	assert.Equal(t, map[string]any{"local": "", "online": "https://example.com/r101.pt"}, flat["backbone"])
	assert.Equal(t, "Detector v1", flat["display_name"])
}

func TestResolve_UnknownParam(t *testing.T) {
	rev := revision(t, "v1")
	st := &session.SelectionState{}
	st.SetWeight("backbone", "w1")
	st.SetParam("bogus", 1)

	_, err := Resolve(rev, st)
	assert.True(t, IsUnknownParam(err))
}

func TestResolve_DisabledOrForeignWeight(t *testing.T) {
	rev := revision(t, "v1")
	for _, id := range []string{"w3", "w4"} {
		st := &session.SelectionState{}
		st.SetWeight("backbone", id)
		_, err := Resolve(rev, st)
		assert.True(t, IsIncompatibleWeight(err), id)
	}
}

func TestResolve_ReportsFirstMissingKeyInOrder(t *testing.T) {
	rev := revision(t, "v2")
	st := &session.SelectionState{}
	_, err := Resolve(rev, st)
	var inc IncompleteWeightSelectionError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, "backbone", inc.Key)

	st.SetWeight("backbone", "w1")
	_, err = Resolve(rev, st)
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, "tokenizer", inc.Key)

	st.SetWeight("tokenizer", "w4")
	cfg, err := Resolve(rev, st)
	require.NoError(t, err)
	assert.Len(t, cfg.Weights, 2)
}

func TestResolve_DoesNotMutateRevision(t *testing.T) {
	rev := revision(t, "v1")
	st := &session.SelectionState{}
	st.SetWeight("backbone", "w1")
	st.SetParam("input_size", 1)
	_, err := Resolve(rev, st)
	require.NoError(t, err)
	assert.Equal(t, float64(640), rev.Params["input_size"])
}
