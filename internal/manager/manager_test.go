package manager

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"flowd/internal/catalog"
	"flowd/internal/hyper"
	"flowd/internal/plugin"
	"flowd/internal/resolver"
	"flowd/pkg/types"
)

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without catalog")
	}
	cat, _ := catalog.Parse([]byte(testCatalog), "json")
	if _, err := New(Config{Catalog: cat}); err == nil {
		t.Fatalf("expected error without registry")
	}
}

func TestLoad_DetectorScenario(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.selectDetector(t, "s1", true)

	resp, err := fx.m.LoadModel(ctx, "s1")
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if resp.Pipeline != "detector" || resp.Revision != "v1" || resp.OpID == "" {
		t.Fatalf("unexpected load response: %+v", resp)
	}
	p := fx.det.last()
	if p == nil {
		t.Fatalf("factory not called")
	}
	want := map[string]any{
		"type":         "detector",
		"name":         "v1",
		"display_name": "Detector v1",
		"threshold":    0.5,
		"backbone":     map[string]any{"local": "/w/w1.pt", "online": ""},
	}
	if got := p.cfg.Flatten(); !reflect.DeepEqual(got, want) {
		t.Fatalf("resolved config mismatch:\n got %v\nwant %v", got, want)
	}
	if s := fx.m.Snapshot(); s.State != StateLoaded || s.CurrentModel == nil || s.CurrentModel.Plugin != "detector" {
		t.Fatalf("expected loaded snapshot, got %+v", s)
	}
}

func TestLoad_WithoutWeightSelection(t *testing.T) {
	fx := newFixture(t)
	fx.selectDetector(t, "s1", false)

	_, err := fx.m.LoadModel(context.Background(), "s1")
	var inc resolver.IncompleteWeightSelectionError
	if !errors.As(err, &inc) || inc.Key != "backbone" {
		t.Fatalf("expected IncompleteWeightSelectionError(backbone), got %v", err)
	}
	if fx.det.last() != nil {
		t.Fatalf("plugin must not be constructed")
	}
	if s := fx.m.Snapshot(); s.State != StateUnloaded {
		t.Fatalf("state = %s, want unloaded", s.State)
	}
}

func TestLoad_NoSelection(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.m.LoadModel(context.Background(), "fresh")
	if !IsSelection(err) {
		t.Fatalf("expected SelectionError, got %v", err)
	}
}

func TestSwitchWeight_IncompatibleLeavesStateUnchanged(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.selectDetector(t, "s1", true)

	err := fx.m.SwitchWeight(ctx, "s1", "backbone", "W3")
	if !resolver.IsIncompatibleWeight(err) {
		t.Fatalf("expected IncompatibleWeightError, got %v", err)
	}
	cur, err := fx.m.Current(ctx, "s1")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if len(cur.Weights) != 1 || cur.Weights[0].Name != "W1" {
		t.Fatalf("weights changed: %+v", cur.Weights)
	}

	if err := fx.m.SwitchWeight(ctx, "s1", "backbone", "nope"); !catalog.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if err := fx.m.SwitchWeight(ctx, "s1", "neck", "W1"); !resolver.IsIncompatibleWeight(err) {
		t.Fatalf("expected IncompatibleWeightError for undeclared key, got %v", err)
	}
	if err := fx.m.SwitchWeight(ctx, "s1", "backbone", "W2"); err != nil {
		t.Fatalf("SwitchWeight W2: %v", err)
	}
}

func TestSelectPipelineRevision(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	schema, err := fx.m.SelectPipelineRevision(ctx, "s1", "detector", "v1")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(schema.Weights) != 2 || len(schema.Params) != 1 || schema.Params[0].Name != "threshold" {
		t.Fatalf("unexpected schema: %+v", schema)
	}
	cur, _ := fx.m.Current(ctx, "s1")
	if cur.Category != "vision" || cur.Task != "detection" {
		t.Fatalf("category/task not recorded: %+v", cur)
	}

	for _, tc := range [][2]string{{"detector", "v9"}, {"nope", "v1"}} {
		if _, err := fx.m.SelectPipelineRevision(ctx, "s1", tc[0], tc[1]); !IsSelection(err) {
			t.Fatalf("%v: expected SelectionError, got %v", tc, err)
		}
	}
	cur, _ = fx.m.Current(ctx, "s1")
	if cur.Pipeline != "detector" || cur.Revision != "v1" {
		t.Fatalf("failed selection mutated state: %+v", cur)
	}
}

func TestSelectTask(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	refs, err := fx.m.SelectTask(ctx, "s1", "vision", "detection")
	if err != nil {
		t.Fatalf("SelectTask: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 revisions, got %+v", refs)
	}
	if _, err := fx.m.SelectTask(ctx, "s1", "vision", "nope"); !IsSelection(err) {
		t.Fatalf("expected SelectionError, got %v", err)
	}
}

func TestSwitchParam(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.selectDetector(t, "s1", true)

	if err := fx.m.SwitchParam(ctx, "s1", "bogus", 1); !resolver.IsUnknownParam(err) {
		t.Fatalf("expected UnknownParamError, got %v", err)
	}
	if err := fx.m.SwitchParam(ctx, "s1", "threshold", 0.9); err != nil {
		t.Fatalf("SwitchParam: %v", err)
	}
	if _, err := fx.m.LoadModel(ctx, "s1"); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if got := fx.det.last().cfg.Params["threshold"]; got != 0.9 {
		t.Fatalf("threshold = %v, want 0.9", got)
	}
}

func TestSwitchHyper(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.selectDetector(t, "s1", true)

	if err := fx.m.SwitchHyper(ctx, "s1", "sim_threshold", 0.3); err != nil {
		t.Fatalf("declared hyper: %v", err)
	}
	if err := fx.m.SwitchHyper(ctx, "s1", "conf_threshold", 0.3); !hyper.IsUnknownHyperparameter(err) {
		t.Fatalf("expected UnknownHyperparameterError before load, got %v", err)
	}
	if _, err := fx.m.LoadModel(ctx, "s1"); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if err := fx.m.SwitchHyper(ctx, "s1", "conf_threshold", 0.3); err != nil {
		t.Fatalf("schema hyper after load: %v", err)
	}
	if err := fx.m.SwitchHyper(ctx, "s1", "nope", 1); !hyper.IsUnknownHyperparameter(err) {
		t.Fatalf("expected UnknownHyperparameterError, got %v", err)
	}
}

func TestLoad_SchemaAndSeededHypers(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.selectDetector(t, "s1", true)
	if err := fx.m.SwitchHyper(ctx, "s1", "sim_threshold", 0.3); err != nil {
		t.Fatalf("SwitchHyper: %v", err)
	}
	resp, err := fx.m.LoadModel(ctx, "s1")
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	var names []string
	for _, h := range resp.Hypers {
		names = append(names, h.Name)
	}
	want := []string{"sim_threshold", "conf_threshold", hyper.OutputMode}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("schema names = %v, want %v", names, want)
	}
	cur, _ := fx.m.Current(ctx, "s1")
	if cur.Hypers["sim_threshold"] != 0.3 {
		t.Fatalf("session value overwritten: %v", cur.Hypers)
	}
	if cur.Hypers["conf_threshold"] != 0.25 || cur.Hypers[hyper.OutputMode] != "rectangle" {
		t.Fatalf("defaults not seeded: %v", cur.Hypers)
	}
}

func TestLoad_ConstructorFailureLeavesUnloaded(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.load(t, "s1")
	first := fx.det.last()

	fx.det.mu.Lock()
	fx.det.err = errors.New("weights corrupt")
	fx.det.mu.Unlock()
	_, err := fx.m.LoadModel(ctx, "s1")
	var lerr ModelLoadError
	if !errors.As(err, &lerr) || lerr.Tag != "detector" {
		t.Fatalf("expected ModelLoadError(detector), got %v", err)
	}
	if !first.released.Load() {
		t.Fatalf("previous handle must be released before the new load")
	}
	st := fx.m.Status()
	if st.State != string(StateUnloaded) || st.LastError == "" {
		t.Fatalf("unexpected status after failed load: %+v", st)
	}
	if _, err := fx.m.Predict(ctx, "s1", types.PredictRequest{}); !IsModelNotLoaded(err) {
		t.Fatalf("expected ModelNotLoadedError, got %v", err)
	}
}

func TestLoad_ConstructorPanicIsRecovered(t *testing.T) {
	fx := newFixture(t)
	fx.det.panics = true
	fx.selectDetector(t, "s1", true)
	_, err := fx.m.LoadModel(context.Background(), "s1")
	if !IsModelLoad(err) {
		t.Fatalf("expected ModelLoadError, got %v", err)
	}
	if !fx.m.Ready() {
		t.Fatalf("manager should be ready after failed load")
	}
}

func TestLoad_DependencyUnavailableStatus(t *testing.T) {
	err := ModelLoadError{Tag: "llama_text", Err: plugin.DependencyUnavailableError{Msg: "not built"}}
	if err.StatusCode() != 503 {
		t.Fatalf("status = %d, want 503", err.StatusCode())
	}
	if (ModelLoadError{Tag: "x", Err: errors.New("x")}).StatusCode() != 502 {
		t.Fatalf("want 502 for ordinary load errors")
	}
}

func TestLoad_SwapReleasesPrevious(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.load(t, "s1")
	first := fx.det.last()

	if _, err := fx.m.SelectPipelineRevision(ctx, "s2", "generic", "v1"); err != nil {
		t.Fatalf("select generic: %v", err)
	}
	if _, err := fx.m.LoadModel(ctx, "s2"); err != nil {
		t.Fatalf("load generic: %v", err)
	}
	if !first.released.Load() {
		t.Fatalf("detector not released on swap")
	}
	if st := fx.m.Status(); st.Plugin != "generic" || st.LoadsTotal != 2 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestUnload_Idempotent(t *testing.T) {
	fx := newFixture(t)
	fx.load(t, "s1")
	p := fx.det.last()
	if err := fx.m.Unload(); err != nil {
		t.Fatalf("Unload: %v", err)
	}
	if !p.released.Load() {
		t.Fatalf("plugin not released")
	}
	if err := fx.m.Unload(); err != nil {
		t.Fatalf("second Unload: %v", err)
	}
	if s := fx.m.Snapshot(); s.State != StateUnloaded || s.CurrentModel != nil {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func TestEvents_LoadAndUnload(t *testing.T) {
	fx := newFixture(t)
	fx.load(t, "s1")
	_ = fx.m.Unload()
	want := map[string]bool{EventLoadStart: false, EventPluginMessage: false, EventLoadReady: false, EventUnload: false}
	for _, n := range fx.pub.Names() {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for k, v := range want {
		if !v {
			t.Fatalf("expected event %q; got %v", k, fx.pub.Names())
		}
	}
}
