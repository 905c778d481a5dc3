// Package catalog holds the read-only Category -> Task -> Pipeline -> Revision
// tree that describes every selectable model configuration, together with the
// weight records revisions bind to their symbolic weight keys.
//
// The catalog is parsed once at process start and never mutated afterwards.
// Revisions expose derived views (flattened static config, public weight,
// param and hyperparameter lists) which are computed on first access and
// cached for the lifetime of the revision.
package catalog

import (
	"sort"
	"sync"

	"flowd/internal/plugin"
	"flowd/pkg/types"
)

// Unknown is the category and task used for pipeline tags that no category
// mapping mentions.
const Unknown = "unknown"

// WeightRecord is a concrete weight artifact. Many revisions may reference
// the same record through different weight keys.
type WeightRecord struct {
	ID      string
	Name    string
	Local   string
	Online  string
	Enabled bool
}

// Config returns the access configuration handed to plugins.
func (w *WeightRecord) Config() plugin.WeightConfig {
	return plugin.WeightConfig{Name: w.Name, Local: w.Local, Online: w.Online}
}

// HyperDecl declares a runtime hyperparameter on a revision.
type HyperDecl struct {
	Type    string
	Default any
	Widget  map[string]any
}

// Revision is a versioned configuration of a pipeline.
type Revision struct {
	ID          int
	Name        string
	DisplayName string
	Pipeline    string
	// WeightKeys maps each symbolic weight key to its authorized candidates.
	WeightKeys map[string][]*WeightRecord
	Params     map[string]any
	Hypers     map[string]HyperDecl

	flatOnce sync.Once
	flat     map[string]any

	weightsOnce sync.Once
	weights     []types.WeightOption

	paramsOnce sync.Once
	params     []types.ParamValue

	hypersOnce sync.Once
	hypers     []types.HyperSpec
}

// Ref returns the wire reference of the revision.
func (r *Revision) Ref() types.RevisionRef {
	return types.RevisionRef{Pipeline: r.Pipeline, Name: r.Name, DisplayName: r.DisplayName}
}

// SortedWeightKeys returns the declared weight keys in sorted order.
func (r *Revision) SortedWeightKeys() []string {
	keys := make([]string, 0, len(r.WeightKeys))
	for k := range r.WeightKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasWeightKey reports whether key is declared.
func (r *Revision) HasWeightKey(key string) bool {
	_, ok := r.WeightKeys[key]
	return ok
}

// Candidate returns the authorized candidate for key with the given id.
func (r *Revision) Candidate(key, weightID string) (*WeightRecord, bool) {
	for _, w := range r.WeightKeys[key] {
		if w.ID == weightID {
			return w, true
		}
	}
	return nil, false
}

// CandidateNamed returns the candidate for key whose name, or failing that
// whose id, is nameOrID. Names are matched within the key's candidates, so a
// name shared with a record outside them does not shadow the candidate.
func (r *Revision) CandidateNamed(key, nameOrID string) (*WeightRecord, bool) {
	for _, w := range r.WeightKeys[key] {
		if w.Name == nameOrID {
			return w, true
		}
	}
	for _, w := range r.WeightKeys[key] {
		if w.ID == nameOrID {
			return w, true
		}
	}
	return nil, false
}

// HasParam reports whether a static parameter is declared.
func (r *Revision) HasParam(name string) bool {
	_, ok := r.Params[name]
	return ok
}

// HasHyper reports whether a hyperparameter is declared.
func (r *Revision) HasHyper(name string) bool {
	_, ok := r.Hypers[name]
	return ok
}

// FlattenedStaticConfig returns {type, name, display_name, <params>, <weight key>: {}}.
// The map is shared; callers must copy before mutating.
func (r *Revision) FlattenedStaticConfig() map[string]any {
	r.flatOnce.Do(func() {
		m := make(map[string]any, 3+len(r.Params)+len(r.WeightKeys))
		m["type"] = r.Pipeline
		m["name"] = r.Name
		m["display_name"] = r.DisplayName
		for k, v := range r.Params {
			m[k] = v
		}
		for k := range r.WeightKeys {
			m[k] = map[string]any{}
		}
		r.flat = m
	})
	return r.flat
}

// PublicWeightsView lists every (weight key, candidate) pair.
func (r *Revision) PublicWeightsView() []types.WeightOption {
	r.weightsOnce.Do(func() {
		var out []types.WeightOption
		for _, k := range r.SortedWeightKeys() {
			for _, w := range r.WeightKeys[k] {
				out = append(out, types.WeightOption{Key: k, Name: w.Name, Enabled: w.Enabled})
			}
		}
		r.weights = out
	})
	return append([]types.WeightOption(nil), r.weights...)
}

// PublicParamsView lists the static parameters with their defaults.
func (r *Revision) PublicParamsView() []types.ParamValue {
	r.paramsOnce.Do(func() {
		r.params = paramValues(r.Params)
	})
	return append([]types.ParamValue(nil), r.params...)
}

// PublicHypersView lists the declared hyperparameters.
func (r *Revision) PublicHypersView() []types.HyperSpec {
	r.hypersOnce.Do(func() {
		names := make([]string, 0, len(r.Hypers))
		for n := range r.Hypers {
			names = append(names, n)
		}
		sort.Strings(names)
		out := make([]types.HyperSpec, 0, len(names))
		for _, n := range names {
			h := r.Hypers[n]
			out = append(out, types.HyperSpec{Name: n, Type: h.Type, Default: h.Default, Widget: h.Widget})
		}
		r.hypers = out
	})
	return append([]types.HyperSpec(nil), r.hypers...)
}

// Pipeline groups the revisions of one plugin tag.
type Pipeline struct {
	Tag         string
	DisplayName string
	Revisions   []*Revision
}

// Revision returns the revision with the given name.
func (p *Pipeline) Revision(name string) (*Revision, bool) {
	for _, r := range p.Revisions {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Task groups pipelines.
type Task struct {
	Name      string
	Pipelines []*Pipeline
}

// Category groups tasks.
type Category struct {
	Name  string
	Tasks []*Task
}

// Catalog is the parsed, immutable configuration tree.
type Catalog struct {
	Categories []*Category
	// Skipped holds the entries dropped while parsing, one error each.
	Skipped []error

	mapping   map[string]map[string][]string
	pipelines map[string]*Pipeline
	weights   []*WeightRecord
}

// FindPipelineType returns the category and task a pipeline tag is filed
// under. The scan is linear; the catalog is small and built once.
func (c *Catalog) FindPipelineType(tag string) (category, task string) {
	return findPipelineType(c.mapping, tag)
}

func findPipelineType(mapping map[string]map[string][]string, tag string) (string, string) {
	for _, cat := range sortedKeys(mapping) {
		tasks := mapping[cat]
		for _, t := range sortedKeys(tasks) {
			for _, p := range tasks[t] {
				if p == tag {
					return cat, t
				}
			}
		}
	}
	return Unknown, Unknown
}

// Pipeline returns the pipeline registered under tag.
func (c *Catalog) Pipeline(tag string) (*Pipeline, bool) {
	p, ok := c.pipelines[tag]
	return p, ok
}

// Lookup returns the revision named rev of the pipeline tagged pipeline.
func (c *Catalog) Lookup(pipeline, rev string) (*Revision, bool) {
	p, ok := c.pipelines[pipeline]
	if !ok {
		return nil, false
	}
	return p.Revision(rev)
}

// Task returns the task node for category/task.
func (c *Catalog) Task(category, task string) (*Task, bool) {
	for _, cat := range c.Categories {
		if cat.Name != category {
			continue
		}
		for _, t := range cat.Tasks {
			if t.Name == task {
				return t, true
			}
		}
	}
	return nil, false
}

// Weight finds a weight record by name, falling back to id.
func (c *Catalog) Weight(nameOrID string) (*WeightRecord, bool) {
	for _, w := range c.weights {
		if w.Name == nameOrID {
			return w, true
		}
	}
	for _, w := range c.weights {
		if w.ID == nameOrID {
			return w, true
		}
	}
	return nil, false
}

// Weights returns all weight records.
func (c *Catalog) Weights() []*WeightRecord {
	return append([]*WeightRecord(nil), c.weights...)
}

// Revisions returns every revision in catalog order.
func (c *Catalog) Revisions() []*Revision {
	var out []*Revision
	for _, cat := range c.Categories {
		for _, t := range cat.Tasks {
			for _, p := range t.Pipelines {
				out = append(out, p.Revisions...)
			}
		}
	}
	return out
}

// Tree renders the catalog for the transport layer.
func (c *Catalog) Tree() []types.Category {
	out := make([]types.Category, 0, len(c.Categories))
	for _, cat := range c.Categories {
		tc := types.Category{Name: cat.Name}
		for _, t := range cat.Tasks {
			tt := types.Task{Name: t.Name}
			for _, p := range t.Pipelines {
				tp := types.Pipeline{Tag: p.Tag, DisplayName: p.DisplayName}
				for _, r := range p.Revisions {
					tp.Revisions = append(tp.Revisions, r.Ref())
				}
				tt.Pipelines = append(tt.Pipelines, tp)
			}
			tc.Tasks = append(tc.Tasks, tt)
		}
		out = append(out, tc)
	}
	return out
}

func paramValues(m map[string]any) []types.ParamValue {
	out := make([]types.ParamValue, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, types.ParamValue{Name: k, Value: m[k]})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
