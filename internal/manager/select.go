package manager

import (
	"context"
	"sort"

	"flowd/internal/catalog"
	"flowd/internal/hyper"
	"flowd/internal/resolver"
	"flowd/internal/session"
	"flowd/pkg/types"
)

// SelectTask records category/task for the session and lists the revisions
// reachable from it.
func (m *Manager) SelectTask(ctx context.Context, sid, category, task string) ([]types.RevisionRef, error) {
	t, ok := m.catalog.Task(category, task)
	if !ok {
		return nil, SelectionError{Reason: "unknown task " + category + "/" + task}
	}
	if _, err := m.sessions.Update(ctx, sid, func(st *session.SelectionState) error {
		st.SelectTask(category, task)
		return nil
	}); err != nil {
		return nil, err
	}
	var out []types.RevisionRef
	for _, p := range t.Pipelines {
		for _, r := range p.Revisions {
			out = append(out, r.Ref())
		}
	}
	return out, nil
}

// SelectPipelineRevision selects a revision of a pipeline and resets the
// session's weight, param and hyper choices. It returns the weight
// candidates and static parameters the session may change before loading.
func (m *Manager) SelectPipelineRevision(ctx context.Context, sid, pipeline, revision string) (types.SelectionSchema, error) {
	if _, ok := m.catalog.Pipeline(pipeline); !ok {
		return types.SelectionSchema{}, SelectionError{Reason: "unknown pipeline " + pipeline}
	}
	rev, ok := m.catalog.Lookup(pipeline, revision)
	if !ok {
		return types.SelectionSchema{}, SelectionError{Reason: "revision " + revision + " does not belong to pipeline " + pipeline}
	}
	cat, task := m.catalog.FindPipelineType(pipeline)
	if _, err := m.sessions.Update(ctx, sid, func(st *session.SelectionState) error {
		st.SelectRevision(cat, task, pipeline, revision)
		return nil
	}); err != nil {
		return types.SelectionSchema{}, err
	}
	return types.SelectionSchema{Weights: rev.PublicWeightsView(), Params: rev.PublicParamsView()}, nil
}

// activeRevision returns the revision the session has selected.
func (m *Manager) activeRevision(st *session.SelectionState) (*catalog.Revision, error) {
	if !st.HasRevision() {
		return nil, SelectionError{Reason: "no pipeline revision selected"}
	}
	rev, ok := m.catalog.Lookup(st.Pipeline, st.Revision)
	if !ok {
		return nil, SelectionError{Reason: "selected revision " + st.Pipeline + "/" + st.Revision + " no longer exists"}
	}
	return rev, nil
}

// SwitchWeight binds the weight named weightName to key on the session's
// revision. The session is unchanged unless the weight is an enabled
// candidate for key.
func (m *Manager) SwitchWeight(ctx context.Context, sid, key, weightName string) error {
	w, ok := m.catalog.Weight(weightName)
	if !ok {
		return catalog.NotFoundError{Kind: "weight", Name: weightName}
	}
	_, err := m.sessions.Update(ctx, sid, func(st *session.SelectionState) error {
		rev, err := m.activeRevision(st)
		if err != nil {
			return err
		}
		w := w
		if c, ok := rev.CandidateNamed(key, weightName); ok {
			w = c
		}
		if _, err := resolver.CheckWeight(rev, key, w.ID); err != nil {
			return err
		}
		st.SetWeight(key, w.ID)
		return nil
	})
	return err
}

// SwitchParam overrides a static parameter the revision declares.
func (m *Manager) SwitchParam(ctx context.Context, sid, name string, value any) error {
	_, err := m.sessions.Update(ctx, sid, func(st *session.SelectionState) error {
		rev, err := m.activeRevision(st)
		if err != nil {
			return err
		}
		if !rev.HasParam(name) {
			return resolver.UnknownParamError{Name: name}
		}
		st.SetParam(name, value)
		return nil
	})
	return err
}

// SwitchHyper records a hyperparameter value for the session's next
// predictions. Accepted names are the revision's declared hyperparameters
// the plugin takes, plus the schema of the loaded model when it serves the
// same revision.
func (m *Manager) SwitchHyper(ctx context.Context, sid, name string, value any) error {
	m.mu.RLock()
	h := m.handle
	m.mu.RUnlock()
	_, err := m.sessions.Update(ctx, sid, func(st *session.SelectionState) error {
		rev, err := m.activeRevision(st)
		if err != nil {
			return err
		}
		if rev.HasHyper(name) && m.declaredHyperAccepted(rev.Pipeline, name) {
			st.SetHyper(name, value)
			return nil
		}
		if h != nil && h.cfg.Pipeline == rev.Pipeline && h.cfg.Revision == rev.Name && h.hasHyper(name) {
			st.SetHyper(name, value)
			return nil
		}
		return hyper.UnknownHyperparameterError{Name: name}
	})
	return err
}

// declaredHyperAccepted reports whether the plugin behind tag takes a
// hyperparameter the revision declares.
func (m *Manager) declaredHyperAccepted(tag, name string) bool {
	desc, err := m.registry.Resolve(tag)
	if err != nil {
		return false
	}
	return accepts(desc.Mode, name)
}

// Current reports the session's selection with weight names resolved.
func (m *Manager) Current(ctx context.Context, sid string) (types.SelectionView, error) {
	st, err := m.sessions.Load(ctx, sid)
	if err != nil {
		return types.SelectionView{}, err
	}
	v := types.SelectionView{
		Category: st.Category,
		Task:     st.Task,
		Pipeline: st.Pipeline,
		Revision: st.Revision,
		Weights:  []types.WeightOption{},
		Params:   []types.ParamValue{},
		Hypers:   map[string]any{},
	}
	rev, err := m.activeRevision(st)
	if err != nil {
		return v, nil
	}
	keys := make([]string, 0, len(st.Weights))
	for k := range st.Weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if w, ok := rev.Candidate(k, st.Weights[k]); ok {
			v.Weights = append(v.Weights, types.WeightOption{Key: k, Name: w.Name, Enabled: w.Enabled})
		}
	}
	for _, p := range rev.PublicParamsView() {
		if o, ok := st.Params[p.Name]; ok {
			p.Value = o
		}
		v.Params = append(v.Params, p)
	}
	for k, val := range st.Hypers {
		v.Hypers[k] = val
	}
	return v, nil
}
