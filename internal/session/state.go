// Package session stores the per-user selection: which category, task,
// pipeline and revision the user picked, the weights bound to the revision's
// weight keys, and the parameter and hyperparameter overrides.
//
// State is only ever changed through Store.Update, which applies a mutation
// atomically: if the mutation returns an error nothing is persisted.
package session

import "maps"

// SelectionState is the selection of one user session.
type SelectionState struct {
	Category string `json:"category,omitempty"`
	Task     string `json:"task,omitempty"`
	Pipeline string `json:"pipeline,omitempty"`
	Revision string `json:"revision,omitempty"`
	// Weights maps weight key to the selected weight record id.
	Weights map[string]string `json:"weights,omitempty"`
	Params  map[string]any    `json:"params,omitempty"`
	Hypers  map[string]any    `json:"hypers,omitempty"`
}

// Clone returns a deep enough copy for mutation: maps are copied, values are
// shared.
func (s *SelectionState) Clone() *SelectionState {
	if s == nil {
		return &SelectionState{}
	}
	c := *s
	c.Weights = maps.Clone(s.Weights)
	c.Params = maps.Clone(s.Params)
	c.Hypers = maps.Clone(s.Hypers)
	return &c
}

// HasRevision reports whether a pipeline revision is selected.
func (s *SelectionState) HasRevision() bool {
	return s.Pipeline != "" && s.Revision != ""
}

// SelectTask records the task and forgets everything below it.
func (s *SelectionState) SelectTask(category, task string) {
	s.Category, s.Task = category, task
	s.Pipeline, s.Revision = "", ""
	s.clearBindings()
}

// SelectRevision records the revision and resets weights, params and hypers.
func (s *SelectionState) SelectRevision(category, task, pipeline, revision string) {
	s.Category, s.Task = category, task
	s.Pipeline, s.Revision = pipeline, revision
	s.clearBindings()
}

// SetWeight binds a weight record id to key.
func (s *SelectionState) SetWeight(key, weightID string) {
	if s.Weights == nil {
		s.Weights = make(map[string]string)
	}
	s.Weights[key] = weightID
}

// SetParam records a static parameter override.
func (s *SelectionState) SetParam(name string, v any) {
	if s.Params == nil {
		s.Params = make(map[string]any)
	}
	s.Params[name] = v
}

// SetHyper records a hyperparameter value.
func (s *SelectionState) SetHyper(name string, v any) {
	if s.Hypers == nil {
		s.Hypers = make(map[string]any)
	}
	s.Hypers[name] = v
}

func (s *SelectionState) clearBindings() {
	s.Weights = nil
	s.Params = nil
	s.Hypers = nil
}
