// Package resolver merges a catalog revision with a session's selection into
// the configuration a plugin is constructed from.
package resolver

import (
	"flowd/internal/catalog"
	"flowd/internal/plugin"
	"flowd/internal/session"
)

// Resolve merges, in increasing precedence, the revision identity, its
// parameter defaults and the session's parameter overrides, then binds every
// weight key to the selected record. Weight keys are checked in sorted order
// so the reported key is stable. Resolve has no side effects and returns a
// zero config on any error.
func Resolve(rev *catalog.Revision, st *session.SelectionState) (plugin.ResolvedConfig, error) {
	cfg := plugin.ResolvedConfig{
		Pipeline:    rev.Pipeline,
		Revision:    rev.Name,
		DisplayName: rev.DisplayName,
		Params:      make(map[string]any, len(rev.Params)),
		Weights:     make(map[string]plugin.WeightConfig, len(rev.WeightKeys)),
	}
	for k, v := range rev.Params {
		cfg.Params[k] = v
	}
	if st != nil {
		for k, v := range st.Params {
			if !rev.HasParam(k) {
				return plugin.ResolvedConfig{}, UnknownParamError{Name: k}
			}
			cfg.Params[k] = v
		}
	}
	for _, key := range rev.SortedWeightKeys() {
		var id string
		if st != nil {
			id = st.Weights[key]
		}
		if id == "" {
			return plugin.ResolvedConfig{}, IncompleteWeightSelectionError{Key: key}
		}
		w, err := CheckWeight(rev, key, id)
		if err != nil {
			return plugin.ResolvedConfig{}, err
		}
		cfg.Weights[key] = w.Config()
	}
	return cfg, nil
}

// CheckWeight verifies that the record with id is an enabled candidate of key.
func CheckWeight(rev *catalog.Revision, key, id string) (*catalog.WeightRecord, error) {
	w, ok := rev.Candidate(key, id)
	if !ok || !w.Enabled {
		return nil, IncompatibleWeightError{Key: key, Weight: id}
	}
	return w, nil
}
