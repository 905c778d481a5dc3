package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flowd/internal/catalog"
	"flowd/internal/hyper"
	"flowd/internal/plugin"
	"flowd/internal/resolver"
	"flowd/internal/session"
	"flowd/pkg/types"
)

// LoadModel resolves the session's selection and swaps the loaded plugin for
// a new instance built from it. Selection problems are reported before
// anything changes; once the guard is taken the previous model is released
// first, so a failed construction leaves the manager unloaded.
//
// On success the session's hyperparameters are seeded with the schema
// defaults it does not already carry.
func (m *Manager) LoadModel(ctx context.Context, sid string) (types.LoadResponse, error) {
	st, err := m.sessions.Load(ctx, sid)
	if err != nil {
		return types.LoadResponse{}, err
	}
	rev, err := m.activeRevision(st)
	if err != nil {
		return types.LoadResponse{}, err
	}
	cfg, err := resolver.Resolve(rev, st)
	if err != nil {
		return types.LoadResponse{}, err
	}
	desc, err := m.registry.Resolve(rev.Pipeline)
	if err != nil {
		return types.LoadResponse{}, err
	}

	release, err := m.guard.acquire("load")
	if err != nil {
		m.metrics.busy.WithLabelValues("load").Inc()
		m.publish(Event{Name: EventBusy, Pipeline: rev.Pipeline, Fields: map[string]any{"op": "load"}})
		return types.LoadResponse{}, err
	}
	defer release()

	h, err := m.swap(desc, rev, cfg)
	if err != nil {
		return types.LoadResponse{}, err
	}

	if _, err := m.sessions.Update(ctx, sid, func(st *session.SelectionState) error {
		if st.Pipeline != cfg.Pipeline || st.Revision != cfg.Revision {
			return nil
		}
		for _, s := range h.schema {
			if _, set := st.Hypers[s.Name]; !set && seedable(s) {
				st.SetHyper(s.Name, s.Default)
			}
		}
		return nil
	}); err != nil {
		m.log.Warn().Err(err).Str("session", sid).Msg("seed hyperparameters")
	}

	return types.LoadResponse{
		OpID:     h.opID,
		Pipeline: cfg.Pipeline,
		Revision: cfg.Revision,
		Hypers:   toTypes(h.schema),
	}, nil
}

// swap releases the current handle and constructs the new one. The guard
// must be held.
func (m *Manager) swap(desc plugin.Descriptor, rev *catalog.Revision, cfg plugin.ResolvedConfig) (*handle, error) {
	opID := uuid.NewString()
	log := m.log.With().Str("op_id", opID).Str("plugin", desc.Tag).Str("config", cfg.Summary()).Logger()

	if err := m.unloadLocked(); err != nil {
		log.Warn().Err(err).Msg("release previous model")
	}
	m.mu.Lock()
	m.state = StateLoading
	m.mu.Unlock()
	m.publish(Event{Name: EventLoadStart, Pipeline: cfg.Pipeline, Fields: map[string]any{"op_id": opID, "revision": cfg.Revision}})

	deps := plugin.Deps{
		Weights: m.weights,
		Logger:  log,
		Sink: func(msg string) {
			log.Info().Msg(msg)
			m.publish(Event{Name: EventPluginMessage, Pipeline: cfg.Pipeline, Fields: map[string]any{"message": msg}})
		},
	}
	start := time.Now()
	p, err := construct(desc.Factory, cfg, deps)
	if err != nil {
		lerr := ModelLoadError{Tag: desc.Tag, Err: err}
		m.mu.Lock()
		m.state = StateUnloaded
		m.lastErr = lerr.Error()
		m.mu.Unlock()
		m.metrics.loads.WithLabelValues(desc.Tag, result(err)).Inc()
		log.Error().Err(err).Msg("model load failed")
		m.publish(Event{Name: EventLoadFailed, Pipeline: cfg.Pipeline, Fields: map[string]any{"op_id": opID, "error": err.Error()}})
		return nil, lerr
	}

	h := &handle{
		tag:      desc.Tag,
		mode:     desc.Mode,
		plugin:   p,
		cfg:      cfg,
		schema:   m.schema(rev, p, desc.Mode),
		loadedAt: time.Now(),
		opID:     opID,
	}
	m.mu.Lock()
	m.handle = h
	m.state = StateLoaded
	m.lastErr = ""
	m.loadsTotal++
	m.mu.Unlock()
	m.metrics.loads.WithLabelValues(desc.Tag, "ok").Inc()
	m.metrics.loaded.Set(1)
	log.Info().Dur("took", time.Since(start)).Msg("model loaded")
	m.publish(Event{Name: EventLoadReady, Pipeline: cfg.Pipeline, Fields: map[string]any{"op_id": opID, "revision": cfg.Revision}})
	return h, nil
}

// construct runs the factory, turning a panic into an error.
func construct(f plugin.Factory, cfg plugin.ResolvedConfig, deps plugin.Deps) (p plugin.Plugin, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("plugin constructor panic: %v", r)
		}
	}()
	p, err = f(cfg, deps)
	if err == nil && p == nil {
		err = fmt.Errorf("plugin constructor returned no instance")
	}
	return p, err
}

// schema lists the revision's declared hyperparameters followed by those the
// plugin's widgets expose that the revision does not declare. Declared names
// a strict plugin would reject are left out, so every published entry can be
// sent back unchanged.
func (m *Manager) schema(rev *catalog.Revision, p plugin.Plugin, mode plugin.Mode) []plugin.HyperSpec {
	var out []plugin.HyperSpec
	seen := make(map[string]bool)
	for _, d := range rev.PublicHypersView() {
		if !accepts(mode, d.Name) {
			m.log.Warn().Str("hyper", d.Name).Str("plugin", rev.Pipeline).Msg("dropping declared hyperparameter a strict plugin does not accept")
			continue
		}
		seen[d.Name] = true
		out = append(out, plugin.HyperSpec{Name: d.Name, Type: d.Type, Default: d.Default, Widget: d.Widget})
	}
	for _, s := range hyper.FromPluginSchema(p) {
		if !seen[s.Name] {
			seen[s.Name] = true
			out = append(out, s)
		}
	}
	return out
}

// accepts reports whether a plugin in mode takes a hyperparameter called name.
func accepts(mode plugin.Mode, name string) bool {
	return mode != plugin.Strict || hyper.Known(name)
}

// seedable reports whether a default is a plain value worth storing in the
// session. Images, prompts and buttons are per-call.
func seedable(s plugin.HyperSpec) bool {
	switch s.Type {
	case "image", "shapes", "button":
		return false
	}
	return s.Default != nil
}

func toTypes(specs []plugin.HyperSpec) []types.HyperSpec {
	out := make([]types.HyperSpec, 0, len(specs))
	for _, s := range specs {
		out = append(out, types.HyperSpec{Name: s.Name, Type: s.Type, Default: s.Default, Widget: s.Widget})
	}
	return out
}
