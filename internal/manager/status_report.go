package manager

import (
	"time"

	"flowd/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{State: m.state, Err: m.lastErr}
	if h := m.handle; h != nil {
		s.CurrentModel = &ModelInfo{
			Plugin:   h.tag,
			Pipeline: h.cfg.Pipeline,
			Revision: h.cfg.Revision,
			LoadedAt: h.loadedAt,
			OpID:     h.opID,
		}
	}
	return s
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	busy, _ := m.guard.current()
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp := types.StatusResponse{
		State:            string(m.state),
		Busy:             busy,
		LastError:        m.lastErr,
		UptimeSeconds:    int64(time.Since(m.startTime).Seconds()),
		LoadsTotal:       m.loadsTotal,
		PredictionsTotal: m.predictionsTotal,
	}
	if h := m.handle; h != nil {
		resp.Plugin = h.tag
		resp.Pipeline = h.cfg.Pipeline
		resp.Revision = h.cfg.Revision
		resp.LoadedAt = h.loadedAt.Unix()
	}
	return resp
}
