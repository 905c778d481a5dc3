package manager

// Unload releases the loaded plugin. It is idempotent and, like load and
// predict, fails with ResourceBusyError while another operation runs.
func (m *Manager) Unload() error {
	release, err := m.guard.acquire("unload")
	if err != nil {
		m.metrics.busy.WithLabelValues("unload").Inc()
		return err
	}
	defer release()
	return m.unloadLocked()
}

// unloadLocked clears the handle and calls the plugin's release hook. The
// guard must be held. The handle is cleared even if Release fails.
func (m *Manager) unloadLocked() error {
	m.mu.Lock()
	h := m.handle
	m.handle = nil
	m.state = StateUnloaded
	m.mu.Unlock()
	if h == nil {
		return nil
	}
	m.metrics.loaded.Set(0)
	err := h.plugin.Release()
	fields := map[string]any{"op_id": h.opID}
	if err != nil {
		fields["error"] = err.Error()
		m.log.Warn().Err(err).Str("plugin", h.tag).Msg("plugin release failed")
	}
	m.publish(Event{Name: EventUnload, Pipeline: h.cfg.Pipeline, Fields: fields})
	return err
}
