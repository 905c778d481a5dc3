package manager

import (
	"time"

	"flowd/internal/plugin"
)

// State represents the lifecycle state of the model handle.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateLoaded   State = "loaded"
)

// handle is the single loaded plugin instance. Zero or one exists.
type handle struct {
	tag      string
	mode     plugin.Mode
	plugin   plugin.Plugin
	cfg      plugin.ResolvedConfig
	schema   []plugin.HyperSpec
	loadedAt time.Time
	opID     string
}

func (h *handle) hasHyper(name string) bool {
	for _, s := range h.schema {
		if s.Name == name {
			return true
		}
	}
	return false
}

// ModelInfo is a minimal view of the loaded model.
type ModelInfo struct {
	Plugin   string
	Pipeline string
	Revision string
	LoadedAt time.Time
	OpID     string
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State        State
	CurrentModel *ModelInfo
	Err          string
}
