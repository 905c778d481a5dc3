package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"flowd/internal/catalog"
	"flowd/internal/hyper"
	"flowd/internal/plugin"
	"flowd/internal/session"
	"flowd/pkg/types"
)

type Manager struct {
	mu               sync.RWMutex
	state            State
	handle           *handle
	lastErr          string
	loadsTotal       uint64
	predictionsTotal uint64

	guard     *guard
	catalog   *catalog.Catalog
	registry  *plugin.Registry
	sessions  session.Store
	weights   plugin.WeightFetcher
	marshaler *hyper.Marshaler
	log       zerolog.Logger
	publisher EventPublisher
	metrics   *metrics
	startTime time.Time
}

func newMarshaler(log zerolog.Logger) *hyper.Marshaler {
	return hyper.New(log.With().Str("component", "hyper").Logger())
}

// SetEventPublisher swaps the event sink; nil restores the no-op publisher.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		p = noopPublisher{}
	}
	m.publisher = p
}

func (m *Manager) publish(e Event) {
	m.mu.RLock()
	p := m.publisher
	m.mu.RUnlock()
	p.Publish(e)
}

// Ready reports whether the manager accepts work: it is not in the middle of
// a load.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state != StateLoading
}

// Catalog returns the read-only catalog tree.
func (m *Manager) Catalog() []types.Category {
	return m.catalog.Tree()
}

// Registry returns the plugin registry the manager loads from.
func (m *Manager) Registry() *plugin.Registry { return m.registry }

// Sessions returns the session store.
func (m *Manager) Sessions() session.Store { return m.sessions }
