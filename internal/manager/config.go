package manager

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"flowd/internal/catalog"
	"flowd/internal/plugin"
	"flowd/internal/session"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultSessionTTL = 24 * time.Hour
)

// Config encapsulates all collaborators for Manager construction.
type Config struct {
	Catalog  *catalog.Catalog
	Registry *plugin.Registry
	// Sessions defaults to an in-memory store.
	Sessions session.Store
	// Weights resolves weight configs to local files for plugins.
	Weights plugin.WeightFetcher
	Logger  zerolog.Logger
	// Publisher defaults to a no-op publisher.
	Publisher EventPublisher
	// Registerer receives the manager's collectors; nil skips registration.
	Registerer prometheus.Registerer
}

// New constructs a Manager from Config.
func New(cfg Config) (*Manager, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("manager: catalog is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("manager: plugin registry is required")
	}
	m := &Manager{
		state:     StateUnloaded,
		catalog:   cfg.Catalog,
		registry:  cfg.Registry,
		sessions:  cfg.Sessions,
		weights:   cfg.Weights,
		log:       cfg.Logger.With().Str("component", "manager").Logger(),
		publisher: cfg.Publisher,
		guard:     newGuard(),
		startTime: time.Now(),
	}
	if m.sessions == nil {
		m.sessions = session.NewMemoryStore(defaultSessionTTL)
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	m.marshaler = newMarshaler(m.log)
	m.metrics = newMetrics()
	if cfg.Registerer != nil {
		if err := m.metrics.register(cfg.Registerer); err != nil {
			return nil, err
		}
	}
	return m, nil
}
