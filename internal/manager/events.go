package manager

// Event represents a manager lifecycle event.
// Minimal and stable: name + pipeline and optional fields via key/values.
type Event struct {
	Name     string
	Pipeline string
	Fields   map[string]any
}

// Event names.
const (
	EventLoadStart     = "load_start"
	EventLoadReady     = "load_ready"
	EventLoadFailed    = "load_failed"
	EventUnload        = "unload"
	EventPredictDone   = "predict_done"
	EventPredictFailed = "predict_failed"
	EventPluginMessage = "plugin_message"
	EventBusy          = "busy"
)

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
