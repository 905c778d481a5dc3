package types

// CatalogResponse wraps the catalog tree returned by GET /catalog.
type CatalogResponse struct {
	Categories []Category `json:"categories"`
}

// SelectTaskRequest is the body of POST /task/switch.
type SelectTaskRequest struct {
	// example: vision
	Category string `json:"category" example:"vision"`
	// example: quality
	Task string `json:"task" example:"quality"`
}

// SelectTaskResponse lists the revisions reachable from the selected task.
type SelectTaskResponse struct {
	Revisions []RevisionRef `json:"revisions"`
}

// SelectRevisionRequest is the body of POST /flow/switch.
type SelectRevisionRequest struct {
	// example: pixel_analysis
	Pipeline string `json:"pipeline" example:"pixel_analysis"`
	// example: v1
	Revision string `json:"revision" example:"v1"`
}

// SelectionSchema is returned after a revision is selected: the weight
// candidates and static parameters the session may change before loading.
type SelectionSchema struct {
	Weights []WeightOption `json:"weight"`
	Params  []ParamValue   `json:"param"`
}

// SwitchWeightRequest is the body of POST /weight/switch.
type SwitchWeightRequest struct {
	// example: reference
	Key string `json:"weight_key" example:"reference"`
	// example: ref-a
	Weight string `json:"weight_name" example:"ref-a"`
}

// SwitchValueRequest is the body of POST /param/switch and POST /hyper/switch.
type SwitchValueRequest struct {
	// example: hash_threshold
	Name  string `json:"name" example:"hash_threshold"`
	Value any    `json:"value"`
}

// LoadResponse is returned by POST /model/load.
type LoadResponse struct {
	// Operation id for log correlation.
	OpID string `json:"op_id"`
	// example: pixel_analysis
	Pipeline string `json:"pipeline" example:"pixel_analysis"`
	// example: v1
	Revision string      `json:"revision" example:"v1"`
	Hypers   []HyperSpec `json:"hypers"`
}

// SelectionView reports the session's current selection.
type SelectionView struct {
	Category string         `json:"category,omitempty"`
	Task     string         `json:"task,omitempty"`
	Pipeline string         `json:"pipeline,omitempty"`
	Revision string         `json:"revision,omitempty"`
	Weights  []WeightOption `json:"weights"`
	Params   []ParamValue   `json:"params"`
	Hypers   map[string]any `json:"hypers"`
}

// PredictRequest is the body of POST /model/predict.
type PredictRequest struct {
	// Base64 encoded input image; data URLs are accepted.
	Image string `json:"origin_image"`
	// Per-call hyperparameter values layered over the session's values.
	Hypers map[string]any `json:"hypers,omitempty"`
}

// PredictResponse is the structured plugin output.
type PredictResponse struct {
	Shapes      []Shape        `json:"infer_result"`
	Description string         `json:"infer_description"`
	Extra       map[string]any `json:"extra,omitempty"`
	// Inference wall time in seconds.
	// example: 0.042
	PeriodSeconds float64 `json:"infer_period" example:"0.042"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Manager state: unloaded, loading, loaded.
	// example: loaded
	State string `json:"state" example:"loaded"`
	// Plugin tag of the loaded model.
	// example: pixel_analysis
	Plugin string `json:"plugin,omitempty" example:"pixel_analysis"`
	// example: pixel_analysis
	Pipeline string `json:"pipeline,omitempty" example:"pixel_analysis"`
	// example: v1
	Revision string `json:"revision,omitempty" example:"v1"`
	// Operation currently holding the execution guard, if any.
	// example: predict
	Busy string `json:"busy,omitempty" example:"predict"`
	// Unix seconds of the last successful load.
	LoadedAt int64 `json:"loaded_at_unix,omitempty"`
	// Last load or prediction error observed.
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// example: 12
	LoadsTotal uint64 `json:"loads_total" example:"12"`
	// example: 340
	PredictionsTotal uint64 `json:"predictions_total" example:"340"`
}
