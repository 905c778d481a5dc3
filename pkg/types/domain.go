package types

// Category is the top level of the catalog tree returned by GET /catalog.
type Category struct {
	// Category name.
	// example: vision
	Name string `json:"name" example:"vision"`
	// Tasks grouped under this category.
	Tasks []Task `json:"tasks"`
}

// Task groups the pipelines that solve one kind of problem.
type Task struct {
	// Task name.
	// example: quality
	Name string `json:"name" example:"quality"`
	// Pipelines available for this task.
	Pipelines []Pipeline `json:"pipelines"`
}

// Pipeline is a processing chain backed by one plugin tag.
type Pipeline struct {
	// Plugin tag and pipeline identifier.
	// example: pixel_analysis
	Tag string `json:"tag" example:"pixel_analysis"`
	// Human-friendly name.
	// example: Pixel analysis
	DisplayName string `json:"display_name" example:"Pixel analysis"`
	// Revisions of this pipeline.
	Revisions []RevisionRef `json:"revisions"`
}

// RevisionRef identifies a revision without its configuration.
type RevisionRef struct {
	// Pipeline tag the revision belongs to.
	// example: pixel_analysis
	Pipeline string `json:"pipeline" example:"pixel_analysis"`
	// Revision name, unique within the pipeline.
	// example: v1
	Name string `json:"name" example:"v1"`
	// Display name.
	// example: Pixel analysis v1
	DisplayName string `json:"display_name" example:"Pixel analysis v1"`
}

// WeightOption is one authorized candidate for a weight key.
type WeightOption struct {
	// Weight key the candidate is bound to.
	// example: reference
	Key string `json:"weight_key" example:"reference"`
	// Weight record name.
	// example: ref-a
	Name string `json:"weight_name" example:"ref-a"`
	// Whether the weight record is enabled.
	// example: true
	Enabled bool `json:"weight_enabled" example:"true"`
}

// ParamValue is a static parameter with its current value.
type ParamValue struct {
	// Parameter name.
	// example: hash_threshold
	Name string `json:"param_name" example:"hash_threshold"`
	// Parameter value.
	Value any `json:"param_value"`
}

// HyperSpec describes one runtime hyperparameter and its widget.
type HyperSpec struct {
	// Wire name used with POST /hyper/switch.
	// example: conf_threshold
	Name string `json:"hyper_name" example:"conf_threshold"`
	// Widget type (number, switch, select, text, image, button).
	// example: number
	Type string `json:"hyper_type" example:"number"`
	// Default value.
	Default any `json:"hyper_default"`
	// Widget configuration (bounds, options).
	Widget map[string]any `json:"hyper_config,omitempty"`
}

// Shape is one plugin output primitive.
type Shape struct {
	Label     string       `json:"label"`
	Score     float64      `json:"score"`
	ShapeType string       `json:"shape_type"`
	Points    [][2]float64 `json:"points,omitempty"`
	Visible   bool         `json:"visible"`
	GroupID   *int         `json:"group_id,omitempty"`
}
