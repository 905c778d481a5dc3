package manager

import (
	"errors"
	"net/http"

	"flowd/internal/plugin"
)

// SelectionError reports invalid catalog navigation. Session state is left
// unchanged.
type SelectionError struct{ Reason string }

func (e SelectionError) Error() string { return "invalid selection: " + e.Reason }

func (e SelectionError) StatusCode() int { return http.StatusBadRequest }

// IsSelection reports whether err is a SelectionError.
func IsSelection(err error) bool {
	var e SelectionError
	return errors.As(err, &e)
}

// ResourceBusyError signals that another operation holds the execution
// guard. It maps to 429 so callers can retry.
type ResourceBusyError struct {
	Op     string
	Holder string
}

func (e ResourceBusyError) Error() string {
	if e.Holder == "" {
		return "busy: cannot " + e.Op
	}
	return "busy: cannot " + e.Op + " while " + e.Holder + " is running"
}

func (e ResourceBusyError) StatusCode() int { return http.StatusTooManyRequests }

// IsResourceBusy reports whether err indicates the guard was taken.
func IsResourceBusy(err error) bool {
	var e ResourceBusyError
	return errors.As(err, &e)
}

// ModelNotLoadedError is returned by Predict when no model is loaded.
type ModelNotLoadedError struct{}

func (ModelNotLoadedError) Error() string { return "model not loaded" }

func (ModelNotLoadedError) StatusCode() int { return http.StatusConflict }

func IsModelNotLoaded(err error) bool {
	var e ModelNotLoadedError
	return errors.As(err, &e)
}

// ModelLoadError reports a failed plugin construction. The manager is left
// unloaded.
type ModelLoadError struct {
	Tag string
	Err error
}

func (e ModelLoadError) Error() string { return "load " + e.Tag + ": " + e.Err.Error() }

func (e ModelLoadError) Unwrap() error { return e.Err }

// StatusCode is 503 when the plugin's runtime is not built in, 502 otherwise.
func (e ModelLoadError) StatusCode() int {
	if plugin.IsDependencyUnavailable(e.Err) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func IsModelLoad(err error) bool {
	var e ModelLoadError
	return errors.As(err, &e)
}

// PredictionError wraps a plugin failure during Predict. The model stays
// loaded.
type PredictionError struct {
	Tag string
	Err error
}

func (e PredictionError) Error() string { return "predict " + e.Tag + ": " + e.Err.Error() }

func (e PredictionError) Unwrap() error { return e.Err }

func (e PredictionError) StatusCode() int { return http.StatusUnprocessableEntity }

func IsPrediction(err error) bool {
	var e PredictionError
	return errors.As(err, &e)
}
