package plugin

import (
	"errors"
	"net/http"
)

// UnknownPluginError reports a tag with no registered implementation.
type UnknownPluginError struct{ Tag string }

func (e UnknownPluginError) Error() string { return "unknown plugin: " + e.Tag }

// StatusCode maps the error for the HTTP layer.
func (e UnknownPluginError) StatusCode() int { return http.StatusInternalServerError }

// IsUnknownPlugin reports whether err is an UnknownPluginError.
func IsUnknownPlugin(err error) bool {
	var e UnknownPluginError
	return errors.As(err, &e)
}

// OutputModeError reports an output mode the plugin does not declare.
type OutputModeError struct{ Mode string }

func (e OutputModeError) Error() string { return "unsupported output mode: " + e.Mode }

func (e OutputModeError) StatusCode() int { return http.StatusBadRequest }

// DependencyUnavailableError signals a runtime the binary was built without
// (e.g. llama.cpp) so the HTTP layer can answer 503 instead of 500.
type DependencyUnavailableError struct{ Msg string }

func (e DependencyUnavailableError) Error() string { return e.Msg }

func (e DependencyUnavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e DependencyUnavailableError
	return errors.As(err, &e)
}
