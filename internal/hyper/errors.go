package hyper

import (
	"errors"
	"net/http"
)

// UnknownHyperparameterError reports a name a strict plugin cannot accept.
type UnknownHyperparameterError struct{ Name string }

func (e UnknownHyperparameterError) Error() string { return "unknown hyperparameter: " + e.Name }

func (e UnknownHyperparameterError) StatusCode() int { return http.StatusBadRequest }

// IsUnknownHyperparameter reports whether err is an UnknownHyperparameterError.
func IsUnknownHyperparameter(err error) bool {
	var e UnknownHyperparameterError
	return errors.As(err, &e)
}

// InvalidValueError reports a known hyperparameter whose value cannot be
// decoded into the expected type.
type InvalidValueError struct {
	Name string
	Err  error
}

func (e InvalidValueError) Error() string {
	return "invalid value for " + e.Name + ": " + e.Err.Error()
}

func (e InvalidValueError) Unwrap() error { return e.Err }

func (e InvalidValueError) StatusCode() int { return http.StatusBadRequest }

func IsInvalidValue(err error) bool {
	var e InvalidValueError
	return errors.As(err, &e)
}
