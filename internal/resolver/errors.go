package resolver

import (
	"errors"
	"net/http"
)

// IncompleteWeightSelectionError reports a weight key with no selection.
type IncompleteWeightSelectionError struct{ Key string }

func (e IncompleteWeightSelectionError) Error() string {
	return "no weight selected for key: " + e.Key
}

func (e IncompleteWeightSelectionError) StatusCode() int { return http.StatusConflict }

// IsIncompleteWeightSelection reports whether err is an IncompleteWeightSelectionError.
func IsIncompleteWeightSelection(err error) bool {
	var e IncompleteWeightSelectionError
	return errors.As(err, &e)
}

// IncompatibleWeightError reports a weight that is not an enabled candidate
// of the key it was bound to.
type IncompatibleWeightError struct {
	Key    string
	Weight string
}

func (e IncompatibleWeightError) Error() string {
	return "weight " + e.Weight + " is not a candidate for key " + e.Key
}

func (e IncompatibleWeightError) StatusCode() int { return http.StatusConflict }

func IsIncompatibleWeight(err error) bool {
	var e IncompatibleWeightError
	return errors.As(err, &e)
}

// UnknownParamError reports a parameter the revision does not declare.
type UnknownParamError struct{ Name string }

func (e UnknownParamError) Error() string { return "unknown param: " + e.Name }

func (e UnknownParamError) StatusCode() int { return http.StatusBadRequest }

func IsUnknownParam(err error) bool {
	var e UnknownParamError
	return errors.As(err, &e)
}
