package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// ParseError reports a malformed catalog entry. The entry is skipped; other
// entries still load.
type ParseError struct {
	Entry  string
	Reason string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("catalog entry %s: %s", e.Entry, e.Reason)
}

func (e ParseError) StatusCode() int { return http.StatusInternalServerError }

// IsParseError reports whether err is a ParseError.
func IsParseError(err error) bool {
	var e ParseError
	return errors.As(err, &e)
}

// NotFoundError reports a catalog object that does not exist.
type NotFoundError struct {
	Kind string
	Name string
}

func (e NotFoundError) Error() string { return e.Kind + " not found: " + e.Name }

func (e NotFoundError) StatusCode() int { return http.StatusNotFound }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var e NotFoundError
	return errors.As(err, &e)
}
