package weights

import (
	"errors"
	"net/http"
)

// MissingError reports a weight with no usable local file and no URL.
type MissingError struct {
	Name  string
	Local string
}

func (e MissingError) Error() string {
	return "weight " + e.Name + " not found at " + e.Local + " and no online url configured"
}

func (e MissingError) StatusCode() int { return http.StatusNotFound }

// DownloadError wraps the final error of a failed download.
type DownloadError struct {
	URL string
	Err error
}

func (e DownloadError) Error() string { return "download " + e.URL + ": " + e.Err.Error() }

func (e DownloadError) Unwrap() error { return e.Err }

func (e DownloadError) StatusCode() int { return http.StatusBadGateway }

// IsMissing reports whether err is a MissingError.
func IsMissing(err error) bool {
	var e MissingError
	return errors.As(err, &e)
}
