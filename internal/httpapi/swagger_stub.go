//go:build !swagger

package httpapi

import "github.com/go-chi/chi/v5"

// MountSwagger leaves r unchanged; flowd serves /swagger/* only when built
// with -tags=swagger.
func MountSwagger(chi.Router) {}
