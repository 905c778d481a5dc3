package httpapi

import "time"

const defaultMaxBodyBytes = 16 << 20

// maxBodyBytes controls the maximum allowed request body size for JSON
// endpoints. Predict bodies carry base64 images, hence the 16 MiB default.
var maxBodyBytes int64 = defaultMaxBodyBytes

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
		return
	}
	maxBodyBytes = n
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// sessionTTL is the lifetime of the session cookie; it should match the
// session store's TTL.
var sessionTTL = 24 * time.Hour

// SetSessionTTL sets the session cookie lifetime. Non-positive values restore
// the 24h default.
func SetSessionTTL(d time.Duration) {
	if d <= 0 {
		d = 24 * time.Hour
	}
	sessionTTL = d
}
