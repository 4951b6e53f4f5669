package integrations

import (
	"errors"
	"net/http"
	"time"
)

const httpTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when a project or file doesn't exist on the index.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrChecksum is returned when a downloaded file does not match the
	// digest advertised by the index.
	ErrChecksum = errors.New("checksum mismatch")
)

// NewHTTPClient creates an HTTP client with a standard timeout for index requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
