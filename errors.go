package hnpixels

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrMissingRatelimit indicates a throttled response carried none of the
// recognized ratelimit headers. The limiter cannot be maintained without
// them, so this is treated as a protocol violation by the server.
var ErrMissingRatelimit = errors.New("hnpixels: no ratelimit headers in response")

// RatelimitError indicates an HTTP 429. The ratelimit headers on the
// response have already been harvested into the endpoint's limiter, so it is
// usually safe to retry the call later.
type RatelimitError struct {
	// URL identifies the endpoint that was throttled.
	URL string
	// Body keeps the response payload for debugging.
	Body []byte
}

func (e *RatelimitError) Error() string {
	return fmt.Sprintf("hnpixels: rate limited by %s", e.URL)
}

// StatusError captures any other non-2xx response. It is fatal to the
// current call and is not retried by the client.
type StatusError struct {
	StatusCode int
	// URL identifies the endpoint that failed.
	URL string
	// Body keeps the response payload for debugging.
	Body []byte
}

func (e *StatusError) Error() string {
	b := strings.Builder{}
	b.WriteString("hnpixels: bad response from ")
	b.WriteString(e.URL)
	b.WriteString(" (status=")
	b.WriteString(strconv.Itoa(e.StatusCode))
	b.WriteString(")")
	if m := strings.TrimSpace(string(e.Body)); m != "" {
		b.WriteString(": ")
		b.WriteString(m)
	}
	return b.String()
}

// IsRatelimit reports whether err is (or wraps) a RatelimitError.
func IsRatelimit(err error) bool {
	var re *RatelimitError
	return errors.As(err, &re)
}

// IsAuth reports whether err is a StatusError with HTTP status 401 or 403,
// which usually means the token is missing, expired, or revoked.
func IsAuth(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
	}
	return false
}
