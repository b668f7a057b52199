package projectapi

import (
	"errors"
	"fmt"
	"net/http"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

// StatusError is returned for non-2xx responses from the project service.
type StatusError struct {
	Code int
	Body string
	Path string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("project service %s: %d %s", e.Path, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("project service %s: %d %s: %s", e.Path, e.Code, http.StatusText(e.Code), e.Body)
}

// Temporary reports whether retrying may succeed.
func (e *StatusError) Temporary() bool {
	switch e.Code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// IsNotFound reports whether err is a 404 from the project service.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 or 403 from the project service.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden)
}
