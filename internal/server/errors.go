package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talenthium/patchtree/internal/log"
	"github.com/talenthium/patchtree/internal/projectapi"
	"github.com/talenthium/patchtree/internal/store"
)

// httpError carries an explicit status for sendError.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(err error) error {
	return &httpError{status: http.StatusBadRequest, msg: err.Error()}
}

var (
	errNoDiffSource    = &httpError{status: http.StatusServiceUnavailable, msg: "project service is not configured"}
	errNoSnapshotStore = &httpError{status: http.StatusServiceUnavailable, msg: "snapshot store is not configured"}
)

// statusFor maps an error to the response status.
func statusFor(err error) int {
	var he *httpError
	if errors.As(err, &he) {
		return he.status
	}

	var notFound *store.SnapshotNotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}

	var upstream *projectapi.StatusError
	if errors.As(err, &upstream) {
		if projectapi.IsNotFound(err) {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

func sendError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.ErrorErr(log.CatServer, "Request failed", err, "path", c.Request.URL.Path, "status", status)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
