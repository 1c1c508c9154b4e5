// Package api exposes the workflow operations over JSON/REST. Handlers are
// thin: they resolve the actor, call a workflow operation, and map the
// failure kind to a status code plus a machine-readable kind.
package api

import (
	"errors"
	"net/http"

	"github.com/fieldops/mileage-voucher/internal/domain/workflow"
	"github.com/gin-gonic/gin"
)

// Failure kind identifiers carried in error bodies. Statuses follow HTTP
// convention and may collide across kinds; the kind field never does, so
// clients can distinguish every failure programmatically.
const (
	kindNotFound     = "not_found"
	kindForbidden    = "forbidden"
	kindInvalidState = "invalid_state"
	kindConflict     = "conflict"
	kindInvalidRole  = "invalid_role"
	kindInvalidClaim = "invalid_claim"
	kindInternal     = "internal"
)

// classify maps a workflow failure to its HTTP status and kind identifier.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound, kindNotFound
	case errors.Is(err, workflow.ErrForbidden):
		return http.StatusForbidden, kindForbidden
	case errors.Is(err, workflow.ErrInvalidState):
		return http.StatusConflict, kindInvalidState
	case errors.Is(err, workflow.ErrConflict):
		return http.StatusConflict, kindConflict
	case errors.Is(err, workflow.ErrInvalidRole):
		return http.StatusUnprocessableEntity, kindInvalidRole
	case errors.Is(err, workflow.ErrInvalidClaim):
		return http.StatusUnprocessableEntity, kindInvalidClaim
	default:
		return http.StatusInternalServerError, kindInternal
	}
}

// statusFor maps a workflow failure kind to its HTTP status.
func statusFor(err error) int {
	status, _ := classify(err)
	return status
}

// fail writes the error as a JSON response. Internal failures are not
// echoed back to the client.
func fail(c *gin.Context, err error) {
	status, kind := classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error", "kind": kind})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}
