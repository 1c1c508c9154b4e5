package api

import (
	"net/http"
	"strconv"

	"github.com/fieldops/mileage-voucher/internal/assignment"
	"github.com/gin-gonic/gin"
)

// AssignmentHandler serves the assignment request workflow endpoints.
type AssignmentHandler struct {
	workflow *assignment.Workflow
}

// NewAssignmentHandler creates an assignment handler.
func NewAssignmentHandler(workflow *assignment.Workflow) *AssignmentHandler {
	return &AssignmentHandler{workflow: workflow}
}

type createRequestBody struct {
	InspectorID int64  `json:"inspector_id" binding:"required"`
	Notes       string `json:"notes"`
}

// Create opens a pending request claiming the inspector for the acting
// supervisor.
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req createRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.workflow.CreateRequest(c.Request.Context(), req.InspectorID, actor(c).ID, req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// Approve terminates a pending request as approved.
func (h *AssignmentHandler) Approve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	request, err := h.workflow.Approve(c.Request.Context(), id, actor(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

type rejectRequestBody struct {
	Reason string `json:"reason"`
}

// Reject terminates a pending request as rejected.
func (h *AssignmentHandler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req rejectRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.workflow.Reject(c.Request.Context(), id, actor(c).ID, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// ListPending returns pending requests, optionally filtered by supervisor.
func (h *AssignmentHandler) ListPending(c *gin.Context) {
	var supervisorID *int64
	if raw := c.Query("supervisor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supervisor_id"})
			return
		}
		supervisorID = &id
	}

	requests, err := h.workflow.ListPending(c.Request.Context(), supervisorID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}
