package api

import (
	"net/http"

	"github.com/fieldops/mileage-voucher/internal/directory"
	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/internal/domain/workflow"
	"github.com/gin-gonic/gin"
)

// DirectoryHandler serves the assignment directory endpoints. Direct
// directory writes are restricted to admin-authority actors; the normal
// mutation path is assignment request approval.
type DirectoryHandler struct {
	directory *directory.Directory
}

// NewDirectoryHandler creates a directory handler.
func NewDirectoryHandler(d *directory.Directory) *DirectoryHandler {
	return &DirectoryHandler{directory: d}
}

// GetSupervisors returns both supervisor channels for an inspector.
func (h *DirectoryHandler) GetSupervisors(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	profile, err := h.directory.Profile(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"inspector_id":      profile.UserID,
		"supervisor_id":     profile.SupervisorID,
		"fls_supervisor_id": profile.FlsSupervisorID,
	})
}

type setSupervisorBody struct {
	SupervisorID int64  `json:"supervisor_id" binding:"required"`
	Channel      string `json:"channel"`
}

// SetSupervisor assigns a supervisor on the given channel.
func (h *DirectoryHandler) SetSupervisor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if ok := h.requireAdmin(c); !ok {
		return
	}

	var req setSupervisorBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel := entity.Channel(req.Channel)
	if req.Channel == "" {
		channel = entity.ChannelPrimary
	}

	profile, err := h.directory.SetSupervisor(c.Request.Context(), id, req.SupervisorID, channel)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ClearSupervisor removes the supervisor reference on the given channel.
func (h *DirectoryHandler) ClearSupervisor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if ok := h.requireAdmin(c); !ok {
		return
	}

	channel := entity.Channel(c.DefaultQuery("channel", string(entity.ChannelPrimary)))
	if err := h.directory.ClearSupervisor(c.Request.Context(), id, channel); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListInspectors returns the profiles assigned to a supervisor.
func (h *DirectoryHandler) ListInspectors(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	profiles, err := h.directory.Inspectors(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inspectors": profiles})
}

func (h *DirectoryHandler) requireAdmin(c *gin.Context) bool {
	if !actor(c).Role.AdminAuthority() {
		fail(c, workflow.ErrForbidden)
		return false
	}
	return true
}
