package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fieldops/mileage-voucher/internal/approval"
	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/gin-gonic/gin"
)

// VoucherHandler serves the voucher approval-chain endpoints.
type VoucherHandler struct {
	workflow  *approval.Workflow
	queueSize int
}

// NewVoucherHandler creates a voucher handler.
func NewVoucherHandler(workflow *approval.Workflow, queueSize int) *VoucherHandler {
	return &VoucherHandler{workflow: workflow, queueSize: queueSize}
}

type createVoucherRequest struct {
	Month int                 `json:"month" binding:"required"`
	Year  int                 `json:"year" binding:"required"`
	Form  *entity.VoucherForm `json:"form"`
}

// Create opens a draft voucher for the actor's reporting period.
func (h *VoucherHandler) Create(c *gin.Context) {
	var req createVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voucher, err := h.workflow.CreateDraft(c.Request.Context(), actor(c).ID, req.Month, req.Year, req.Form)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, voucher)
}

// Get returns a voucher by id.
func (h *VoucherHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	voucher, err := h.workflow.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, voucher)
}

type updateFormRequest struct {
	Form entity.VoucherForm `json:"form" binding:"required"`
}

// UpdateForm replaces the form data of an editable voucher.
func (h *VoucherHandler) UpdateForm(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voucher, err := h.workflow.UpdateForm(c.Request.Context(), id, actor(c).ID, &req.Form)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, voucher)
}

// Submit moves the actor's draft into the approval chain.
func (h *VoucherHandler) Submit(c *gin.Context) {
	h.transition(c, h.workflow.Submit)
}

// SupervisorApprove records the first-tier approval.
func (h *VoucherHandler) SupervisorApprove(c *gin.Context) {
	h.transition(c, h.workflow.SupervisorApprove)
}

// FleetApprove records the final approval.
func (h *VoucherHandler) FleetApprove(c *gin.Context) {
	h.transition(c, h.workflow.FleetApprove)
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject sends the voucher back to its owner with a reason.
func (h *VoucherHandler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voucher, err := h.workflow.Reject(c.Request.Context(), id, actor(c).ID, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, voucher)
}

// Reopen returns a rejected voucher to draft for the owner.
func (h *VoucherHandler) Reopen(c *gin.Context) {
	h.transition(c, h.workflow.Reopen)
}

// SupervisorQueue lists submitted vouchers routed to the acting supervisor.
func (h *VoucherHandler) SupervisorQueue(c *gin.Context) {
	vouchers, err := h.workflow.SupervisorQueue(c.Request.Context(), actor(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers})
}

// FleetQueue lists vouchers awaiting fleet approval.
func (h *VoucherHandler) FleetQueue(c *gin.Context) {
	offset, ok := queryOffset(c)
	if !ok {
		return
	}

	vouchers, err := h.workflow.FleetQueue(c.Request.Context(), actor(c).ID, h.queueSize, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers})
}

// History returns the voucher's audit trail.
func (h *VoucherHandler) History(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	records, err := h.workflow.History(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

func (h *VoucherHandler) transition(c *gin.Context, op func(ctx context.Context, voucherID, actorID int64) (*entity.Voucher, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	voucher, err := op(c.Request.Context(), id, actor(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, voucher)
}

// queryOffset parses the offset query parameter, defaulting to 0.
func queryOffset(c *gin.Context) (int, bool) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return 0, false
	}
	return offset, true
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
