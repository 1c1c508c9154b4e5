package api

import (
	"net/http"
	"strconv"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/internal/trips"
	"github.com/gin-gonic/gin"
)

// TripHandler serves the trip log endpoints.
type TripHandler struct {
	service *trips.Service
}

// NewTripHandler creates a trip handler.
func NewTripHandler(service *trips.Service) *TripHandler {
	return &TripHandler{service: service}
}

type tripRequest struct {
	Date          string  `json:"date" binding:"required"`
	FromAddress   string  `json:"from_address" binding:"required"`
	ToAddress     string  `json:"to_address" binding:"required"`
	SiteName      string  `json:"site_name"`
	Purpose       string  `json:"purpose"`
	Miles         float64 `json:"miles" binding:"required"`
	RouteData     string  `json:"route_data"`
	DepartureTime string  `json:"departure_time"`
	ReturnTime    string  `json:"return_time"`
	Notes         string  `json:"notes"`
}

func (r *tripRequest) toEntity() *entity.Trip {
	return &entity.Trip{
		Date:          r.Date,
		FromAddress:   r.FromAddress,
		ToAddress:     r.ToAddress,
		SiteName:      r.SiteName,
		Purpose:       r.Purpose,
		Miles:         r.Miles,
		RouteData:     r.RouteData,
		DepartureTime: r.DepartureTime,
		ReturnTime:    r.ReturnTime,
		Notes:         r.Notes,
	}
}

// Create records a trip for the actor.
func (h *TripHandler) Create(c *gin.Context) {
	var req tripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.service.Create(c.Request.Context(), actor(c).ID, req.toEntity())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

// Update replaces a trip's fields.
func (h *TripHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req tripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.service.Update(c.Request.Context(), actor(c).ID, id, req.toEntity())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// Delete removes a trip.
func (h *TripHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor(c).ID, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List returns the actor's trips for a reporting period.
func (h *TripHandler) List(c *gin.Context) {
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}

	list, err := h.service.ListForPeriod(c.Request.Context(), actor(c).ID, month, year)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": list})
}
