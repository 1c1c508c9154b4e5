package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles the endpoint handlers the router mounts.
type Handlers struct {
	Vouchers    *VoucherHandler
	Trips       *TripHandler
	Assignments *AssignmentHandler
	Directory   *DirectoryHandler
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(handlers Handlers, users UserStore, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "mileage-voucher",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	api.Use(ResolveActor(users))
	{
		vouchers := api.Group("/vouchers")
		{
			vouchers.POST("", handlers.Vouchers.Create)
			vouchers.GET("/queue/supervisor", handlers.Vouchers.SupervisorQueue)
			vouchers.GET("/queue/fleet", handlers.Vouchers.FleetQueue)
			vouchers.GET("/:id", handlers.Vouchers.Get)
			vouchers.PUT("/:id/form", handlers.Vouchers.UpdateForm)
			vouchers.GET("/:id/history", handlers.Vouchers.History)
			vouchers.POST("/:id/submit", handlers.Vouchers.Submit)
			vouchers.POST("/:id/supervisor-approve", handlers.Vouchers.SupervisorApprove)
			vouchers.POST("/:id/fleet-approve", handlers.Vouchers.FleetApprove)
			vouchers.POST("/:id/reject", handlers.Vouchers.Reject)
			vouchers.POST("/:id/reopen", handlers.Vouchers.Reopen)
		}

		trips := api.Group("/trips")
		{
			trips.POST("", handlers.Trips.Create)
			trips.GET("", handlers.Trips.List)
			trips.PUT("/:id", handlers.Trips.Update)
			trips.DELETE("/:id", handlers.Trips.Delete)
		}

		requests := api.Group("/assignment-requests")
		{
			requests.POST("", handlers.Assignments.Create)
			requests.GET("/pending", handlers.Assignments.ListPending)
			requests.POST("/:id/approve", handlers.Assignments.Approve)
			requests.POST("/:id/reject", handlers.Assignments.Reject)
		}

		api.GET("/inspectors/:id/supervisor", handlers.Directory.GetSupervisors)
		api.PUT("/inspectors/:id/supervisor", handlers.Directory.SetSupervisor)
		api.DELETE("/inspectors/:id/supervisor", handlers.Directory.ClearSupervisor)
		api.GET("/supervisors/:id/inspectors", handlers.Directory.ListInspectors)
	}

	return router
}
