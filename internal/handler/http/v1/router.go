package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all API v1 routes.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	incidents := api.Group("/incidents")
	{
		incidents.POST("", h.createIncident)
		incidents.GET("", h.listIncidents)
		incidents.GET("/:id", h.getIncident)
		incidents.PUT("/:id", h.updateIncident)
		incidents.DELETE("/:id", h.deleteIncident)
	}

	assets := api.Group("/assets")
	{
		assets.GET("", h.listAssets)
		assets.POST("/:id/checkin", h.checkInAsset)
	}

	api.GET("/map/markers", h.getMarkers)
	api.GET("/alerts", h.getAlerts)
	api.GET("/stats", h.getStats)

	feed := api.Group("/feed")
	{
		feed.GET("/status", h.getFeedStatus)
		feed.POST("/refresh", h.forceRefresh)
	}

	emergency := api.Group("/panic")
	{
		emergency.POST("/press", h.panicPress)
		emergency.POST("/release", h.panicRelease)
		emergency.GET("/status", h.panicStatus)
	}

	api.GET("/system/health", h.healthCheck)
}
