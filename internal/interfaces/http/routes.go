package http

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api/v1")
	{
		api.GET("/snapshot", handler.GetSnapshot)
		api.GET("/snapshot/stream", handler.StreamSnapshots)
		api.GET("/snapshot/groups/:name", handler.GetSnapshotGroup)

		api.GET("/instruments/search", handler.SearchInstrument)
		api.GET("/instruments/:code/history", handler.GetHistory)

		api.GET("/refresh-intervals", handler.ListRefreshIntervals)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
