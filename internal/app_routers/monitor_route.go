package approuters

import (
	"github.com/prithvirajx-max/Driftyy-sub001/internal/configuration"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/handler"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/hub"

	"github.com/gin-gonic/gin"
)

// MonitorRouters sets up monitoring API routes
func MonitorRouters(router *gin.Engine, container *configuration.Container) {
	monitorService := hub.NewMonitorService(container.Hub)
	monitorHandler := handler.NewMonitorHandler(monitorService)

	monitorGroup := router.Group("/api/monitor")
	{
		monitorGroup.GET("/stats", monitorHandler.GetHubStats)
	}
}
