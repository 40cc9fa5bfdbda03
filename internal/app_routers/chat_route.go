package approuters

import (
	"github.com/prithvirajx-max/Driftyy-sub001/internal/configuration"

	"github.com/gin-gonic/gin"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/api/chats")
	{
		chatRoute.GET("/private/:peerId/messages", container.ChatHandler.GetPrivateHistory)
		chatRoute.GET("/groups/:groupId/messages", container.ChatHandler.GetGroupHistory)
		chatRoute.POST("/messages/:messageId/read", container.ChatHandler.MarkMessageRead)
	}
}
