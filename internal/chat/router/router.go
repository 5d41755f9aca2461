// Package router provides chat service routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/iranzithierry/cognova-backend/internal/chat/handler"
)

// Register registers the chat service routes.
func Register(engine *gin.Engine, chatHandler *handler.ChatHandler) {
	v1 := engine.Group("/api/v1")
	{
		bots := v1.Group("/bots")
		{
			bots.POST("", chatHandler.CreateBot)
			bots.GET("/:bot_id", chatHandler.GetBot)
			bots.POST("/:bot_id/chat", chatHandler.Chat)
			bots.GET("/:bot_id/conversations/:conversation_id/messages", chatHandler.Messages)
		}
	}

	logger.Info("chat routes registered")
}
