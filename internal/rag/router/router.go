// Package router provides retrieval service routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/iranzithierry/cognova-backend/internal/rag/handler"
)

// Register registers the retrieval service routes.
func Register(engine *gin.Engine, ragHandler *handler.RAGHandler) {
	engine.GET("/healthz", ragHandler.Health)

	v1 := engine.Group("/api/v1")
	{
		bots := v1.Group("/bots")
		{
			bots.POST("/:bot_id/search", ragHandler.Search)
			bots.POST("/:bot_id/sources", ragHandler.CreateSource)
			bots.GET("/:bot_id/sources", ragHandler.ListSources)
		}

		v1.GET("/stats", ragHandler.Stats)
		v1.DELETE("/cache", ragHandler.ClearCache)
	}

	logger.Info("retrieval routes registered")
}
