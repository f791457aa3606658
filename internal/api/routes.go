package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"auction_web/internal/api/handlers"
	"auction_web/internal/config"
	"auction_web/internal/middleware"
	"auction_web/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services, cfg *config.Config) {
	// 初始化 handlers
	roomHandler := handlers.NewRoomHandler(services.Auction)
	wsHandler := handlers.NewWebSocketHandler(services.WebSocket)

	r.Use(middleware.CORS(cfg.Server.FrontendOrigin))

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// API 路由群組
	api := r.Group("/api")
	{
		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})

		// 房間查詢（進房頁用）
		api.GET("/rooms/:code", roomHandler.CheckRoom)

		// WebSocket 連接點，所有拍賣意圖由此進入
		api.GET("/ws", wsHandler.HandleWebSocket)
	}
}
