package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"auction_web/internal/service"
)

// RoomHandler 處理與拍賣房間相關的 HTTP 請求
type RoomHandler struct {
	auctionService *service.AuctionService
}

// NewRoomHandler 創建一個新的 RoomHandler 實例
func NewRoomHandler(auctionService *service.AuctionService) *RoomHandler {
	return &RoomHandler{auctionService: auctionService}
}

// CheckRoom 查詢房間是否存在與已被占用的隊伍，供進房頁顯示
func (h *RoomHandler) CheckRoom(c *gin.Context) {
	roomCode := c.Param("code")

	exists, takenTeams, err := h.auctionService.RoomAvailability(c.Request.Context(), roomCode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "伺服器錯誤"})
		return
	}

	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"exists": false, "takenTeams": []string{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"exists": true, "takenTeams": takenTeams})
}
