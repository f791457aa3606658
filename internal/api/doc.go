// Package api 處理 HTTP 請求路由和處理。
//
// 這個包包含了所有的 HTTP 處理器（handlers）。
// 拍賣的操作意圖走 WebSocket，HTTP 只提供房間查詢與健康檢查。
package api
