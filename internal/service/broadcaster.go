package service

// Broadcaster 將具名事件與內容廣播給房間內的所有連線成員。
// 傳遞為 fire-and-forget、至多一次，核心邏輯不依賴任何送達確認。
type Broadcaster interface {
	Emit(roomCode, event string, payload interface{})
}
