package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"auction_web/internal/models"
	"auction_web/internal/repository"
)

// Envelope 為送往客戶端的事件外層格式
type Envelope struct {
	Event    string      `json:"event"`
	RoomCode string      `json:"room_code"`
	Payload  interface{} `json:"payload"`
}

// Client 代表一個 WebSocket 客戶端連線
type Client struct {
	Conn     *websocket.Conn // WebSocket 連線
	Username string          // 完成 join_room 後才有值
	RoomCode string          // 完成 join_room 後才有值
	SendChan chan *Envelope  // 非同步送出事件的緩衝通道
}

// WebSocketService 管理所有連線並實作 Broadcaster，
// 也是客戶端意圖進入 AuctionService 的入口
type WebSocketService struct {
	clients    map[string]map[*Client]bool // roomCode -> client -> bool
	clientsMux sync.RWMutex
	auction    *AuctionService
}

func NewWebSocketService() *WebSocketService {
	return &WebSocketService{
		clients: make(map[string]map[*Client]bool),
	}
}

// SetAuctionService 在組裝階段注入，避免與 AuctionService 的建構循環
func (s *WebSocketService) SetAuctionService(auction *AuctionService) {
	s.auction = auction
}

// HandleConnection 處理新的 WebSocket 連線。
// 連線後的第一個意圖必須是 join_room，成功後該連線才會綁定到房間。
func (s *WebSocketService) HandleConnection(conn *websocket.Conn) {
	client := &Client{
		Conn:     conn,
		SendChan: make(chan *Envelope, 256),
	}

	defer func() {
		s.removeClient(client)
		conn.Close()
		close(client.SendChan)
	}()

	go s.writePump(client)
	s.readPump(client)
}

// readPump 持續讀取並分派客戶端傳來的意圖
func (s *WebSocketService) readPump(client *Client) {
	client.Conn.SetReadLimit(4096)
	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("websocket unexpected close")
			}
			break
		}

		intent, err := models.ParseIntent(message)
		if err != nil {
			log.Warn().Err(err).Msg("malformed intent dropped")
			continue
		}

		s.dispatch(client, intent)
	}
}

// dispatch 將意圖路由到對應的拍賣操作。
// 除 join_room 外，房間代碼與身分一律取自連線註冊時綁定的值，
// 不信任訊息內容裡自稱的身分。
func (s *WebSocketService) dispatch(client *Client, intent *models.Intent) {
	ctx := context.Background()

	if intent.Type == models.IntentJoinRoom {
		s.handleJoin(ctx, client, intent)
		return
	}

	if client.RoomCode == "" {
		return // 尚未加入任何房間
	}

	switch intent.Type {
	case models.IntentUpdateTimer:
		if err := s.auction.UpdateTimerPreference(ctx, client.RoomCode, intent.Seconds); err != nil {
			log.Error().Err(err).Str("room_code", client.RoomCode).Msg("update timer failed")
		}
	case models.IntentRemoveItem:
		if err := s.auction.RemoveUpcomingItem(ctx, client.RoomCode, intent.ItemID); err != nil {
			log.Error().Err(err).Str("room_code", client.RoomCode).Msg("remove item failed")
		}
	case models.IntentStartAuction:
		if err := s.auction.StartAuction(ctx, client.RoomCode); err != nil {
			log.Error().Err(err).Str("room_code", client.RoomCode).Msg("start auction failed")
		}
	case models.IntentPauseAuction:
		if err := s.auction.PauseAuction(ctx, client.RoomCode); err != nil {
			log.Error().Err(err).Str("room_code", client.RoomCode).Msg("pause auction failed")
		}
	case models.IntentResumeAuction:
		if err := s.auction.ResumeAuction(ctx, client.RoomCode); err != nil {
			log.Error().Err(err).Str("room_code", client.RoomCode).Msg("resume auction failed")
		}
	case models.IntentEndAuction:
		if err := s.auction.EndAuction(ctx, client.RoomCode); err != nil {
			log.Error().Err(err).Str("room_code", client.RoomCode).Msg("end auction failed")
		}
	case models.IntentPlaceBid:
		s.auction.PlaceBid(ctx, client.RoomCode, client.Username, intent.Amount)
	default:
		log.Warn().Str("type", intent.Type).Msg("unknown intent type")
	}
}

// handleJoin 先把連線掛進房間再執行加入，這樣加入成功後廣播的
// room_snapshot 也會送達加入者本人；失敗則移出並只回覆該客戶端。
func (s *WebSocketService) handleJoin(ctx context.Context, client *Client, intent *models.Intent) {
	client.Username = intent.Username
	client.RoomCode = intent.RoomCode
	s.addClient(client)

	_, err := s.auction.Join(ctx, intent.Username, intent.RoomCode, intent.Create, intent.TeamID)
	if err == nil {
		return
	}

	s.removeClient(client)
	client.Username = ""
	roomCode := client.RoomCode
	client.RoomCode = ""

	switch {
	case errors.Is(err, repository.ErrRoomNotFound):
		s.sendTo(client, roomCode, models.EventRoomRejected, "No rooms available with this ID")
	case errors.Is(err, ErrTeamTaken):
		s.sendTo(client, roomCode, models.EventRoomRejected,
			fmt.Sprintf("The team %s is already taken!", intent.TeamID))
	default:
		log.Error().Err(err).Str("room_code", roomCode).Msg("join failed")
		s.sendTo(client, roomCode, models.EventRoomRejected, "Server error")
	}
}

// writePump 處理向客戶端送出事件與心跳
func (s *WebSocketService) writePump(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case envelope, ok := <-client.SendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(envelope)
			if err != nil {
				log.Error().Err(err).Msg("event encoding failed")
				continue
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Emit 向房間內的所有客戶端廣播事件，實作 Broadcaster
func (s *WebSocketService) Emit(roomCode, event string, payload interface{}) {
	envelope := &Envelope{Event: event, RoomCode: roomCode, Payload: payload}

	// 只在持有讀鎖、客戶端仍在房間中時送出，
	// 連線清理端先移除客戶端（寫鎖）才關閉通道，因此不會送進已關閉的通道
	var stale []*Client
	s.clientsMux.RLock()
	for client := range s.clients[roomCode] {
		select {
		case client.SendChan <- envelope:
		default:
			stale = append(stale, client)
		}
	}
	s.clientsMux.RUnlock()

	// 送出隊列已滿的客戶端視為失聯，移除並關閉連線
	for _, client := range stale {
		s.removeClient(client)
		client.Conn.Close()
	}
}

// sendTo 只回覆單一客戶端，用於加入失敗等不應廣播的訊息
func (s *WebSocketService) sendTo(client *Client, roomCode, event string, payload interface{}) {
	envelope := &Envelope{Event: event, RoomCode: roomCode, Payload: payload}
	select {
	case client.SendChan <- envelope:
	default:
	}
}

func (s *WebSocketService) addClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	if s.clients[client.RoomCode] == nil {
		s.clients[client.RoomCode] = make(map[*Client]bool)
	}
	s.clients[client.RoomCode][client] = true
}

func (s *WebSocketService) removeClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	if clients, ok := s.clients[client.RoomCode]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(s.clients, client.RoomCode)
		}
	}
}

// RoomClientCount 回傳指定房間目前在線的連線數
func (s *WebSocketService) RoomClientCount(roomCode string) int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()
	return len(s.clients[roomCode])
}
