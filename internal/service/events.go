package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// natsEnvelope 為發佈到 NATS 的事件外層格式，供歸檔等外部消費者使用
type natsEnvelope struct {
	RoomCode  string      `json:"room_code"`
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NatsBroadcaster 裝飾另一個 Broadcaster：事件照常廣播給房間成員，
// 同時鏡像發佈到 auction.rooms.<code> 主題。發佈失敗只記錄，
// 不影響房間內的廣播。
type NatsBroadcaster struct {
	inner Broadcaster
	conn  *nats.Conn
}

func NewNatsBroadcaster(inner Broadcaster, url string) (*NatsBroadcaster, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NatsBroadcaster{inner: inner, conn: conn}, nil
}

func (b *NatsBroadcaster) Emit(roomCode, event string, payload interface{}) {
	b.inner.Emit(roomCode, event, payload)

	data, err := json.Marshal(natsEnvelope{
		RoomCode:  roomCode,
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("nats envelope encoding failed")
		return
	}

	subject := fmt.Sprintf("auction.rooms.%s", roomCode)
	if err := b.conn.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("nats publish failed")
	}
}

func (b *NatsBroadcaster) Close() {
	b.conn.Close()
}
