package service

import (
	"time"

	"github.com/jonboulle/clockwork"

	"auction_web/internal/config"
	"auction_web/internal/repository"
)

type Services struct {
	Auction   *AuctionService
	Timer     *TimerService
	WebSocket *WebSocketService
}

func NewServices(repos *repository.Repositories, cfg *config.Config) (*Services, error) {
	hub := NewWebSocketService()

	// 設定了 NATS URL 時，所有事件同步鏡像到 NATS
	var broadcaster Broadcaster = hub
	if cfg.NATS.URL != "" {
		natsBroadcaster, err := NewNatsBroadcaster(hub, cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		broadcaster = natsBroadcaster
	}

	locks := newRoomLocks()
	timer := NewTimerService(
		repos.Room,
		broadcaster,
		locks,
		clockwork.NewRealClock(),
		time.Duration(cfg.Auction.NextRoundDelay)*time.Second,
	)
	auction := NewAuctionService(repos.Room, broadcaster, timer, locks)
	timer.SetResolver(auction)
	hub.SetAuctionService(auction)

	return &Services{
		Auction:   auction,
		Timer:     timer,
		WebSocket: hub,
	}, nil
}
