package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"auction_web/internal/models"
)

// PlaceBid 驗證並套用一筆出價。
// 任一前置條件不成立時出價被靜默丟棄：不廣播、不改狀態，
// 拒絕時不回報細節，避免洩漏可供狙擊利用的時機資訊，
// 也讓持有過期狀態的客戶端不會收到錯誤轟炸。
func (s *AuctionService) PlaceBid(ctx context.Context, roomCode, username string, amount int) {
	lock := s.locks.acquire(roomCode)
	defer s.locks.release(lock)

	room, err := s.repo.FindByCode(ctx, roomCode)
	if err != nil {
		log.Warn().Err(err).Str("room_code", roomCode).Msg("bid dropped: failed to load room")
		return
	}

	if !room.Started || room.Paused {
		return
	}

	bidder := room.FindParticipant(username)
	if bidder == nil {
		return
	}
	if amount > bidder.Budget {
		return
	}
	// 現任最高出價者不能對自己加價
	if room.HighestBidder == username {
		return
	}

	item := room.CurrentItem()
	if item == nil {
		return
	}

	// 尚無人出價時以底價為下限，否則以當前最高價為下限；一律要求嚴格大於
	floor := room.CurrentBid
	if room.HighestBidder == "" {
		floor = item.BasePrice
	}
	if amount <= floor {
		return
	}

	room.CurrentBid = amount
	room.HighestBidder = username

	if err := s.repo.Save(ctx, room); err != nil {
		// 持久化失敗時不重設倒數，以免記憶體與儲存庫的視圖默默分歧
		log.Error().Err(err).Str("room_code", roomCode).Str("bidder", username).Msg("failed to persist bid")
		return
	}

	s.broadcaster.Emit(roomCode, models.EventBidAccepted, models.BidAcceptedPayload{
		CurrentBid:    amount,
		HighestBidder: username,
	})

	// 每次有效出價都給所有人完整的倒數窗口（防狙擊）
	s.timer.resetLocked(roomCode)
}
