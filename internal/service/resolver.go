package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"auction_web/internal/models"
)

// ResolveExpiredRound 在倒數歸零時結算當前回合：
// 有最高出價者時成交並扣減其預算，否則標記流標；
// 兩種情況都推進指標、清空出價狀態、持久化後廣播結果。
// expectedIndex 與房間當前指標不符時視為重複觸發，不做任何事。
// generation 在取得房間鎖後重新驗證：到期訊號在等鎖期間
// 可能被一筆有效出價的倒數重設取代，被取代的世代不得結算。
func (s *AuctionService) ResolveExpiredRound(roomCode string, expectedIndex int, generation uint64) {
	lock := s.locks.acquire(roomCode)
	defer s.locks.release(lock)

	if generation != s.timer.latestGeneration(roomCode) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	room, err := s.repo.FindByCode(ctx, roomCode)
	if err != nil {
		log.Error().Err(err).Str("room_code", roomCode).Msg("resolve: failed to load room")
		return
	}

	// 冪等保護：同一回合只結算一次
	if room.CurrentIndex != expectedIndex {
		return
	}
	// 暫停指令與到期結算競爭同一把鎖時以暫停為準，回合維持開啟
	if room.Paused {
		return
	}

	item := room.CurrentItem()
	if item == nil {
		// 指標已越過池尾，發出結束訊號即可
		s.broadcaster.Emit(roomCode, models.EventAuctionEnded, room)
		return
	}

	winner := ""
	price := 0
	if room.HighestBidder != "" {
		item.Sold = true
		item.SoldTo = room.HighestBidder
		item.SoldPrice = room.CurrentBid
		room.AuctionHistory = append(room.AuctionHistory, *item)

		if buyer := room.FindParticipant(room.HighestBidder); buyer != nil {
			buyer.Budget -= room.CurrentBid
		}
		winner = room.HighestBidder
		price = room.CurrentBid
	} else {
		// 流標時明確標記未售出，不留曖昧狀態
		item.Sold = false
	}

	result := *item

	room.CurrentIndex++
	room.CurrentBid = 0
	room.HighestBidder = ""
	room.TimeLeft = 0

	if err := s.repo.Save(ctx, room); err != nil {
		// 持久化失敗時不排程下一回合，避免暫時狀態與持久狀態分歧
		log.Error().Err(err).Str("room_code", roomCode).Msg("resolve: failed to persist result")
		return
	}

	s.broadcaster.Emit(roomCode, models.EventRoundResult, models.RoundResultPayload{
		Item:                result,
		Winner:              winner,
		Price:               price,
		UpdatedParticipants: room.Participants,
	})

	s.timer.ScheduleNextRound(roomCode)
}
