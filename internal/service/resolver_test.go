package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction_web/internal/models"
)

func TestResolveExpiredRound(t *testing.T) {
	ctx := context.Background()

	t.Run("sold round debits winner and records history", func(t *testing.T) {
		r := newRig(t)
		r.seedRoom(t, twoBidderRoom("R1", 10))
		r.auction.PlaceBid(ctx, "R1", "alice", 7)

		r.auction.ResolveExpiredRound("R1", 0, r.timer.latestGeneration("R1"))

		room := r.repo.mustGet(t, "R1")
		item := room.PlayersPool[0]
		assert.True(t, item.Sold)
		assert.Equal(t, "alice", item.SoldTo)
		assert.Equal(t, 7, item.SoldPrice)

		buyer := room.FindParticipant("alice")
		require.NotNil(t, buyer)
		assert.Equal(t, 93, buyer.Budget)

		require.Len(t, room.AuctionHistory, 1)
		assert.Equal(t, "item-1", room.AuctionHistory[0].ID)

		assert.Equal(t, 1, room.CurrentIndex)
		assert.Zero(t, room.CurrentBid)
		assert.Empty(t, room.HighestBidder)

		e, ok := r.broadcaster.last(models.EventRoundResult)
		require.True(t, ok)
		payload := e.Payload.(models.RoundResultPayload)
		assert.Equal(t, "alice", payload.Winner)
		assert.Equal(t, 7, payload.Price)
		assert.Equal(t, room.Participants, payload.UpdatedParticipants)
	})

	t.Run("round without bids stays unsold and keeps budgets", func(t *testing.T) {
		r := newRig(t)
		r.seedRoom(t, twoBidderRoom("R1", 10))

		r.auction.ResolveExpiredRound("R1", 0, r.timer.latestGeneration("R1"))

		room := r.repo.mustGet(t, "R1")
		assert.False(t, room.PlayersPool[0].Sold)
		assert.Empty(t, room.AuctionHistory)
		for _, p := range room.Participants {
			assert.Equal(t, 100, p.Budget)
		}
		assert.Equal(t, 1, room.CurrentIndex)

		e, ok := r.broadcaster.last(models.EventRoundResult)
		require.True(t, ok)
		payload := e.Payload.(models.RoundResultPayload)
		assert.Empty(t, payload.Winner)
		assert.Zero(t, payload.Price)
	})

	t.Run("duplicate resolution for the same index is a no-op", func(t *testing.T) {
		r := newRig(t)
		r.seedRoom(t, twoBidderRoom("R1", 10))
		r.auction.PlaceBid(ctx, "R1", "alice", 7)

		generation := r.timer.latestGeneration("R1")
		r.auction.ResolveExpiredRound("R1", 0, generation)
		r.auction.ResolveExpiredRound("R1", 0, generation) // 模擬計時器重複觸發

		room := r.repo.mustGet(t, "R1")
		assert.Equal(t, 1, room.CurrentIndex)
		assert.Equal(t, 93, room.FindParticipant("alice").Budget)
		assert.Equal(t, 1, r.broadcaster.count(models.EventRoundResult))
	})

	t.Run("index past the pool emits exhaustion without mutation", func(t *testing.T) {
		r := newRig(t)
		room := twoBidderRoom("R1", 10)
		room.CurrentIndex = 3
		r.seedRoom(t, room)

		r.auction.ResolveExpiredRound("R1", 3, r.timer.latestGeneration("R1"))

		got := r.repo.mustGet(t, "R1")
		assert.Equal(t, 3, got.CurrentIndex)
		assert.Equal(t, 1, r.broadcaster.count(models.EventAuctionEnded))
		assert.Zero(t, r.broadcaster.count(models.EventRoundResult))
	})

	t.Run("persist failure keeps the round open", func(t *testing.T) {
		r := newRig(t)
		r.seedRoom(t, twoBidderRoom("R1", 10))
		r.auction.PlaceBid(ctx, "R1", "alice", 7)

		r.repo.failNextSave(assert.AnError)
		r.auction.ResolveExpiredRound("R1", 0, r.timer.latestGeneration("R1"))

		room := r.repo.mustGet(t, "R1")
		assert.Equal(t, 0, room.CurrentIndex, "durable state must not advance on failed persist")
		assert.Equal(t, 100, room.FindParticipant("alice").Budget)
		assert.Zero(t, r.broadcaster.count(models.EventRoundResult))
	})

	t.Run("expiry superseded by an accepted bid is a no-op", func(t *testing.T) {
		r := newRig(t)
		r.seedRoom(t, twoBidderRoom("R1", 3))
		r.timer.StartRound("R1", 0)
		stale := r.timer.latestGeneration("R1")

		// 有效出價重設倒數並發出新世代，舊世代的到期訊號
		// 即使在出價提交後才搶到鎖，也不得結算這一回合
		r.auction.PlaceBid(ctx, "R1", "alice", 6)
		r.auction.ResolveExpiredRound("R1", 0, stale)

		room := r.repo.mustGet(t, "R1")
		assert.Zero(t, room.CurrentIndex, "the accepted bid re-opened the window")
		assert.Equal(t, 6, room.CurrentBid)
		assert.Equal(t, "alice", room.HighestBidder)
		assert.False(t, room.PlayersPool[0].Sold)
		assert.Equal(t, 100, room.FindParticipant("alice").Budget)
		assert.Zero(t, r.broadcaster.count(models.EventRoundResult))

		// 新世代到期時照常結算
		r.auction.ResolveExpiredRound("R1", 0, r.timer.latestGeneration("R1"))
		assert.Equal(t, 1, r.repo.mustGet(t, "R1").CurrentIndex)
	})

	t.Run("unknown room is ignored", func(t *testing.T) {
		r := newRig(t)
		assert.NotPanics(t, func() {
			r.auction.ResolveExpiredRound("nope", 0, 0)
		})
	})
}
