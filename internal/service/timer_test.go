package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction_web/internal/models"
)

func TestTimerStartRound(t *testing.T) {
	t.Run("emits new item with base price and initial tick", func(t *testing.T) {
		r := newRig(t)
		r.seedRoom(t, twoBidderRoom("R1", 10))

		r.timer.StartRound("R1", 0)

		e, ok := r.broadcaster.last(models.EventNewItem)
		require.True(t, ok)
		payload := e.Payload.(models.NewItemPayload)
		assert.Equal(t, "item-1", payload.Item.ID)
		assert.Equal(t, 5, payload.CurrentBid, "no bidder yet, base price is shown")
		assert.Empty(t, payload.HighestBidder)

		tick, ok := r.broadcaster.last(models.EventTimerTick)
		require.True(t, ok)
		assert.Equal(t, 10, tick.Payload)
		assert.Equal(t, 10, r.timer.Remaining("R1"))
	})

	t.Run("counts down one tick per second", func(t *testing.T) {
		r := newRig(t)
		r.seedRoom(t, twoBidderRoom("R1", 10))

		r.timer.StartRound("R1", 0)
		r.tickSeconds(t, 3)

		tick, ok := r.broadcaster.last(models.EventTimerTick)
		require.True(t, ok)
		assert.Equal(t, 7, tick.Payload)
		assert.Equal(t, 7, r.timer.Remaining("R1"))
	})

	t.Run("resume value overrides configured duration", func(t *testing.T) {
		r := newRig(t)
		r.seedRoom(t, twoBidderRoom("R1", 10))

		r.timer.StartRound("R1", 4)

		assert.Equal(t, 4, r.timer.Remaining("R1"))
	})

	t.Run("exhausted pool emits auction ended and no countdown", func(t *testing.T) {
		r := newRig(t)
		room := twoBidderRoom("R1", 10)
		room.CurrentIndex = len(room.PlayersPool)
		r.seedRoom(t, room)

		r.timer.StartRound("R1", 0)

		assert.Equal(t, 1, r.broadcaster.count(models.EventAuctionEnded))
		assert.Zero(t, r.timer.Remaining("R1"))
		assert.Zero(t, r.broadcaster.count(models.EventNewItem))
	})
}

func TestTimerStop(t *testing.T) {
	t.Run("no ticks fire after stop", func(t *testing.T) {
		r := newRig(t)
		r.seedRoom(t, twoBidderRoom("R1", 10))

		r.timer.StartRound("R1", 0)
		r.tickSeconds(t, 2)
		r.timer.Stop("R1")

		before := r.broadcaster.count(models.EventTimerTick)
		r.clock.Advance(time.Second)
		r.clock.Advance(time.Second)

		// 取消後殘留的排程必須是 no-op
		assert.Never(t, func() bool {
			return r.broadcaster.count(models.EventTimerTick) > before
		}, 50*time.Millisecond, 5*time.Millisecond)
		assert.Zero(t, r.timer.Remaining("R1"))
	})

	t.Run("safe to call with no active countdown", func(t *testing.T) {
		r := newRig(t)
		assert.NotPanics(t, func() {
			r.timer.Stop("nonexistent")
			r.timer.Stop("nonexistent")
		})
	})

	t.Run("restart supersedes the previous countdown", func(t *testing.T) {
		r := newRig(t)
		r.seedRoom(t, twoBidderRoom("R1", 10))

		r.timer.StartRound("R1", 0)
		r.tickSeconds(t, 4)
		require.Equal(t, 6, r.timer.Remaining("R1"))

		// 重新啟動後回到完整秒數，舊倒數的世代失效
		r.timer.StartRound("R1", 0)
		assert.Equal(t, 10, r.timer.Remaining("R1"))

		r.tickSeconds(t, 1)
		assert.Equal(t, 9, r.timer.Remaining("R1"))
	})
}

func TestTimerExpiry(t *testing.T) {
	t.Run("zero time resolves the round exactly once", func(t *testing.T) {
		r := newRig(t)
		r.seedRoom(t, twoBidderRoom("R1", 3))

		r.timer.StartRound("R1", 0)
		r.tickSeconds(t, 3)
		r.waitForEvent(t, models.EventRoundResult, 1)

		room := r.repo.mustGet(t, "R1")
		assert.Equal(t, 1, room.CurrentIndex)
		assert.Equal(t, 1, r.broadcaster.count(models.EventRoundResult))
	})

	t.Run("next round starts after the configured delay", func(t *testing.T) {
		r := newRig(t)
		r.seedRoom(t, twoBidderRoom("R1", 3))

		r.timer.StartRound("R1", 0)
		r.tickSeconds(t, 3)
		r.waitForEvent(t, models.EventRoundResult, 1)

		// 結算後延遲一秒才開始下一件；排程在結算 goroutine 中註冊，
		// 逐步推進直到它被觸發
		require.Eventually(t, func() bool {
			r.clock.Advance(time.Second)
			return r.broadcaster.count(models.EventNewItem) >= 2
		}, time.Second, 5*time.Millisecond, "next round did not start")

		e, _ := r.broadcaster.last(models.EventNewItem)
		payload := e.Payload.(models.NewItemPayload)
		assert.Equal(t, "item-2", payload.Item.ID)
	})
}
