package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"auction_web/internal/models"
	"auction_web/internal/repository"
)

// RoundResolver 在倒數歸零時結算當前回合。
// index 為倒數啟動時的回合指標，供重複觸發時的冪等保護；
// generation 為該倒數的世代，結算器必須在房間鎖下重新驗證它，
// 已被新倒數取代的到期訊號不得結算。
type RoundResolver interface {
	ResolveExpiredRound(roomCode string, index int, generation uint64)
}

// countdown 為單一房間的進行中倒數。
// generation 區分倒數實例：被取消的倒數即使有殘留的 tick 排程，
// 也會因世代不符而被丟棄，不能只靠「註冊表中還有沒有項目」判斷。
type countdown struct {
	generation uint64
	remaining  int
	cancel     chan struct{}
	done       chan struct{} // run 迴圈結束時關閉
}

// TimerService 為每個活躍房間維護至多一個倒數計時器。
// 倒數值為暫時性的行程內狀態，僅在暫停時回寫到房間的 TimeLeft。
type TimerService struct {
	repo           repository.RoomRepository
	broadcaster    Broadcaster
	locks          *roomLocks
	clock          clockwork.Clock
	resolver       RoundResolver
	nextRoundDelay time.Duration

	mu         sync.Mutex
	active     map[string]*countdown
	latest     map[string]uint64 // 每個房間最後發出的世代，倒數移除後仍保留
	generation uint64
}

func NewTimerService(repo repository.RoomRepository, broadcaster Broadcaster, locks *roomLocks, clock clockwork.Clock, nextRoundDelay time.Duration) *TimerService {
	return &TimerService{
		repo:           repo,
		broadcaster:    broadcaster,
		locks:          locks,
		clock:          clock,
		nextRoundDelay: nextRoundDelay,
		active:         make(map[string]*countdown),
		latest:         make(map[string]uint64),
	}
}

// SetResolver 在組裝階段注入回合結算器，避免與 AuctionService 的建構循環
func (t *TimerService) SetResolver(resolver RoundResolver) {
	t.resolver = resolver
}

// StartRound 取得房間鎖後啟動一輪倒數，由回合間的延遲排程呼叫
func (t *TimerService) StartRound(roomCode string, resumeSeconds int) {
	lock := t.locks.acquire(roomCode)
	defer t.locks.release(lock)
	t.startLocked(roomCode, resumeSeconds)
}

// startLocked 啟動新的倒數，呼叫者必須已持有該房間的鎖。
// 既有的倒數會先被取消，保證同一房間同時至多一個倒數在跑。
// resumeSeconds 大於 0 時以該值繼續，否則使用房間設定的完整秒數。
func (t *TimerService) startLocked(roomCode string, resumeSeconds int) {
	t.stop(roomCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	room, err := t.repo.FindByCode(ctx, roomCode)
	if err != nil {
		log.Error().Err(err).Str("room_code", roomCode).Msg("timer start: failed to load room")
		return
	}

	// 回合間的延遲排程可能在暫停之後才觸發，此時不得重啟倒數
	if room.Paused {
		return
	}

	item := room.CurrentItem()
	if item == nil {
		// 球員池已拍完，發出結束訊號但不刪除房間，刪除由明確的 end 指令負責
		log.Info().Str("room_code", roomCode).Msg("auction exhausted")
		t.broadcaster.Emit(roomCode, models.EventAuctionEnded, room)
		return
	}

	seconds := room.TimerPreference
	if resumeSeconds > 0 {
		seconds = resumeSeconds
	}

	displayBid := room.CurrentBid
	if room.HighestBidder == "" {
		displayBid = item.BasePrice
	}

	t.mu.Lock()
	t.generation++
	t.latest[roomCode] = t.generation
	cd := &countdown{
		generation: t.generation,
		remaining:  seconds,
		cancel:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	t.active[roomCode] = cd
	t.mu.Unlock()

	t.broadcaster.Emit(roomCode, models.EventNewItem, models.NewItemPayload{
		Item:          *item,
		CurrentBid:    displayBid,
		HighestBidder: room.HighestBidder,
	})
	t.broadcaster.Emit(roomCode, models.EventTimerTick, seconds)

	go t.run(roomCode, cd, seconds, room.CurrentIndex)
}

// resetLocked 取消現有倒數並以完整秒數重新開始，為每次有效出價後的防狙擊機制。
// 呼叫者必須已持有房間鎖，因此舊倒數的取消必然先於新倒數的啟動。
func (t *TimerService) resetLocked(roomCode string) {
	t.startLocked(roomCode, 0)
}

// Stop 無條件取消房間的倒數，沒有倒數在跑時也可安全呼叫
func (t *TimerService) Stop(roomCode string) {
	t.stop(roomCode)
}

// stop 取消倒數並等待其迴圈結束，回傳後保證不會再有該倒數的 tick。
// 等待是安全的：迴圈的退出路徑不需要房間鎖
// （到期結算在進入結算器之前就已把自己從註冊表移除）。
func (t *TimerService) stop(roomCode string) {
	t.mu.Lock()
	cd, ok := t.active[roomCode]
	if ok {
		close(cd.cancel)
		delete(t.active, roomCode)
	}
	t.mu.Unlock()

	if ok {
		<-cd.done
	}
}

// Remaining 回傳倒數的剩餘秒數，僅供參考；沒有倒數在跑時回傳 0
func (t *TimerService) Remaining(roomCode string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cd, ok := t.active[roomCode]; ok {
		return cd.remaining
	}
	return 0
}

// run 為單一倒數實例的主迴圈，每秒遞減並廣播，歸零時觸發回合結算
func (t *TimerService) run(roomCode string, cd *countdown, seconds, index int) {
	defer close(cd.done)
	defer func() {
		// tick 處理中的未捕獲錯誤不能拖垮整個行程，
		// 記錄後僅停掉該房間的倒數
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("room_code", roomCode).Msg("countdown panicked")
			t.stopIfCurrent(roomCode, cd.generation)
		}
	}()

	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	remaining := seconds
	for {
		select {
		case <-cd.cancel:
			return
		case <-ticker.Chan():
			remaining--
			if !t.tick(roomCode, cd.generation, remaining) {
				return
			}
			if remaining <= 0 {
				t.expire(roomCode, cd.generation, index)
				return
			}
		}
	}
}

// tick 更新並廣播剩餘秒數，世代不符（倒數已被取代或取消）時回傳 false
func (t *TimerService) tick(roomCode string, generation uint64, remaining int) bool {
	t.mu.Lock()
	cd, ok := t.active[roomCode]
	if !ok || cd.generation != generation {
		t.mu.Unlock()
		return false
	}
	cd.remaining = remaining
	t.mu.Unlock()

	t.broadcaster.Emit(roomCode, models.EventTimerTick, remaining)
	return true
}

// expire 歸零處理：確認世代後移除倒數，將結算交給 RoundResolver。
// 每個倒數世代至多觸發一次結算。這裡的註冊表檢查不是最終裁決：
// 到期訊號可能在等待房間鎖期間被一筆出價的重設取代，
// 結算器會在鎖下以 latestGeneration 再驗證一次。
func (t *TimerService) expire(roomCode string, generation uint64, index int) {
	t.mu.Lock()
	cd, ok := t.active[roomCode]
	if !ok || cd.generation != generation {
		t.mu.Unlock()
		return
	}
	delete(t.active, roomCode)
	t.mu.Unlock()

	t.resolver.ResolveExpiredRound(roomCode, index, generation)
}

// latestGeneration 回傳該房間最後發出的倒數世代，從未啟動過時為 0。
// 世代在倒數被取消或到期後仍保留，直到房間結束才清除。
func (t *TimerService) latestGeneration(roomCode string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest[roomCode]
}

// Forget 停止倒數並清除房間的世代記錄，房間結束時呼叫
func (t *TimerService) Forget(roomCode string) {
	t.stop(roomCode)
	t.mu.Lock()
	delete(t.latest, roomCode)
	t.mu.Unlock()
}

// stopIfCurrent 僅在倒數仍屬於指定世代時移除它
func (t *TimerService) stopIfCurrent(roomCode string, generation uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cd, ok := t.active[roomCode]; ok && cd.generation == generation {
		delete(t.active, roomCode)
	}
}

// ScheduleNextRound 在短暫延遲後開始下一回合，讓客戶端有時間顯示結算結果
func (t *TimerService) ScheduleNextRound(roomCode string) {
	t.clock.AfterFunc(t.nextRoundDelay, func() {
		t.StartRound(roomCode, 0)
	})
}
