package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"auction_web/internal/models"
	"auction_web/internal/repository"
)

// memoryRoomRepository 測試用的記憶體儲存庫，以 JSON 深拷貝模擬整筆覆寫
type memoryRoomRepository struct {
	mu      sync.Mutex
	rooms   map[string][]byte
	failSet error // 設定後下一次 Save 回傳此錯誤
}

func newMemoryRoomRepository() *memoryRoomRepository {
	return &memoryRoomRepository{rooms: make(map[string][]byte)}
}

func (m *memoryRoomRepository) FindByCode(_ context.Context, roomCode string) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.rooms[roomCode]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	var room models.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (m *memoryRoomRepository) Save(_ context.Context, room *models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSet != nil {
		err := m.failSet
		m.failSet = nil
		return err
	}
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	m.rooms[room.RoomCode] = data
	return nil
}

func (m *memoryRoomRepository) Delete(_ context.Context, roomCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomCode)
	return nil
}

func (m *memoryRoomRepository) failNextSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet = err
}

// mustGet 直接讀出房間狀態供斷言使用
func (m *memoryRoomRepository) mustGet(t *testing.T, roomCode string) *models.Room {
	t.Helper()
	room, err := m.FindByCode(context.Background(), roomCode)
	require.NoError(t, err)
	return room
}

type emitted struct {
	RoomCode string
	Event    string
	Payload  interface{}
}

// recordingBroadcaster 記錄所有廣播事件供斷言使用
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []emitted
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{}
}

func (b *recordingBroadcaster) Emit(roomCode, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, emitted{RoomCode: roomCode, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) count(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

func (b *recordingBroadcaster) last(event string) (emitted, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].Event == event {
			return b.events[i], true
		}
	}
	return emitted{}, false
}

// rig 組裝一組帶假時鐘與測試替身的完整服務
type rig struct {
	repo        *memoryRoomRepository
	broadcaster *recordingBroadcaster
	clock       *clockwork.FakeClock
	locks       *roomLocks
	timer       *TimerService
	auction     *AuctionService
}

func newRig(t *testing.T) *rig {
	t.Helper()

	repo := newMemoryRoomRepository()
	broadcaster := newRecordingBroadcaster()
	clock := clockwork.NewFakeClock()
	locks := newRoomLocks()
	timer := NewTimerService(repo, broadcaster, locks, clock, time.Second)
	auction := NewAuctionService(repo, broadcaster, timer, locks)
	timer.SetResolver(auction)

	return &rig{
		repo:        repo,
		broadcaster: broadcaster,
		clock:       clock,
		locks:       locks,
		timer:       timer,
		auction:     auction,
	}
}

// seedRoom 寫入一個手工構造的房間，讓測試不受洗牌影響
func (r *rig) seedRoom(t *testing.T, room *models.Room) {
	t.Helper()
	require.NoError(t, r.repo.Save(context.Background(), room))
}

// tickSeconds 逐秒推進假時鐘，並等待每一個 tick 廣播送達後再推下一秒
func (r *rig) tickSeconds(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		r.clock.BlockUntil(1) // 等待倒數 goroutine 掛上 ticker
		before := r.broadcaster.count(models.EventTimerTick)
		r.clock.Advance(time.Second)
		require.Eventually(t, func() bool {
			return r.broadcaster.count(models.EventTimerTick) > before
		}, time.Second, 2*time.Millisecond, "tick was not delivered")
	}
}

// waitForEvent 等待某事件至少出現 n 次
func (r *rig) waitForEvent(t *testing.T, event string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return r.broadcaster.count(event) >= n
	}, time.Second, 2*time.Millisecond, "event %s did not reach %d", event, n)
}

// twoBidderRoom 固定順序的三件拍品與兩位參與者，拍賣已開始
func twoBidderRoom(code string, timerPreference int) *models.Room {
	return &models.Room{
		RoomCode:        code,
		CreatorName:     "alice",
		TimerPreference: timerPreference,
		Participants: []models.Participant{
			{Username: "alice", IsCreator: true, Budget: 100, TeamID: "CSK"},
			{Username: "bob", Budget: 100, TeamID: "MI"},
		},
		PlayersPool: []models.Item{
			{ID: "item-1", Name: "One", Role: "Batsman", BasePrice: 5},
			{ID: "item-2", Name: "Two", Role: "Bowler", BasePrice: 10},
			{ID: "item-3", Name: "Three", Role: "All-Rounder", BasePrice: 15},
		},
		Started: true,
	}
}
