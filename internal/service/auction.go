package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"auction_web/internal/models"
	"auction_web/internal/repository"
)

// ErrTeamTaken 表示欲加入的隊伍已被其他參與者占用
var ErrTeamTaken = errors.New("team already taken")

// AuctionService 為房間生命週期的最上層狀態機：
// idle → running ⇄ paused → ended（結束即從儲存庫硬刪除）。
// 所有對外意圖由此進入，委派給出價仲裁與計時器，再負責持久化與廣播。
type AuctionService struct {
	repo        repository.RoomRepository
	broadcaster Broadcaster
	timer       *TimerService
	locks       *roomLocks
}

func NewAuctionService(repo repository.RoomRepository, broadcaster Broadcaster, timer *TimerService, locks *roomLocks) *AuctionService {
	return &AuctionService{
		repo:        repo,
		broadcaster: broadcaster,
		timer:       timer,
		locks:       locks,
	}
}

// Join 處理加入房間的請求。房間不存在且 create 為真時建立新房間；
// 已存在的用戶名視為重新連線，不變更參與者列表；
// 隊伍衝突回傳 ErrTeamTaken，由連線層回覆給該用戶。
func (s *AuctionService) Join(ctx context.Context, username, roomCode string, create bool, teamID string) (*models.Room, error) {
	lock := s.locks.acquire(roomCode)
	defer s.locks.release(lock)

	room, err := s.repo.FindByCode(ctx, roomCode)
	if errors.Is(err, repository.ErrRoomNotFound) {
		if !create {
			return nil, repository.ErrRoomNotFound
		}
		room = models.NewRoom(roomCode, username, teamID)
		if err := s.repo.Save(ctx, room); err != nil {
			return nil, err
		}
		s.broadcaster.Emit(roomCode, models.EventRoomSnapshot, room)
		return room, nil
	}
	if err != nil {
		return nil, err
	}

	// 球員池被清空的房間在下次加入時重新配池並重置拍賣狀態
	if len(room.PlayersPool) == 0 {
		room.PlayersPool = models.NewPool()
		room.Started = false
		room.CurrentIndex = 0
		room.CurrentBid = 0
		room.HighestBidder = ""
	}

	if room.FindParticipant(username) == nil {
		if room.HasTeam(teamID) {
			return nil, fmt.Errorf("%w: %s", ErrTeamTaken, teamID)
		}
		room.Participants = append(room.Participants, models.NewParticipant(username, teamID, false))
	}

	if err := s.repo.Save(ctx, room); err != nil {
		return nil, err
	}
	s.broadcaster.Emit(roomCode, models.EventRoomSnapshot, room)
	return room, nil
}

// RoomAvailability 供進房頁查詢：房間是否存在與已被占用的隊伍
func (s *AuctionService) RoomAvailability(ctx context.Context, roomCode string) (bool, []string, error) {
	room, err := s.repo.FindByCode(ctx, roomCode)
	if errors.Is(err, repository.ErrRoomNotFound) {
		return false, []string{}, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, room.TakenTeams(), nil
}

// UpdateTimerPreference 調整每回合倒數秒數，僅在拍賣開始前有效
func (s *AuctionService) UpdateTimerPreference(ctx context.Context, roomCode string, seconds int) error {
	lock := s.locks.acquire(roomCode)
	defer s.locks.release(lock)

	room, err := s.repo.FindByCode(ctx, roomCode)
	if err != nil {
		return err
	}
	if room.Started {
		return nil // 進行中不接受變更，靜默忽略
	}

	room.TimerPreference = models.ClampTimerPreference(seconds)
	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}
	s.broadcaster.Emit(roomCode, models.EventRoomSnapshot, room)
	return nil
}

// RemoveUpcomingItem 從球員池移除一位尚未上場的球員。
// 已成為當前拍賣對象、已售出、或指標已越過的球員不可移除。
func (s *AuctionService) RemoveUpcomingItem(ctx context.Context, roomCode, itemID string) error {
	lock := s.locks.acquire(roomCode)
	defer s.locks.release(lock)

	room, err := s.repo.FindByCode(ctx, roomCode)
	if err != nil {
		return err
	}

	index := -1
	for i := range room.PlayersPool {
		if room.PlayersPool[i].ID == itemID {
			index = i
			break
		}
	}
	if index == -1 {
		return nil
	}
	if room.PlayersPool[index].Sold {
		return nil
	}
	if room.Started && index <= room.CurrentIndex {
		return nil
	}

	room.PlayersPool = append(room.PlayersPool[:index], room.PlayersPool[index+1:]...)
	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}
	s.broadcaster.Emit(roomCode, models.EventRoomSnapshot, room)
	return nil
}

// StartAuction 開始（或重新開始）拍賣：重新洗牌球員池、清除售出旗標、
// 指標歸零，然後交給計時器啟動第一回合
func (s *AuctionService) StartAuction(ctx context.Context, roomCode string) error {
	lock := s.locks.acquire(roomCode)
	defer s.locks.release(lock)

	room, err := s.repo.FindByCode(ctx, roomCode)
	if err != nil {
		return err
	}

	room.Started = true
	room.Paused = false
	room.CurrentIndex = 0
	room.CurrentBid = 0
	room.HighestBidder = ""
	room.TimeLeft = 0
	models.ShuffleItems(room.PlayersPool)
	for i := range room.PlayersPool {
		room.PlayersPool[i].Sold = false
		room.PlayersPool[i].SoldTo = ""
		room.PlayersPool[i].SoldPrice = 0
	}

	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}

	s.broadcaster.Emit(roomCode, models.EventAuctionStarted, room)
	s.timer.startLocked(roomCode, 0)
	return nil
}

// PauseAuction 暫停拍賣：先取消倒數再持久化剩餘秒數，
// 確保快照之後不會再有 tick 或到期結算發生
func (s *AuctionService) PauseAuction(ctx context.Context, roomCode string) error {
	lock := s.locks.acquire(roomCode)
	defer s.locks.release(lock)

	room, err := s.repo.FindByCode(ctx, roomCode)
	if err != nil {
		return err
	}
	if !room.Started || room.Paused {
		return nil
	}

	remaining := s.timer.Remaining(roomCode)
	s.timer.Stop(roomCode)

	room.TimeLeft = remaining
	room.Paused = true
	if err := s.repo.Save(ctx, room); err != nil {
		log.Error().Err(err).Str("room_code", roomCode).Msg("failed to persist pause")
		return err
	}

	s.broadcaster.Emit(roomCode, models.EventAuctionPaused, room)
	return nil
}

// ResumeAuction 恢復拍賣，從暫停時快照的秒數繼續倒數。
// 當前球員已售出（外部狀態異動的邊界情況）時不重啟倒數。
func (s *AuctionService) ResumeAuction(ctx context.Context, roomCode string) error {
	lock := s.locks.acquire(roomCode)
	defer s.locks.release(lock)

	room, err := s.repo.FindByCode(ctx, roomCode)
	if err != nil {
		return err
	}
	if !room.Paused {
		return nil
	}

	room.Paused = false
	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}
	s.broadcaster.Emit(roomCode, models.EventAuctionResumed, room)

	if item := room.CurrentItem(); item != nil && !item.Sold {
		s.timer.startLocked(roomCode, room.TimeLeft)
	}
	return nil
}

// EndAuction 結束拍賣：停止倒數、廣播最終狀態後將房間自儲存庫硬刪除，
// 該房間代碼隨即可重新使用
func (s *AuctionService) EndAuction(ctx context.Context, roomCode string) error {
	lock := s.locks.acquire(roomCode)
	defer s.locks.release(lock)

	room, err := s.repo.FindByCode(ctx, roomCode)
	if err != nil {
		return err
	}

	room.Started = false
	room.Paused = false
	s.timer.Forget(roomCode)

	s.broadcaster.Emit(roomCode, models.EventAuctionEnded, room)

	if err := s.repo.Delete(ctx, roomCode); err != nil {
		log.Error().Err(err).Str("room_code", roomCode).Msg("failed to delete room")
		return err
	}
	return nil
}
