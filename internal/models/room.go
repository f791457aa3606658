package models

import "math/rand"

// 計時器偏好的合理範圍（秒）
const (
	MinTimerPreference     = 5
	MaxTimerPreference     = 60
	DefaultTimerPreference = 15
)

// Room 表示一個獨立的拍賣房間
type Room struct {
	RoomCode        string        `json:"room_code"` // 由創建者選定的唯一房間代碼
	CreatorName     string        `json:"creator_name"`
	TimerPreference int           `json:"timer_preference"` // 每回合倒數秒數
	Participants    []Participant `json:"participants"`
	PlayersPool     []Item        `json:"players_pool"`    // 插入順序即拍賣順序
	AuctionHistory  []Item        `json:"auction_history"` // 已結算的球員

	// 拍賣狀態
	Started       bool   `json:"is_auction_started"`
	CurrentIndex  int    `json:"current_player_index"` // 指向 PlayersPool 的指標
	CurrentBid    int    `json:"current_bid"`
	HighestBidder string `json:"highest_bidder"` // 參與者用戶名，無人出價時為空字串
	Paused        bool   `json:"is_paused"`
	TimeLeft      int    `json:"time_left"` // 僅在暫停時快照剩餘秒數
}

// NewRoom 建立一個新的房間，球員池為洗牌後的目錄副本
func NewRoom(roomCode, creatorName, teamID string) *Room {
	return &Room{
		RoomCode:        roomCode,
		CreatorName:     creatorName,
		TimerPreference: DefaultTimerPreference,
		Participants:    []Participant{NewParticipant(creatorName, teamID, true)},
		PlayersPool:     NewPool(),
	}
}

// CurrentItem 回傳當前拍賣中的球員，指標越界時回傳 nil
func (r *Room) CurrentItem() *Item {
	if r.CurrentIndex < 0 || r.CurrentIndex >= len(r.PlayersPool) {
		return nil
	}
	return &r.PlayersPool[r.CurrentIndex]
}

// FindParticipant 依用戶名查找參與者，不存在時回傳 nil
func (r *Room) FindParticipant(username string) *Participant {
	for i := range r.Participants {
		if r.Participants[i].Username == username {
			return &r.Participants[i]
		}
	}
	return nil
}

// HasTeam 檢查隊伍是否已被占用
func (r *Room) HasTeam(teamID string) bool {
	for i := range r.Participants {
		if r.Participants[i].TeamID == teamID {
			return true
		}
	}
	return false
}

// TakenTeams 回傳已被占用的隊伍識別碼列表
func (r *Room) TakenTeams() []string {
	teams := make([]string, 0, len(r.Participants))
	for i := range r.Participants {
		if r.Participants[i].TeamID != "" {
			teams = append(teams, r.Participants[i].TeamID)
		}
	}
	return teams
}

// ClampTimerPreference 將秒數限制在合理範圍內
func ClampTimerPreference(seconds int) int {
	if seconds < MinTimerPreference {
		return MinTimerPreference
	}
	if seconds > MaxTimerPreference {
		return MaxTimerPreference
	}
	return seconds
}

// ShuffleItems 以 Fisher-Yates 均勻洗牌球員列表（原地）
func ShuffleItems(items []Item) {
	rand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
