package models

import "encoding/json"

// 廣播事件名稱，為對外契約的一部分，不可隨意更動
const (
	EventRoomSnapshot   = "room_snapshot"
	EventAuctionStarted = "auction_started"
	EventNewItem        = "new_item"
	EventTimerTick      = "timer_tick"
	EventBidAccepted    = "bid_accepted"
	EventRoundResult    = "round_result"
	EventAuctionPaused  = "auction_paused"
	EventAuctionResumed = "auction_resumed"
	EventAuctionEnded   = "auction_ended"
	EventRoomRejected   = "room_rejected"
)

// NewItemPayload 新回合開始時廣播的內容
type NewItemPayload struct {
	Item          Item   `json:"item"`
	CurrentBid    int    `json:"current_bid"` // 無人出價時為底價
	HighestBidder string `json:"highest_bidder"`
}

// BidAcceptedPayload 出價被接受時廣播的內容
type BidAcceptedPayload struct {
	CurrentBid    int    `json:"current_bid"`
	HighestBidder string `json:"highest_bidder"`
}

// RoundResultPayload 回合結算時廣播的內容
type RoundResultPayload struct {
	Item                Item          `json:"item"`
	Winner              string        `json:"winner,omitempty"` // 流標時為空
	Price               int           `json:"price"`
	UpdatedParticipants []Participant `json:"updatedParticipants"`
}

// 客戶端意圖類型
const (
	IntentJoinRoom      = "join_room"
	IntentUpdateTimer   = "update_timer"
	IntentRemoveItem    = "remove_item"
	IntentStartAuction  = "start_auction"
	IntentPauseAuction  = "pause_auction"
	IntentResumeAuction = "resume_auction"
	IntentEndAuction    = "end_auction"
	IntentPlaceBid      = "place_bid"
)

// Intent 代表一個由客戶端傳入的操作請求
type Intent struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
	Username string `json:"username,omitempty"`
	Create   bool   `json:"create,omitempty"`  // join_room：不存在時是否建立房間
	TeamID   string `json:"team_id,omitempty"` // join_room：欲使用的隊伍
	Seconds  int    `json:"seconds,omitempty"` // update_timer：倒數秒數
	ItemID   string `json:"item_id,omitempty"` // remove_item：欲移除的球員
	Amount   int    `json:"amount,omitempty"`  // place_bid：出價金額
}

// ParseIntent 解析客戶端傳來的 JSON 意圖
func ParseIntent(data []byte) (*Intent, error) {
	var intent Intent
	if err := json.Unmarshal(data, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}
