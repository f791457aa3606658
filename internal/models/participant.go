package models

import "fmt"

// DefaultBudget 每位參與者的初始預算（單位：Cr）
const DefaultBudget = 100

// Participant 表示房間中的一位參與者
type Participant struct {
	Username  string `json:"username"`             // 房間內唯一的用戶名
	IsCreator bool   `json:"is_creator"`           // 每個房間恰好一位為 true
	Budget    int    `json:"budget"`               // 剩餘預算，只由回合結算時扣減
	Avatar    string `json:"avatar"`               // 頭像網址
	TeamID    string `json:"team_id"`              // 隊伍識別碼，為獨立欄位，不從顯示名稱解析
	TeamName  string `json:"team_name,omitempty"` // 隊伍顯示名稱
}

// NewParticipant 建立一位新的參與者，預算為預設值
func NewParticipant(username, teamID string, isCreator bool) Participant {
	return Participant{
		Username:  username,
		IsCreator: isCreator,
		Budget:    DefaultBudget,
		Avatar:    AvatarURL(username),
		TeamID:    teamID,
		TeamName:  teamID,
	}
}

// AvatarURL 以用戶名為種子產生 dicebear 頭像網址
func AvatarURL(username string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", username)
}
