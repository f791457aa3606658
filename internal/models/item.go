package models

// Item 表示一個待拍賣的球員
type Item struct {
	ID        string `json:"id"`         // 房間內唯一的識別碼
	Name      string `json:"name"`       // 顯示名稱
	Role      string `json:"role"`       // Batsman, Bowler, All-Rounder, Wicket Keeper
	Image     string `json:"image"`      // 頭像圖片網址
	BasePrice int    `json:"base_price"` // 底價
	Sold      bool   `json:"is_sold"`
	SoldTo    string `json:"sold_to"`    // 得標者的用戶名，未售出時為空字串
	SoldPrice int    `json:"sold_price"` // 成交價，預設為 0
}
