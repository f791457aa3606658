package models

import (
	"fmt"

	"github.com/google/uuid"
)

// ItemTemplate 為目錄中的球員範本，建池時才賦予識別碼
type ItemTemplate struct {
	Name      string
	Role      string
	BasePrice int
}

// DefaultCatalog 固定的球員目錄，作為每個新房間球員池的種子
var DefaultCatalog = []ItemTemplate{
	{Name: "Virat Kohli", Role: "Batsman", BasePrice: 20},
	{Name: "Rohit Sharma", Role: "Batsman", BasePrice: 20},
	{Name: "Jasprit Bumrah", Role: "Bowler", BasePrice: 18},
	{Name: "MS Dhoni", Role: "Wicket Keeper", BasePrice: 18},
	{Name: "Hardik Pandya", Role: "All-Rounder", BasePrice: 16},
	{Name: "Ravindra Jadeja", Role: "All-Rounder", BasePrice: 16},
	{Name: "KL Rahul", Role: "Wicket Keeper", BasePrice: 14},
	{Name: "Suryakumar Yadav", Role: "Batsman", BasePrice: 14},
	{Name: "Rashid Khan", Role: "Bowler", BasePrice: 14},
	{Name: "Jos Buttler", Role: "Wicket Keeper", BasePrice: 14},
	{Name: "Pat Cummins", Role: "Bowler", BasePrice: 12},
	{Name: "David Warner", Role: "Batsman", BasePrice: 12},
	{Name: "Ben Stokes", Role: "All-Rounder", BasePrice: 12},
	{Name: "Shubman Gill", Role: "Batsman", BasePrice: 10},
	{Name: "Mohammed Shami", Role: "Bowler", BasePrice: 10},
	{Name: "Glenn Maxwell", Role: "All-Rounder", BasePrice: 10},
	{Name: "Rishabh Pant", Role: "Wicket Keeper", BasePrice: 10},
	{Name: "Yuzvendra Chahal", Role: "Bowler", BasePrice: 8},
	{Name: "Faf du Plessis", Role: "Batsman", BasePrice: 8},
	{Name: "Andre Russell", Role: "All-Rounder", BasePrice: 8},
	{Name: "Trent Boult", Role: "Bowler", BasePrice: 8},
	{Name: "Sanju Samson", Role: "Wicket Keeper", BasePrice: 6},
	{Name: "Shreyas Iyer", Role: "Batsman", BasePrice: 6},
	{Name: "Kagiso Rabada", Role: "Bowler", BasePrice: 6},
}

// NewPool 從目錄建立一份洗牌後的球員池，每個球員帶有新的唯一識別碼
// 且 Sold 旗標為清除狀態
func NewPool() []Item {
	pool := make([]Item, len(DefaultCatalog))
	for i, t := range DefaultCatalog {
		pool[i] = Item{
			ID:        uuid.NewString(),
			Name:      t.Name,
			Role:      t.Role,
			Image:     fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", t.Name),
			BasePrice: t.BasePrice,
		}
	}
	ShuffleItems(pool)
	return pool
}
