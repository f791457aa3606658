package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"auction_web/internal/models"
	"auction_web/internal/storage"
)

// ErrRoomNotFound 表示查無此房間代碼
var ErrRoomNotFound = errors.New("room not found")

// RoomRepository 是房間狀態的持久化介面。
// Save 為整筆覆寫，對單一房間而言必須是原子的；不提供欄位級的部分更新。
type RoomRepository interface {
	FindByCode(ctx context.Context, roomCode string) (*models.Room, error)
	Save(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, roomCode string) error
}

// roomRecord 以 JSONB 文件形式存放整個房間，房間代碼為唯一鍵
type roomRecord struct {
	gorm.Model
	RoomCode string `gorm:"uniqueIndex;not null"`
	Data     []byte `gorm:"type:jsonb;not null"`
}

func (roomRecord) TableName() string {
	return "rooms"
}

type gormRoomRepository struct {
	db *storage.PostgresDB
}

// NewGormRoomRepository 建立 PostgreSQL 後端的房間儲存庫並遷移資料表
func NewGormRoomRepository(db *storage.PostgresDB) (RoomRepository, error) {
	if err := db.AutoMigrate(&roomRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate rooms table: %w", err)
	}
	return &gormRoomRepository{db: db}, nil
}

func (r *gormRoomRepository) FindByCode(ctx context.Context, roomCode string) (*models.Room, error) {
	var record roomRecord
	err := r.db.WithContext(ctx).First(&record, "room_code = ?", roomCode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	var room models.Room
	if err := json.Unmarshal(record.Data, &room); err != nil {
		return nil, fmt.Errorf("failed to decode room %s: %w", roomCode, err)
	}
	return &room, nil
}

func (r *gormRoomRepository) Save(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to encode room %s: %w", room.RoomCode, err)
	}

	record := roomRecord{RoomCode: room.RoomCode, Data: data}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&record).Error
}

func (r *gormRoomRepository) Delete(ctx context.Context, roomCode string) error {
	// 硬刪除：房間結束後代碼必須立即可重用，軟刪除會撞到唯一索引
	return r.db.WithContext(ctx).Unscoped().
		Where("room_code = ?", roomCode).
		Delete(&roomRecord{}).Error
}
