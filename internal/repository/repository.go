package repository

import (
	"fmt"

	"auction_web/internal/config"
	"auction_web/internal/storage"
)

type Repositories struct {
	Room RoomRepository
}

// Closer 供 main 在程式結束時釋放底層連線
type Closer func() error

// NewRepositories 依配置選擇儲存後端並建立儲存庫
func NewRepositories(cfg *config.Config) (*Repositories, Closer, error) {
	switch cfg.Storage.Driver {
	case "redis":
		rdb, err := storage.NewRedisDB(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return &Repositories{Room: NewRedisRoomRepository(rdb)}, rdb.Close, nil

	case "postgres":
		db, err := storage.NewPostgresDB(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		roomRepo, err := NewGormRoomRepository(db)
		if err != nil {
			return nil, nil, err
		}
		return &Repositories{Room: roomRepo}, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}
