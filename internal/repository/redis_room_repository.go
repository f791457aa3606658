package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"auction_web/internal/models"
	"auction_web/internal/storage"
)

type redisRoomRepository struct {
	rdb *storage.RedisDB
}

// NewRedisRoomRepository 建立 Redis 後端的房間儲存庫。
// 房間存活期短且結束即刪除，適合以 Redis 作為狀態後端。
func NewRedisRoomRepository(rdb *storage.RedisDB) RoomRepository {
	return &redisRoomRepository{rdb: rdb}
}

func roomKey(roomCode string) string {
	return fmt.Sprintf("room:%s", roomCode)
}

func (r *redisRoomRepository) FindByCode(ctx context.Context, roomCode string) (*models.Room, error) {
	data, err := r.rdb.Get(ctx, roomKey(roomCode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	var room models.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to decode room %s: %w", roomCode, err)
	}
	return &room, nil
}

func (r *redisRoomRepository) Save(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to encode room %s: %w", room.RoomCode, err)
	}
	// SET 為整筆覆寫，單鍵操作在 Redis 上本身即為原子
	return r.rdb.Set(ctx, roomKey(room.RoomCode), data, 0).Err()
}

func (r *redisRoomRepository) Delete(ctx context.Context, roomCode string) error {
	return r.rdb.Del(ctx, roomKey(roomCode)).Err()
}
