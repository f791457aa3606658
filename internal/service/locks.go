package service

import "sync"

// roomLock 為單一房間的互斥鎖登錄項，refs 記錄持有者與等待者的總數
type roomLock struct {
	code string
	mu   sync.Mutex
	refs int
}

// roomLocks 提供每個房間一把互斥鎖的註冊表。
// 同一房間的所有變更操作（出價、結算、暫停、恢復等）必須持有該房間的鎖，
// 不同房間之間互不影響，可完全並行。
// 登錄項以引用計數回收：只要還有持有者或等待者，同一房間代碼
// 必定解析到同一把鎖，互斥域不會因房間結束或重建而分裂。
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

func newRoomLocks() *roomLocks {
	return &roomLocks{
		locks: make(map[string]*roomLock),
	}
}

// acquire 鎖定指定房間的鎖，登錄項不存在時建立
func (l *roomLocks) acquire(roomCode string) *roomLock {
	l.mu.Lock()
	entry, ok := l.locks[roomCode]
	if !ok {
		entry = &roomLock{code: roomCode}
		l.locks[roomCode] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return entry
}

// release 解鎖，最後一個使用者離開時回收登錄項
func (l *roomLocks) release(entry *roomLock) {
	entry.mu.Unlock()

	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, entry.code)
	}
	l.mu.Unlock()
}
