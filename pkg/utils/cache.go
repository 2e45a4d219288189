package utils

import (
	"sync"
	"time"
)

// StateStore OAuth state 一次性存储
// key: state nonce
// value: 发起授权的店铺域名
type StateStore struct {
	items sync.Map
	ttl   time.Duration
	now   func() time.Time
}

type stateItem struct {
	value     string
	expiresAt time.Time
}

// NewStateStore ttl <= 0 时默认 10 分钟，足够完成一次安装流程
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{ttl: ttl, now: time.Now}
}

// Put 写入
func (s *StateStore) Put(key, value string) {
	s.items.Store(key, stateItem{value: value, expiresAt: s.now().Add(s.ttl)})
}

// Pop 读取并删除（用完即焚），过期视为不存在
func (s *StateStore) Pop(key string) (string, bool) {
	val, ok := s.items.LoadAndDelete(key)
	if !ok {
		return "", false
	}
	item := val.(stateItem)
	if s.now().After(item.expiresAt) {
		return "", false
	}
	return item.value, true
}

// Sweep 清理过期项，返回清理数量
func (s *StateStore) Sweep() int {
	now := s.now()
	n := 0
	s.items.Range(func(key, val any) bool {
		if now.After(val.(stateItem).expiresAt) {
			s.items.Delete(key)
			n++
		}
		return true
	})
	return n
}
