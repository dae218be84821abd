package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// Memory in-process LRU cache; the whole cache expires items after ttl, Set may give a shorter per-item ttl
// Memory 进程内 LRU 缓存，容量满时淘汰最久未使用的一项
type Memory struct {
	lru *expirable.LRU[string, memoryItem]
	now func() time.Time
}

// NewMemory maxEntries <= 0 时使用 10000，ttl <= 0 时不按时间清理
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &Memory{
		lru: expirable.NewLRU[string, memoryItem](maxEntries, nil, ttl),
		now: time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	item, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !item.expiresAt.IsZero() && m.now().After(item.expiresAt) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = m.now().Add(ttl)
	}
	m.lru.Add(key, item)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

func (m *Memory) Len() int {
	return m.lru.Len()
}

func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
