package contract

import (
	"context"
	"sync"

	"github.com/haierkeys/onchain-diary-service/internal/domain"

	"github.com/pkg/errors"
)

type stateKey struct {
	owner string
	day   uint64
}

// memoryState 进程内存储，重启即丢失
type memoryState struct {
	mu      sync.RWMutex
	entries map[stateKey][]*domain.DiaryEntry
}

// NewMemoryState 创建内存存储
func NewMemoryState() State {
	return &memoryState{entries: make(map[stateKey][]*domain.DiaryEntry)}
}

func (s *memoryState) ListByDay(ctx context.Context, owner string, day uint64) ([]*domain.DiaryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.entries[stateKey{owner, day}]
	out := make([]*domain.DiaryEntry, 0, len(list))
	for _, e := range list {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memoryState) CountByDay(ctx context.Context, owner string, day uint64) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.entries[stateKey{owner, day}])), nil
}

func (s *memoryState) Create(ctx context.Context, entry *domain.DiaryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := stateKey{entry.Owner, entry.Day}
	if entry.Position != uint64(len(s.entries[key])) {
		return errors.Errorf("entry %s/%d/%d already exists or is out of order", entry.Owner, entry.Day, entry.Position)
	}
	cp := *entry
	s.entries[key] = append(s.entries[key], &cp)
	return nil
}
