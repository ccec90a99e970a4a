package persistence

import (
	"context"
	"sync"

	"github.com/getkayan/medgas/domain"
)

// MemoryStorage keeps the record in process memory. Used by tests and by
// SESSION_BACKEND=memory, where a session lives as long as the process.
type MemoryStorage struct {
	mu  sync.Mutex
	rec *domain.SessionRecord
}

func init() {
	RegisterFactory("memory", func(string, string) (domain.SessionStorage, error) {
		return NewMemoryStorage(), nil
	})
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Load(ctx context.Context) (*domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil, domain.ErrNoSession
	}
	cp := *s.rec
	return &cp, nil
}

func (s *MemoryStorage) Save(ctx context.Context, rec *domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	cp.User = append(domain.JSON(nil), rec.User...)
	s.rec = &cp
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}
