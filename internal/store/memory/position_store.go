package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/krazyTry/lpbot/internal/store"
)

// PositionStore is an in-memory implementation of store.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*store.Position // keyed by signature
	now  func() time.Time
}

var _ store.PositionStore = (*PositionStore)(nil)

func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*store.Position),
		now:  time.Now,
	}
}

func (s *PositionStore) Insert(_ context.Context, p *store.Position) error {
	if err := store.Validate(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.Signature]; exists {
		return store.ErrDuplicateKey
	}

	cp := *p
	now := s.now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	if cp.Status == "" {
		cp.Status = store.StatusSubmitted
	}
	s.data[p.Signature] = &cp
	return nil
}

func (s *PositionStore) UpdateStatus(_ context.Context, signature string, status store.Status, errText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[signature]
	if !exists {
		return store.ErrNotFound
	}
	p.Status = status
	p.Error = errText
	p.UpdatedAt = s.now()
	return nil
}

func (s *PositionStore) GetBySignature(_ context.Context, signature string) (*store.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[signature]
	if !exists {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *PositionStore) ListByUser(_ context.Context, userID string, limit int) ([]*store.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*store.Position
	for _, p := range s.data {
		if p.UserID == userID {
			cp := *p
			result = append(result, &cp)
		}
	}

	// newest first, signature breaks ties
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].Signature < result[j].Signature
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
