package repository

import (
	"context"
	"sync"

	"EdgeDesk/internal/domain/models"
	"EdgeDesk/internal/domain/repository"
)

// MemoryTradeStore keeps the trade set in process memory. Update runs the
// mutation under the store lock, which makes per-id state transitions
// linearizable: two concurrent closes of one trade serialize, and the loser
// observes the already-closed status.
type MemoryTradeStore struct {
	mu     sync.RWMutex
	trades map[string]*models.Trade
	order  []string // insertion order for stable listing
}

// NewMemoryTradeStore creates an empty in-memory trade store.
func NewMemoryTradeStore() repository.TradeStore {
	return &MemoryTradeStore{trades: make(map[string]*models.Trade)}
}

func (s *MemoryTradeStore) Insert(ctx context.Context, t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.trades[t.ID] = &cp
	s.order = append(s.order, t.ID)
	return nil
}

func (s *MemoryTradeStore) Get(ctx context.Context, id string) (*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trades[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryTradeStore) Update(ctx context.Context, id string, mutate func(*models.Trade) error) (*models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trades[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	// Mutate a copy; the stored trade is only replaced when mutate succeeds,
	// so a failing call leaves the ledger untouched.
	cp := *t
	if err := mutate(&cp); err != nil {
		return nil, err
	}
	s.trades[id] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryTradeStore) List(ctx context.Context) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Trade, 0, len(s.order))
	for _, id := range s.order {
		if t, ok := s.trades[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}
