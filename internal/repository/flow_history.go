package repository

import (
	"context"
	"sync"
	"time"

	"EdgeDesk/internal/domain/models"
	"EdgeDesk/internal/domain/repository"
)

// MemoryFlowHistory retains unusual activity per symbol in process memory.
type MemoryFlowHistory struct {
	mu      sync.RWMutex
	records map[string][]models.OptionsActivity
}

// NewMemoryFlowHistory creates an empty in-memory flow history.
func NewMemoryFlowHistory() repository.FlowHistory {
	return &MemoryFlowHistory{records: make(map[string][]models.OptionsActivity)}
}

func (h *MemoryFlowHistory) Append(ctx context.Context, records []models.OptionsActivity) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range records {
		h.records[r.Symbol] = append(h.records[r.Symbol], r)
	}
	return nil
}

func (h *MemoryFlowHistory) Prune(ctx context.Context, olderThan time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sym, recs := range h.records {
		kept := recs[:0]
		for _, r := range recs {
			if !r.Timestamp.Before(olderThan) {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(h.records, sym)
			continue
		}
		h.records[sym] = kept
	}
	return nil
}

func (h *MemoryFlowHistory) BySymbol(ctx context.Context) (map[string][]models.OptionsActivity, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string][]models.OptionsActivity, len(h.records))
	for sym, recs := range h.records {
		cp := make([]models.OptionsActivity, len(recs))
		copy(cp, recs)
		out[sym] = cp
	}
	return out, nil
}
