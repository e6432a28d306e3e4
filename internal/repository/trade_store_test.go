package repository

import (
	"context"
	"errors"
	"testing"

	"EdgeDesk/internal/domain/models"
)

func TestMemoryTradeStoreRoundTrip(t *testing.T) {
	s := NewMemoryTradeStore()
	ctx := context.Background()

	tr := &models.Trade{ID: "t1", Symbol: "BTC-DEC", Status: models.StatusOpen, Size: 10}
	if err := s.Insert(ctx, tr); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Symbol != "BTC-DEC" {
		t.Fatalf("round trip: %+v", got)
	}

	// Stored value must not alias the caller's struct.
	tr.Symbol = "mutated"
	got, _ = s.Get(ctx, "t1")
	if got.Symbol != "BTC-DEC" {
		t.Fatalf("store must copy on insert")
	}
}

func TestMemoryTradeStoreGetUnknown(t *testing.T) {
	s := NewMemoryTradeStore()
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryTradeStoreUpdateFailureLeavesTradeUntouched(t *testing.T) {
	s := NewMemoryTradeStore()
	ctx := context.Background()
	if err := s.Insert(ctx, &models.Trade{ID: "t1", Status: models.StatusOpen, Size: 10}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	boom := errors.New("boom")
	_, err := s.Update(ctx, "t1", func(tr *models.Trade) error {
		tr.Size = 999
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want mutate error, got %v", err)
	}

	got, _ := s.Get(ctx, "t1")
	if got.Size != 10 {
		t.Fatalf("failed update must not persist, size=%v", got.Size)
	}
}

func TestMemoryTradeStoreListInsertionOrder(t *testing.T) {
	s := NewMemoryTradeStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Insert(ctx, &models.Trade{ID: id}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	out, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 3 || out[0].ID != "a" || out[2].ID != "c" {
		t.Fatalf("insertion order not preserved: %+v", out)
	}
}
