package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"EdgeDesk/internal/domain/models"
	"EdgeDesk/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const (
	flowKeyPrefix  = "flow:"
	flowSymbolsKey = "flow:symbols"
)

// RedisFlowHistory retains unusual activity in Redis sorted sets scored by
// record timestamp, so pruning a retention window is a single range delete.
// Survives process restarts, unlike the memory history.
type RedisFlowHistory struct {
	client *redis.Client
}

// NewRedisFlowHistory creates a Redis-backed flow history.
func NewRedisFlowHistory(client *redis.Client) repository.FlowHistory {
	return &RedisFlowHistory{client: client}
}

func (h *RedisFlowHistory) Append(ctx context.Context, records []models.OptionsActivity) error {
	if len(records) == 0 {
		return nil
	}
	pipe := h.client.Pipeline()
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode flow record: %w", err)
		}
		pipe.ZAdd(ctx, flowKeyPrefix+r.Symbol, redis.Z{
			Score:  float64(r.Timestamp.UnixMilli()),
			Member: string(b),
		})
		pipe.SAdd(ctx, flowSymbolsKey, r.Symbol)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append flow history: %w", err)
	}
	return nil
}

func (h *RedisFlowHistory) Prune(ctx context.Context, olderThan time.Time) error {
	symbols, err := h.client.SMembers(ctx, flowSymbolsKey).Result()
	if err != nil {
		return fmt.Errorf("list flow symbols: %w", err)
	}
	cutoff := fmt.Sprintf("(%d", olderThan.UnixMilli())
	for _, sym := range symbols {
		key := flowKeyPrefix + sym
		if err := h.client.ZRemRangeByScore(ctx, key, "-inf", cutoff).Err(); err != nil {
			return fmt.Errorf("prune %s: %w", sym, err)
		}
		n, err := h.client.ZCard(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("card %s: %w", sym, err)
		}
		if n == 0 {
			if err := h.client.SRem(ctx, flowSymbolsKey, sym).Err(); err != nil {
				return fmt.Errorf("unregister %s: %w", sym, err)
			}
		}
	}
	return nil
}

func (h *RedisFlowHistory) BySymbol(ctx context.Context) (map[string][]models.OptionsActivity, error) {
	symbols, err := h.client.SMembers(ctx, flowSymbolsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list flow symbols: %w", err)
	}
	out := make(map[string][]models.OptionsActivity, len(symbols))
	for _, sym := range symbols {
		members, err := h.client.ZRangeByScore(ctx, flowKeyPrefix+sym, &redis.ZRangeBy{
			Min: "-inf",
			Max: "+inf",
		}).Result()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", sym, err)
		}
		recs := make([]models.OptionsActivity, 0, len(members))
		for _, m := range members {
			var r models.OptionsActivity
			if err := json.Unmarshal([]byte(m), &r); err != nil {
				// A single corrupt member must not poison the symbol.
				continue
			}
			recs = append(recs, r)
		}
		if len(recs) > 0 {
			out[sym] = recs
		}
	}
	return out, nil
}
