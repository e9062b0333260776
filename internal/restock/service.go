package restock

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jivorix/checkout-service/internal/inventory"
	"github.com/jivorix/checkout-service/internal/orders"
	"github.com/jivorix/checkout-service/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Service consumes stock-depleted events and re-seeds the affected items to
// the configured level. Initialize only overwrites rows still at or below
// zero, so a manual restock that lands before the worker wins.
type Service struct {
	Store       *inventory.Store
	Redis       *redis.Client
	Level       int
	ServiceName string
}

func (s *Service) HandleStockDepleted(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventStockDepleted {
		return nil
	}

	// dedup by event_id
	dkey := s.dedupKey(env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	var p orders.StockDepletedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}

	seeds := make([]inventory.SeedItem, 0, len(p.ItemIDs))
	for _, id := range p.ItemIDs {
		seeds = append(seeds, inventory.SeedItem{ItemID: id, Available: s.Level})
	}

	res, err := s.Store.Initialize(ctx, seeds)
	if err != nil {
		return err
	}
	log.Printf("restocked %d depleted item(s) to %d", len(res.Restocked), s.Level)
	return nil
}

func (s *Service) dedupKey(eventID string) string {
	return fmt.Sprintf(redisx.KeyDedup, s.ServiceName, eventID)
}
