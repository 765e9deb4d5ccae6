package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/classyshop/go-order-intake/internal/kafka"
	"github.com/classyshop/go-order-intake/internal/orders"
	"github.com/classyshop/go-order-intake/internal/redisx"
)

// Service keeps the redis order cache warm from the order.created stream, so
// storefront reads stay off the database even across API restarts. It holds
// no locks and touches no shared mutable state beyond the cache.
type Service struct {
	Cache       redisx.KV
	ServiceName string
}

// HandleOrderCreated is the consumer handler. Events are deduplicated by
// event id; replays refresh the cache harmlessly.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	seen, err := s.Cache.Exists(ctx, dkey)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	orderJSON, err := json.Marshal(p.Order)
	if err != nil {
		return err
	}
	if err := s.Cache.Set(ctx, fmt.Sprintf(redisx.KeyOrder, p.OrderID), string(orderJSON), redisx.TTLOrderCache); err != nil {
		return err
	}
	if err := s.Cache.Set(ctx, dkey, "1", redisx.TTLDedup); err != nil {
		return err
	}

	slog.Info("order cache refreshed", "order_id", p.OrderID, "event_id", env.EventID)
	return nil
}
