// Package statuscache keeps the redis order-status cache warm by consuming
// order events, so status reads do not have to hit the database.
package statuscache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/MICGolf/backend/internal/kafka"
	"github.com/MICGolf/backend/internal/orders"
	"github.com/MICGolf/backend/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	ServiceName string
}

// HandleEvent is wired as the consumer handler for every order topic.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// dedup via redis, keyed by event id
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}

	orderID, status, err := statusFor(env)
	if err != nil {
		return err
	}
	if status == "" {
		return nil // event type we do not project
	}

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	body, _ := json.Marshal(map[string]string{"status": status})
	if err := s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err(); err != nil {
		return err
	}
	return s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
}

func statusFor(env orders.Envelope) (int64, string, error) {
	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return 0, "", err
		}
		return p.OrderID, string(orders.FulfillmentPending), nil
	case orders.EventShippingUpdated:
		p, err := kafkax.UnwrapPayload[orders.ShippingUpdatedPayload](env.Payload)
		if err != nil {
			return 0, "", err
		}
		return p.OrderID, p.Status, nil
	case orders.EventClaimFiled:
		p, err := kafkax.UnwrapPayload[orders.ClaimFiledPayload](env.Payload)
		if err != nil {
			return 0, "", err
		}
		return p.OrderID, p.Outcome, nil
	default:
		return 0, "", nil
	}
}
