package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	EventUserWelcome  = "user.welcome"
	EventPurgePending = "accounts.purge_pending"
)

type Event struct {
	Type  string
	Email string
	Name  string
}

// Dispatcher publishes events onto the notification stream. Delivery is
// fire-and-forget: Dispatch returns immediately and failures are logged,
// never surfaced to the caller.
type Dispatcher struct {
	client *redis.Client
	stream string
	log    zerolog.Logger
}

func NewDispatcher(client *redis.Client, stream string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{client: client, stream: stream, log: log}
}

func (d *Dispatcher) Dispatch(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := d.client.XAdd(ctx, &redis.XAddArgs{
			Stream: d.stream,
			Values: map[string]any{
				"type":  event.Type,
				"email": event.Email,
				"name":  event.Name,
			},
		}).Err()
		if err != nil {
			d.log.Error().
				Err(err).
				Str("type", event.Type).
				Msg("event dispatch failed")
		}
	}()
}
