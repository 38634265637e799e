package notification

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Publisher hands guest code messages to the dispatch bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// log-only publisher otherwise.
func NewPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		log.Warn().Msg("KAFKA_BROKERS not set, guest codes are only logged")
		return NewLogPublisher()
	}
	return NewKafkaPublisher(brokers, topic)
}

type logPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher() Publisher {
	return &logPublisher{logger: log.With().Str("component", "notification").Logger()}
}

// Publish never logs the code itself.
func (p *logPublisher) Publish(_ context.Context, msg Message) error {
	p.logger.Info().
		Str("type", msg.Type).
		Uint("guest_id", msg.GuestID).
		Uint("event_id", msg.EventID).
		Msg("guest message")
	return nil
}

func (p *logPublisher) Close() error { return nil }
