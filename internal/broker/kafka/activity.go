package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"filedeck/internal/config"
	"filedeck/internal/domain"

	kafka "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// ActivityPublisher writes activity events to the configured topic.
type ActivityPublisher struct {
	producer *producerClient
	retries  retry.Strategy
	logger   *zlog.Zerolog
}

func NewActivityPublisher(cfg *config.Config, logger *zlog.Zerolog) *ActivityPublisher {
	return &ActivityPublisher{
		producer: newProducerClient(cfg),
		retries:  cfg.PublishRetryStrategy(),
		logger:   logger,
	}
}

func (p *ActivityPublisher) Publish(ctx context.Context, event domain.ActivityEvent) {
	key, value, err := EncodeEvent(event)
	if err != nil {
		p.logger.Error().Err(err).Str("event_id", event.ID).Msg("Failed to encode activity event")
		return
	}

	if err := p.producer.Send(ctx, p.retries, key, value); err != nil {
		p.logger.Error().Err(err).
			Str("event_id", event.ID).
			Str("kind", string(event.Kind)).
			Msg("Failed to publish activity event")
		return
	}

	p.logger.Debug().Str("event_id", event.ID).Str("kind", string(event.Kind)).Msg("Activity event published")
}

func (p *ActivityPublisher) Close() error {
	return p.producer.Close()
}

// ActivityFeed reads activity events back from the topic.
type ActivityFeed struct {
	consumer *consumerClient
	retries  retry.Strategy
	logger   *zlog.Zerolog
}

func NewActivityFeed(cfg *config.Config, logger *zlog.Zerolog) *ActivityFeed {
	return &ActivityFeed{
		consumer: newConsumerClient(cfg),
		retries:  cfg.PublishRetryStrategy(),
		logger:   logger,
	}
}

// Tail calls handle for every event until ctx is done.
func (f *ActivityFeed) Tail(ctx context.Context, handle func(domain.ActivityEvent)) error {
	messages := make(chan kafka.Message, 16)
	go f.consumer.StartConsuming(ctx, messages, f.retries)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			event, err := DecodeEvent(msg)
			if err != nil {
				f.logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("Skipping malformed activity event")
			} else {
				handle(event)
			}

			if err := f.consumer.Commit(ctx, msg); err != nil {
				f.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to commit message")
			}
		}
	}
}

func (f *ActivityFeed) Close() error {
	return f.consumer.Close()
}

// EncodeEvent keys an event by file id, falling back to the event id.
func EncodeEvent(event domain.ActivityEvent) (key, value []byte, err error) {
	value, err = json.Marshal(event)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	k := event.FileID
	if k == "" {
		k = event.ID
	}
	return []byte(k), value, nil
}

func DecodeEvent(msg kafka.Message) (domain.ActivityEvent, error) {
	var event domain.ActivityEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return domain.ActivityEvent{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Kind == "" {
		return domain.ActivityEvent{}, fmt.Errorf("event at offset %d has no kind", msg.Offset)
	}
	return event, nil
}
