package adapter

import (
	"context"
	"log/slog"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/event"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/port"
)

// LogEventPublisher writes domain events to the log instead of a broker.
// It is used when no Kafka brokers are configured.
type LogEventPublisher struct {
	logger *slog.Logger
}

var _ port.EventPublisher = (*LogEventPublisher)(nil)

func NewLogEventPublisher(logger *slog.Logger) *LogEventPublisher {
	return &LogEventPublisher{logger: logger}
}

func (p *LogEventPublisher) Publish(ctx context.Context, events ...event.DomainEvent) error {
	for _, evt := range events {
		p.logger.InfoContext(ctx, "domain event",
			"event_type", evt.EventType(),
			"event_id", evt.EventID(),
			"aggregate_id", evt.AggregateID(),
			"occurred_at", evt.OccurredAt(),
		)
	}
	return nil
}
