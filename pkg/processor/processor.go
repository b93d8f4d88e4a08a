// Package processor routes marketplace mutation events from Kafka into the
// matching pipeline. Pipelines run asynchronously; the consumer offset is
// committed once the event is dispatched.
package processor

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/lendfield/clover/pkg/kafka"
	"github.com/lendfield/clover/pkg/matching"
	"github.com/lendfield/clover/pkg/models"
	"github.com/lendfield/clover/pkg/tracing"
)

// Event types the processor reacts to. Everything else is skipped.
const (
	EventRequestCreated = "request.created"
	EventRequestUpdated = "request.updated"
	EventItemCreated    = "item.created"
	EventMatchDeclined  = "match.declined"
)

// Matcher is the engine surface the processor dispatches to.
type Matcher interface {
	FindMatchesForRequest(ctx context.Context, requestID string) ([]models.Match, error)
	FindRequestsForItem(ctx context.Context, itemID string) ([]models.Match, error)
}

// Processor dispatches mutation events to the matching engine.
type Processor struct {
	logger     ectologger.Logger
	engine     Matcher
	groups     matching.GroupRefresher
	dispatcher *matching.Dispatcher
}

// NewProcessor creates a new mutation event processor
func NewProcessor(logger ectologger.Logger, engine Matcher, groups matching.GroupRefresher, dispatcher *matching.Dispatcher) *Processor {
	return &Processor{
		logger:     logger,
		engine:     engine,
		groups:     groups,
		dispatcher: dispatcher,
	}
}

// ProcessMessage handles an incoming Kafka message. A nil return commits the
// offset; unknown event types are committed without work.
func (p *Processor) ProcessMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.ProcessMessage")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"key":    msg.Key,
		"topic":  msg.Topic,
		"offset": msg.Offset,
	})

	if msg.Mutation == nil {
		if err := msg.ParseMutation(); err != nil {
			log.WithError(err).Error("Failed to parse mutation event")
			return err
		}
	}

	evt := msg.Mutation
	log = log.WithFields(map[string]any{
		"event_type": evt.EventType,
		"entity_id":  evt.EntityID,
	})

	switch evt.EventType {
	case EventRequestCreated, EventRequestUpdated:
		p.dispatcher.Go("forward", map[string]any{"request_id": evt.EntityID}, func(ctx context.Context) error {
			_, err := p.engine.FindMatchesForRequest(ctx, evt.EntityID)
			return err
		})

	case EventItemCreated:
		p.dispatcher.Go("reverse", map[string]any{"item_id": evt.EntityID}, func(ctx context.Context) error {
			_, err := p.engine.FindRequestsForItem(ctx, evt.EntityID)
			return err
		})

	case EventMatchDeclined:
		borrowerID := evt.BorrowerID
		if borrowerID == "" {
			log.Warn("Declined match event missing borrower_id, skipping group refresh")
			return nil
		}
		p.dispatcher.Go("group_refresh", map[string]any{"borrower_id": borrowerID}, func(ctx context.Context) error {
			_, err := p.groups.Refresh(ctx, borrowerID)
			return err
		})

	default:
		log.Debug("Ignoring unhandled event type")
	}

	return nil
}
