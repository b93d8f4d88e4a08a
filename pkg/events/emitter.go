// Package events emits notification and lifecycle events produced by the
// matching pipeline. Delivery is owned by a downstream service; failures here
// are logged and never propagate into the pipeline.
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/lendfield/clover/pkg/kafka"
	"github.com/lendfield/clover/pkg/metrics"
	"github.com/lendfield/clover/pkg/models"
	"github.com/lendfield/clover/pkg/tracing"
)

// Event types consumed by the notification delivery service.
const (
	EventMatchCreated = "match_created"
	EventMatchFound   = "match_found"
)

// Publisher is the producer surface the emitter needs.
type Publisher interface {
	PublishNotification(ctx context.Context, event *kafka.NotificationEvent) error
	PublishLifecycleEvent(ctx context.Context, event *kafka.MatchLifecycleEvent) error
}

// Emitter publishes notification events for the matching pipeline.
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

// Notify sends one notification event. Errors are returned for the caller to
// log; they must not abort the surrounding pipeline.
func (e *Emitter) Notify(ctx context.Context, userID, eventType string, eventContext map[string]any) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.Notify")
	defer span.End()

	err := e.publisher.PublishNotification(ctx, &kafka.NotificationEvent{
		UserID:    userID,
		EventType: eventType,
		Context:   eventContext,
	})
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(eventType, "error").Inc()
		return err
	}

	metrics.NotificationsTotal.WithLabelValues(eventType, "success").Inc()
	return nil
}

// MatchCreated notifies the item owner about one new match and announces the
// match on the lifecycle stream.
func (e *Emitter) MatchCreated(ctx context.Context, match *models.Match, req *models.Request, item *models.Item) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.MatchCreated")
	defer span.End()

	if err := e.publisher.PublishLifecycleEvent(ctx, &kafka.MatchLifecycleEvent{
		EventType:  "match.created",
		EntityID:   match.ID,
		BorrowerID: match.BorrowerID,
		LenderID:   match.LenderID,
		Score:      match.MatchScore,
	}); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"match_id": match.ID}).Warn("Failed to publish match lifecycle event")
	}

	return e.Notify(ctx, item.OwnerID, EventMatchCreated, map[string]any{
		"match_id":      match.ID,
		"request_id":    req.ID,
		"request_title": req.Title,
		"item_id":       item.ID,
		"item_title":    item.Title,
		"match_score":   match.MatchScore,
	})
}

// MatchesFound notifies the requester that the pipeline produced matches,
// with the top match's price formatted for display.
func (e *Emitter) MatchesFound(ctx context.Context, requesterID, requestID string, matchCount int, topPrice string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.MatchesFound")
	defer span.End()

	eventContext := map[string]any{
		"request_id":  requestID,
		"match_count": matchCount,
	}
	if topPrice != "" {
		eventContext["top_match_price"] = topPrice
	}

	return e.Notify(ctx, requesterID, EventMatchFound, eventContext)
}
