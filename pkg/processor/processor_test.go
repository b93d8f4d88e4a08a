package processor

import (
	"context"
	"sync"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendfield/clover/pkg/kafka"
	"github.com/lendfield/clover/pkg/matching"
	"github.com/lendfield/clover/pkg/models"
)

type fakeMatcher struct {
	mu      sync.Mutex
	forward []string
	reverse []string
}

func (f *fakeMatcher) FindMatchesForRequest(_ context.Context, requestID string) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forward = append(f.forward, requestID)
	return nil, nil
}

func (f *fakeMatcher) FindRequestsForItem(_ context.Context, itemID string) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reverse = append(f.reverse, itemID)
	return nil, nil
}

type fakeRefresher struct {
	mu        sync.Mutex
	refreshed []string
}

func (f *fakeRefresher) Refresh(_ context.Context, borrowerID string) ([]models.MatchGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, borrowerID)
	return nil, nil
}

func newTestProcessor() (*Processor, *fakeMatcher, *fakeRefresher, *matching.Dispatcher) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	matcher := &fakeMatcher{}
	refresher := &fakeRefresher{}
	dispatcher := matching.NewDispatcher(logger)
	return NewProcessor(logger, matcher, refresher, dispatcher), matcher, refresher, dispatcher
}

func mutationMessage(eventType, entityID, borrowerID string) *kafka.IncomingMessage {
	return &kafka.IncomingMessage{
		Topic: "marketplace-mutations",
		Mutation: &kafka.MutationEvent{
			EventType:  eventType,
			EntityID:   entityID,
			BorrowerID: borrowerID,
		},
	}
}

func TestProcessorProcessMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("request created triggers the forward pass", func(t *testing.T) {
		p, matcher, _, dispatcher := newTestProcessor()

		err := p.ProcessMessage(ctx, mutationMessage(EventRequestCreated, "req-1", ""))
		require.NoError(t, err)
		dispatcher.Wait()

		assert.Equal(t, []string{"req-1"}, matcher.forward)
		assert.Empty(t, matcher.reverse)
	})

	t.Run("request updated also triggers the forward pass", func(t *testing.T) {
		p, matcher, _, dispatcher := newTestProcessor()

		err := p.ProcessMessage(ctx, mutationMessage(EventRequestUpdated, "req-2", ""))
		require.NoError(t, err)
		dispatcher.Wait()

		assert.Equal(t, []string{"req-2"}, matcher.forward)
	})

	t.Run("item created triggers the reverse pass", func(t *testing.T) {
		p, matcher, _, dispatcher := newTestProcessor()

		err := p.ProcessMessage(ctx, mutationMessage(EventItemCreated, "item-1", ""))
		require.NoError(t, err)
		dispatcher.Wait()

		assert.Equal(t, []string{"item-1"}, matcher.reverse)
		assert.Empty(t, matcher.forward)
	})

	t.Run("match declined refreshes the borrower's groups", func(t *testing.T) {
		p, _, refresher, dispatcher := newTestProcessor()

		err := p.ProcessMessage(ctx, mutationMessage(EventMatchDeclined, "match-1", "borrower-1"))
		require.NoError(t, err)
		dispatcher.Wait()

		assert.Equal(t, []string{"borrower-1"}, refresher.refreshed)
	})

	t.Run("declined match without a borrower is committed without work", func(t *testing.T) {
		p, _, refresher, dispatcher := newTestProcessor()

		err := p.ProcessMessage(ctx, mutationMessage(EventMatchDeclined, "match-1", ""))
		require.NoError(t, err)
		dispatcher.Wait()

		assert.Empty(t, refresher.refreshed)
	})

	t.Run("unknown event types are skipped", func(t *testing.T) {
		p, matcher, refresher, dispatcher := newTestProcessor()

		err := p.ProcessMessage(ctx, mutationMessage("booking.completed", "booking-1", ""))
		require.NoError(t, err)
		dispatcher.Wait()

		assert.Empty(t, matcher.forward)
		assert.Empty(t, matcher.reverse)
		assert.Empty(t, refresher.refreshed)
	})

	t.Run("parses the raw payload when not pre-parsed", func(t *testing.T) {
		p, matcher, _, dispatcher := newTestProcessor()

		msg := &kafka.IncomingMessage{
			Topic: "marketplace-mutations",
			Value: []byte(`{"event_type":"request.created","entity_id":"req-3"}`),
		}

		err := p.ProcessMessage(ctx, msg)
		require.NoError(t, err)
		dispatcher.Wait()

		assert.Equal(t, []string{"req-3"}, matcher.forward)
	})

	t.Run("malformed payloads return an error", func(t *testing.T) {
		p, _, _, _ := newTestProcessor()

		msg := &kafka.IncomingMessage{Value: []byte(`{"event_type":""}`)}
		assert.Error(t, p.ProcessMessage(ctx, msg))
	})
}
