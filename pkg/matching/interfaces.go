package matching

import (
	"context"
	"time"

	"github.com/lendfield/clover/pkg/models"
)

// RequestStore is the request persistence surface the engine needs.
type RequestStore interface {
	Get(ctx context.Context, id string) (*models.Request, error)
	ListCandidates(ctx context.Context, q models.CandidateQuery) ([]models.Request, error)
	MarkMatched(ctx context.Context, ids []string) error
}

// ItemStore is the item persistence surface the engine needs.
type ItemStore interface {
	Get(ctx context.Context, id string) (*models.Item, error)
	ListCandidates(ctx context.Context, q models.CandidateQuery) ([]models.Item, error)
}

// MatchStore is the match persistence surface the engine needs.
type MatchStore interface {
	CreateBatch(ctx context.Context, matches []*models.Match) error
	ListByRequest(ctx context.Context, requestID string) ([]models.Match, error)
	ListByItem(ctx context.Context, itemID string) ([]models.Match, error)
}

// RatingStore aggregates owner ratings in bulk.
type RatingStore interface {
	AggregateByOwners(ctx context.Context, ownerIDs []string) (map[string]models.RatingAggregate, error)
}

// ConflictChecker answers booking-conflict questions.
type ConflictChecker interface {
	ConflictingItems(ctx context.Context, itemIDs []string, pickup, ret time.Time) (map[string]struct{}, error)
	ItemBlockingBookings(ctx context.Context, itemID string) ([]models.Booking, error)
}

// SchemaProvider resolves the spec field schema for a category path.
type SchemaProvider interface {
	GetSpecsForItem(ctx context.Context, listingType, tier1, tier2, tier3 string) ([]models.SpecFieldDef, error)
}

// Notifier triggers notification events. Implementations are fire-and-forget;
// errors are logged by the engine and never abort a pipeline.
type Notifier interface {
	MatchCreated(ctx context.Context, match *models.Match, req *models.Request, item *models.Item) error
	MatchesFound(ctx context.Context, requesterID, requestID string, matchCount int, topPrice string) error
}

// GroupRefresher recomputes a borrower's opportunity groups.
type GroupRefresher interface {
	Refresh(ctx context.Context, borrowerID string) ([]models.MatchGroup, error)
}
