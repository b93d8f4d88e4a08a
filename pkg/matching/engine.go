// Package matching runs the request/item matching pipeline: candidate
// retrieval, hard exclusion filters, composite scoring, batch persistence and
// notification triggers, in both directions.
package matching

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/lendfield/clover/pkg/availability"
	"github.com/lendfield/clover/pkg/metrics"
	"github.com/lendfield/clover/pkg/models"
	"github.com/lendfield/clover/pkg/scoring"
	"github.com/lendfield/clover/pkg/tracing"
)

// listingType scopes spec schema lookups; only item listings carry specs.
const listingType = "item"

// candidateKeywordLimit caps how many keywords broaden candidate retrieval
// beyond the category.
const candidateKeywordLimit = 5

// minTextRelevance is the floor below which a candidate needs corroboration
// (matching category plus a literal keyword hit) to survive.
const minTextRelevance = 10

// Engine orchestrates the matching pipeline.
type Engine struct {
	requests RequestStore
	items    ItemStore
	matches  MatchStore
	ratings  RatingStore
	schema   SchemaProvider
	checker  ConflictChecker
	notifier Notifier
	groups   GroupRefresher
	logger   ectologger.Logger
}

// NewEngine creates a new matching engine. All collaborators are required
// except groups, which may be nil when group aggregation is disabled.
func NewEngine(
	requests RequestStore,
	items ItemStore,
	matches MatchStore,
	ratings RatingStore,
	schema SchemaProvider,
	checker ConflictChecker,
	notifier Notifier,
	groups GroupRefresher,
	logger ectologger.Logger,
) *Engine {
	return &Engine{
		requests: requests,
		items:    items,
		matches:  matches,
		ratings:  ratings,
		schema:   schema,
		checker:  checker,
		notifier: notifier,
		groups:   groups,
		logger:   logger,
	}
}

// FindMatchesForRequest runs the forward pass for one request and returns the
// request's persisted matches ordered by score descending.
func (e *Engine) FindMatchesForRequest(ctx context.Context, requestID string) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.FindMatchesForRequest")
	defer span.End()

	start := time.Now()
	log := e.logger.WithContext(ctx).WithField("request_id", requestID)

	req, err := e.requests.Get(ctx, requestID)
	if err != nil {
		metrics.RecordPipeline("forward", "error", time.Since(start).Seconds())
		return nil, err
	}

	if req.Status != models.RequestStatusOpen && req.Status != models.RequestStatusMatched {
		log.WithField("status", req.Status).Debug("Request not matchable, skipping pipeline")
		metrics.RecordPipeline("forward", "skipped", time.Since(start).Seconds())
		return nil, nil
	}

	// A re-run (request.updated) must not re-create or re-notify pairs an
	// earlier pass produced.
	existing, err := e.matches.ListByRequest(ctx, req.ID)
	if err != nil {
		metrics.RecordPipeline("forward", "error", time.Since(start).Seconds())
		return nil, err
	}
	matchedItems := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		matchedItems[m.ItemID] = struct{}{}
	}

	keywords := scoring.TopKeywords(req.Title+" "+req.Description, candidateKeywordLimit)

	candidates, err := e.items.ListCandidates(ctx, models.CandidateQuery{
		ExcludeOwnerID: req.RequesterID,
		CategoryTier1:  req.CategoryTier1,
		CategoryTier2:  req.CategoryTier2,
		CategoryTier3:  req.CategoryTier3,
		Keywords:       keywords,
	})
	if err != nil {
		metrics.RecordPipeline("forward", "error", time.Since(start).Seconds())
		return nil, err
	}
	if len(candidates) == 0 {
		log.Debug("No candidate items for request")
		metrics.RecordPipeline("forward", "success", time.Since(start).Seconds())
		return nil, nil
	}

	ratings, err := e.ownerRatings(ctx, itemOwnerIDs(candidates))
	if err != nil {
		metrics.RecordPipeline("forward", "error", time.Since(start).Seconds())
		return nil, err
	}

	// Resolved once per run; every candidate shares the request's category.
	defs, err := e.schema.GetSpecsForItem(ctx, listingType, req.CategoryTier1, req.CategoryTier2, req.CategoryTier3)
	if err != nil {
		log.WithError(err).Warn("Failed to resolve spec schema, scoring without specs")
		defs = nil
	}

	conflicts := map[string]struct{}{}
	if req.HasNeedWindow() {
		conflicts, err = e.checker.ConflictingItems(ctx, itemIDs(candidates), *req.NeededFrom, *req.NeededUntil)
		if err != nil {
			metrics.RecordPipeline("forward", "error", time.Since(start).Seconds())
			return nil, err
		}
	}

	var created []*models.Match
	itemsByID := make(map[string]*models.Item, len(candidates))

	for i := range candidates {
		item := &candidates[i]

		if _, already := matchedItems[item.ID]; already {
			continue
		}

		if _, conflict := conflicts[item.ID]; conflict {
			metrics.RecordExclusion("date_conflict")
			continue
		}

		match, reason := e.evaluate(req, item, defs, ratings, keywords)
		if match == nil {
			metrics.RecordExclusion(reason)
			continue
		}

		itemsByID[item.ID] = item
		created = append(created, match)
	}

	if err := e.persistForward(ctx, req, created, itemsByID); err != nil {
		metrics.RecordPipeline("forward", "error", time.Since(start).Seconds())
		return nil, err
	}

	e.refreshGroups(ctx, req.RequesterID)

	result, err := e.matches.ListByRequest(ctx, req.ID)
	if err != nil {
		metrics.RecordPipeline("forward", "error", time.Since(start).Seconds())
		return nil, err
	}

	log.WithFields(map[string]any{
		"candidates": len(candidates),
		"created":    len(created),
	}).Info("Forward matching pipeline completed")
	metrics.RecordPipeline("forward", "success", time.Since(start).Seconds())

	return result, nil
}

// FindRequestsForItem runs the reverse pass for one item: the newly listed
// item is matched against all open and matched requests. Returns the matches
// created in this run ordered by score descending.
func (e *Engine) FindRequestsForItem(ctx context.Context, itemID string) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.FindRequestsForItem")
	defer span.End()

	start := time.Now()
	log := e.logger.WithContext(ctx).WithField("item_id", itemID)

	item, err := e.items.Get(ctx, itemID)
	if err != nil {
		metrics.RecordPipeline("reverse", "error", time.Since(start).Seconds())
		return nil, err
	}

	if !item.IsAvailable {
		log.Debug("Item not available, skipping pipeline")
		metrics.RecordPipeline("reverse", "skipped", time.Since(start).Seconds())
		return nil, nil
	}

	// The reverse pass must never duplicate a pair the forward pass created.
	existing, err := e.matches.ListByItem(ctx, item.ID)
	if err != nil {
		metrics.RecordPipeline("reverse", "error", time.Since(start).Seconds())
		return nil, err
	}
	matchedRequests := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		matchedRequests[m.RequestID] = struct{}{}
	}

	keywords := scoring.TopKeywords(item.Title+" "+item.Description, candidateKeywordLimit)

	candidates, err := e.requests.ListCandidates(ctx, models.CandidateQuery{
		ExcludeOwnerID: item.OwnerID,
		CategoryTier1:  item.CategoryTier1,
		CategoryTier2:  item.CategoryTier2,
		CategoryTier3:  item.CategoryTier3,
		Keywords:       keywords,
	})
	if err != nil {
		metrics.RecordPipeline("reverse", "error", time.Since(start).Seconds())
		return nil, err
	}
	if len(candidates) == 0 {
		log.Debug("No candidate requests for item")
		metrics.RecordPipeline("reverse", "success", time.Since(start).Seconds())
		return nil, nil
	}

	ratings, err := e.ownerRatings(ctx, []string{item.OwnerID})
	if err != nil {
		metrics.RecordPipeline("reverse", "error", time.Since(start).Seconds())
		return nil, err
	}

	defs, err := e.schema.GetSpecsForItem(ctx, listingType, item.CategoryTier1, item.CategoryTier2, item.CategoryTier3)
	if err != nil {
		log.WithError(err).Warn("Failed to resolve spec schema, scoring without specs")
		defs = nil
	}

	// One booking load for the item; every request window is tested in memory.
	bookings, err := e.checker.ItemBlockingBookings(ctx, item.ID)
	if err != nil {
		metrics.RecordPipeline("reverse", "error", time.Since(start).Seconds())
		return nil, err
	}

	var created []*models.Match
	reqsByID := make(map[string]*models.Request, len(candidates))

	for i := range candidates {
		req := &candidates[i]

		if _, already := matchedRequests[req.ID]; already {
			continue
		}

		if req.HasNeedWindow() && availability.HasBlockingConflict(bookings, *req.NeededFrom, *req.NeededUntil) {
			metrics.RecordExclusion("date_conflict")
			continue
		}

		reqKeywords := scoring.TopKeywords(req.Title+" "+req.Description, candidateKeywordLimit)
		match, reason := e.evaluate(req, item, defs, ratings, reqKeywords)
		if match == nil {
			metrics.RecordExclusion(reason)
			continue
		}

		reqsByID[req.ID] = req
		created = append(created, match)
	}

	if err := e.persistReverse(ctx, item, created, reqsByID); err != nil {
		metrics.RecordPipeline("reverse", "error", time.Since(start).Seconds())
		return nil, err
	}

	for _, borrowerID := range borrowerIDs(created) {
		e.refreshGroups(ctx, borrowerID)
	}

	sort.Slice(created, func(i, j int) bool { return created[i].MatchScore > created[j].MatchScore })

	result := make([]models.Match, 0, len(created))
	for _, m := range created {
		result = append(result, *m)
	}

	log.WithFields(map[string]any{
		"candidates": len(candidates),
		"created":    len(created),
	}).Info("Reverse matching pipeline completed")
	metrics.RecordPipeline("reverse", "success", time.Since(start).Seconds())

	return result, nil
}

// evaluate applies the per-candidate hard filters and scores survivors.
// A nil match means the candidate was excluded for the returned reason.
func (e *Engine) evaluate(req *models.Request, item *models.Item, defs []models.SpecFieldDef, ratings map[string]models.RatingAggregate, reqKeywords []string) (*models.Match, string) {
	if req.HasNeedWindow() && !availability.RuleAllows(item.Availability, *req.NeededFrom, *req.NeededUntil) {
		return nil, "availability_rule"
	}

	distance := scoring.DistanceMiles(req.Latitude, req.Longitude, item.Latitude, item.Longitude)
	if !scoring.WithinRadius(distance, req.MaxDistance) {
		return nil, "distance"
	}

	price := scoring.EvaluatePrice(req, item)
	if !price.WithinBudget {
		return nil, "budget"
	}

	specs := scoring.ScoreSpecs(req.Specs, item.Specs, defs)
	if specs.Excluded {
		return nil, "spec_required"
	}

	text := scoring.ScoreTextRelevance(req.Title, req.Description, item.Title, item.Description)
	if text.Score < minTextRelevance {
		if !scoring.CategoryMatches(req, item) {
			return nil, "low_relevance"
		}
		if !literalKeywordHit(reqKeywords, item.Title+" "+item.Description) {
			return nil, "low_relevance"
		}
	}

	var rating *models.RatingAggregate
	if agg, ok := ratings[item.OwnerID]; ok {
		rating = &agg
	}

	score := scoring.Score(scoring.Input{
		Request:  req,
		Item:     item,
		Distance: distance,
		Text:     text,
		Specs:    specs,
		Price:    price,
		Rating:   rating,
	})

	return &models.Match{
		RequestID:      req.ID,
		ItemID:         item.ID,
		BorrowerID:     req.RequesterID,
		LenderID:       item.OwnerID,
		DistanceMiles:  distance,
		MatchScore:     score,
		LenderResponse: models.LenderResponsePending,
	}, ""
}

// persistForward writes the forward pass results: one batch insert, the
// open to matched flip, then per-match notifications with isolated failures.
func (e *Engine) persistForward(ctx context.Context, req *models.Request, created []*models.Match, itemsByID map[string]*models.Item) error {
	if len(created) == 0 {
		return nil
	}

	if err := e.matches.CreateBatch(ctx, created); err != nil {
		return err
	}
	metrics.MatchesCreatedTotal.WithLabelValues("forward").Add(float64(len(created)))

	if err := e.requests.MarkMatched(ctx, []string{req.ID}); err != nil {
		return err
	}

	log := e.logger.WithContext(ctx).WithField("request_id", req.ID)

	// One notification per new match to the item owner. A single failure must
	// not stop the remaining sends.
	for _, m := range created {
		item := itemsByID[m.ItemID]
		if item == nil {
			continue
		}
		if err := e.notifier.MatchCreated(ctx, m, req, item); err != nil {
			log.WithError(err).WithField("match_id", m.ID).Warn("Failed to send match created notification")
		}
	}

	top := topMatch(created)
	topPrice := ""
	if item := itemsByID[top.ItemID]; item != nil {
		topPrice = scoring.FormatQuote(scoring.EvaluatePrice(req, item).Quote)
	}
	if err := e.notifier.MatchesFound(ctx, req.RequesterID, req.ID, len(created), topPrice); err != nil {
		log.WithError(err).Warn("Failed to send matches found notification")
	}

	return nil
}

// persistReverse writes the reverse pass results: batch insert, promote every
// touched open request, symmetric notifications.
func (e *Engine) persistReverse(ctx context.Context, item *models.Item, created []*models.Match, reqsByID map[string]*models.Request) error {
	if len(created) == 0 {
		return nil
	}

	if err := e.matches.CreateBatch(ctx, created); err != nil {
		return err
	}
	metrics.MatchesCreatedTotal.WithLabelValues("reverse").Add(float64(len(created)))

	var openIDs []string
	for _, m := range created {
		if req := reqsByID[m.RequestID]; req != nil && req.Status == models.RequestStatusOpen {
			openIDs = append(openIDs, req.ID)
		}
	}
	if len(openIDs) > 0 {
		if err := e.requests.MarkMatched(ctx, openIDs); err != nil {
			return err
		}
	}

	log := e.logger.WithContext(ctx).WithField("item_id", item.ID)

	for _, m := range created {
		req := reqsByID[m.RequestID]
		if req == nil {
			continue
		}
		if err := e.notifier.MatchCreated(ctx, m, req, item); err != nil {
			log.WithError(err).WithField("match_id", m.ID).Warn("Failed to send match created notification")
		}
		price := scoring.FormatQuote(scoring.EvaluatePrice(req, item).Quote)
		if err := e.notifier.MatchesFound(ctx, req.RequesterID, req.ID, 1, price); err != nil {
			log.WithError(err).WithField("request_id", req.ID).Warn("Failed to send matches found notification")
		}
	}

	return nil
}

func (e *Engine) ownerRatings(ctx context.Context, ownerIDs []string) (map[string]models.RatingAggregate, error) {
	if len(ownerIDs) == 0 {
		return map[string]models.RatingAggregate{}, nil
	}
	return e.ratings.AggregateByOwners(ctx, ownerIDs)
}

// refreshGroups is best-effort; group refresh failures never fail a pipeline.
func (e *Engine) refreshGroups(ctx context.Context, borrowerID string) {
	if e.groups == nil {
		return
	}
	if _, err := e.groups.Refresh(ctx, borrowerID); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("borrower_id", borrowerID).Warn("Failed to refresh match groups")
	}
}

func literalKeywordHit(keywords []string, text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func topMatch(matches []*models.Match) *models.Match {
	top := matches[0]
	for _, m := range matches[1:] {
		if m.MatchScore > top.MatchScore {
			top = m
		}
	}
	return top
}

func itemIDs(items []models.Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func itemOwnerIDs(items []models.Item) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, it := range items {
		if _, ok := seen[it.OwnerID]; ok {
			continue
		}
		seen[it.OwnerID] = struct{}{}
		ids = append(ids, it.OwnerID)
	}
	return ids
}

func borrowerIDs(matches []*models.Match) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, m := range matches {
		if _, ok := seen[m.BorrowerID]; ok {
			continue
		}
		seen[m.BorrowerID] = struct{}{}
		ids = append(ids, m.BorrowerID)
	}
	return ids
}
