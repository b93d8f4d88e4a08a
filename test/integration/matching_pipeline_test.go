// Package integration exercises the full matching flow across packages:
// engine, scoring, availability, group manager and notification triggers,
// backed by in-memory stores.
package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendfield/clover/pkg/matchgroup"
	"github.com/lendfield/clover/pkg/matching"
	"github.com/lendfield/clover/pkg/models"
)

type memRequestStore struct {
	mu   sync.Mutex
	byID map[string]*models.Request
}

func (s *memRequestStore) Get(_ context.Context, id string) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("request %s not found", id)
	}
	clone := *req
	return &clone, nil
}

func (s *memRequestStore) ListCandidates(_ context.Context, q models.CandidateQuery) ([]models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Request
	for _, req := range s.byID {
		if req.RequesterID == q.ExcludeOwnerID {
			continue
		}
		if req.Status != models.RequestStatusOpen && req.Status != models.RequestStatusMatched {
			continue
		}
		if matchesQuery(q, req.CategoryTier1, req.CategoryTier2, req.Title+" "+req.Description) {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (s *memRequestStore) MarkMatched(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if req, ok := s.byID[id]; ok && req.Status == models.RequestStatusOpen {
			req.Status = models.RequestStatusMatched
		}
	}
	return nil
}

type memItemStore struct {
	mu   sync.Mutex
	byID map[string]*models.Item
}

func (s *memItemStore) Get(_ context.Context, id string) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("item %s not found", id)
	}
	clone := *item
	return &clone, nil
}

func (s *memItemStore) ListCandidates(_ context.Context, q models.CandidateQuery) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Item
	for _, item := range s.byID {
		if item.OwnerID == q.ExcludeOwnerID || !item.IsAvailable {
			continue
		}
		if matchesQuery(q, item.CategoryTier1, item.CategoryTier2, item.Title+" "+item.Description) {
			out = append(out, *item)
		}
	}
	return out, nil
}

// matchesQuery mirrors the candidate SQL: same tier1+tier2 category, or any
// keyword appearing in the text.
func matchesQuery(q models.CandidateQuery, tier1, tier2, text string) bool {
	if q.CategoryTier1 != "" && tier1 == q.CategoryTier1 && tier2 == q.CategoryTier2 {
		return true
	}
	lowered := strings.ToLower(text)
	for _, kw := range q.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

type memMatchStore struct {
	mu       sync.Mutex
	requests *memRequestStore
	byPair   map[string]*models.Match
	nextID   int
}

func (s *memMatchStore) CreateBatch(_ context.Context, matches []*models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range matches {
		key := m.RequestID + "/" + m.ItemID
		if _, dup := s.byPair[key]; dup {
			continue
		}
		s.nextID++
		m.ID = fmt.Sprintf("match-%d", s.nextID)
		m.CreatedAt = time.Now().UTC()
		clone := *m
		s.byPair[key] = &clone
	}
	return nil
}

func (s *memMatchStore) ListByRequest(_ context.Context, requestID string) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Match
	for _, m := range s.byPair {
		if m.RequestID == requestID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out, nil
}

func (s *memMatchStore) ListByItem(_ context.Context, itemID string) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Match
	for _, m := range s.byPair {
		if m.ItemID == itemID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memMatchStore) ListLiveByBorrower(_ context.Context, borrowerID string) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Match
	for _, m := range s.byPair {
		if m.BorrowerID != borrowerID || m.LenderResponse == models.LenderResponseDeclined {
			continue
		}
		s.requests.mu.Lock()
		req, ok := s.requests.byID[m.RequestID]
		active := ok && (req.Status == models.RequestStatusOpen ||
			req.Status == models.RequestStatusMatched ||
			req.Status == models.RequestStatusAccepted)
		s.requests.mu.Unlock()
		if active {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memMatchStore) decline(requestID, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.byPair[requestID+"/"+itemID]; ok {
		m.LenderResponse = models.LenderResponseDeclined
	}
}

type memGroupStore struct {
	mu     sync.Mutex
	byPair map[string]*models.MatchGroup
	nextID int
}

func (s *memGroupStore) ListByBorrower(_ context.Context, borrowerID string) ([]models.MatchGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MatchGroup
	for _, g := range s.byPair {
		if g.BorrowerID == borrowerID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (s *memGroupStore) Upsert(_ context.Context, group *models.MatchGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := group.BorrowerID + "/" + group.LenderID
	if prev, ok := s.byPair[key]; ok {
		group.ID = prev.ID
		group.CreatedAt = prev.CreatedAt
	} else if group.ID == "" {
		s.nextID++
		group.ID = fmt.Sprintf("group-%d", s.nextID)
		group.CreatedAt = time.Now().UTC()
	}
	group.UpdatedAt = time.Now().UTC()
	clone := *group
	s.byPair[key] = &clone
	return nil
}

func (s *memGroupStore) UpdateStatus(_ context.Context, ids []string, status models.MatchGroupStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.byPair {
		for _, id := range ids {
			if g.ID == id {
				g.Status = status
			}
		}
	}
	return nil
}

type memRatings struct{}

func (memRatings) AggregateByOwners(_ context.Context, ownerIDs []string) (map[string]models.RatingAggregate, error) {
	out := map[string]models.RatingAggregate{}
	for _, id := range ownerIDs {
		out[id] = models.RatingAggregate{OwnerID: id, AvgRating: 4.0, RatingCount: 5}
	}
	return out, nil
}

type memChecker struct{}

func (memChecker) ConflictingItems(_ context.Context, _ []string, _, _ time.Time) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (memChecker) ItemBlockingBookings(_ context.Context, _ string) ([]models.Booking, error) {
	return nil, nil
}

type memSchema struct{}

func (memSchema) GetSpecsForItem(_ context.Context, _, _, _, _ string) ([]models.SpecFieldDef, error) {
	return nil, nil
}

type countingNotifier struct {
	mu      sync.Mutex
	created int
	found   int
}

func (n *countingNotifier) MatchCreated(_ context.Context, _ *models.Match, _ *models.Request, _ *models.Item) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created++
	return nil
}

func (n *countingNotifier) MatchesFound(_ context.Context, _, _ string, _ int, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.found++
	return nil
}

type pipeline struct {
	engine   *matching.Engine
	manager  *matchgroup.Manager
	requests *memRequestStore
	items    *memItemStore
	matches  *memMatchStore
	groups   *memGroupStore
	notifier *countingNotifier
}

func newPipeline() *pipeline {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	requests := &memRequestStore{byID: map[string]*models.Request{}}
	items := &memItemStore{byID: map[string]*models.Item{}}
	matches := &memMatchStore{requests: requests, byPair: map[string]*models.Match{}}
	groups := &memGroupStore{byPair: map[string]*models.MatchGroup{}}
	notifier := &countingNotifier{}

	manager := matchgroup.NewManager(matches, groups, nil, logger)
	engine := matching.NewEngine(requests, items, matches, memRatings{}, memSchema{}, memChecker{}, notifier, manager, logger)

	return &pipeline{
		engine:   engine,
		manager:  manager,
		requests: requests,
		items:    items,
		matches:  matches,
		groups:   groups,
		notifier: notifier,
	}
}

func seedRequest(p *pipeline, id, title, desc, tier1, tier2 string) {
	budget := 100.0
	p.requests.byID[id] = &models.Request{
		ID:            id,
		RequesterID:   "borrower-1",
		Title:         title,
		Description:   desc,
		CategoryTier1: tier1,
		CategoryTier2: tier2,
		Latitude:      40.7128,
		Longitude:     -74.0060,
		MaxBudget:     &budget,
		MaxDistance:   25,
		Status:        models.RequestStatusOpen,
	}
}

func seedItem(p *pipeline, id, ownerID, title, desc, tier1, tier2 string) {
	p.items.byID[id] = &models.Item{
		ID:            id,
		OwnerID:       ownerID,
		Title:         title,
		Description:   desc,
		CategoryTier1: tier1,
		CategoryTier2: tier2,
		Condition:     models.ConditionGood,
		PricingType:   models.PricingDaily,
		PriceAmount:   20,
		IsAvailable:   true,
		Latitude:      40.7328,
		Longitude:     -74.0060,
	}
}

func TestMatchingPipeline(t *testing.T) {
	ctx := context.Background()
	p := newPipeline()

	seedItem(p, "item-washer", "lender-1", "Pressure Washer", "Gas powered pressure washer, 3000 PSI", "tools", "outdoor")
	seedItem(p, "item-ladder", "lender-1", "Extension Ladder", "24 foot aluminum extension ladder", "tools", "ladders")

	seedRequest(p, "req-washer", "Need a pressure washer", "Cleaning my driveway and deck", "tools", "outdoor")
	seedRequest(p, "req-ladder", "Need an extension ladder", "Cleaning gutters on a two story house", "tools", "ladders")

	// First request: one match, not enough for a group yet.
	matches, err := p.engine.FindMatchesForRequest(ctx, "req-washer")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "item-washer", matches[0].ItemID)

	groups, err := p.groups.ListByBorrower(ctx, "borrower-1")
	require.NoError(t, err)
	assert.Empty(t, groups)

	// Second request against the same lender forms a group.
	matches, err = p.engine.FindMatchesForRequest(ctx, "req-ladder")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "item-ladder", matches[0].ItemID)

	groups, err = p.groups.ListByBorrower(ctx, "borrower-1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "lender-1", groups[0].LenderID)
	assert.Equal(t, models.MatchGroupStatusSuggested, groups[0].Status)
	assert.Equal(t, 2, groups[0].MatchCount)

	// Requests were promoted to matched.
	req, err := p.requests.Get(ctx, "req-washer")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusMatched, req.Status)

	// One owner notification and one requester notification per pass.
	assert.Equal(t, 2, p.notifier.created)
	assert.Equal(t, 2, p.notifier.found)

	// A declined match drops the pair below the group threshold.
	p.matches.decline("req-ladder", "item-ladder")
	_, err = p.manager.Refresh(ctx, "borrower-1")
	require.NoError(t, err)

	groups, err = p.groups.ListByBorrower(ctx, "borrower-1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, models.MatchGroupStatusExpired, groups[0].Status)
}

func TestMatchingPipelineReverse(t *testing.T) {
	ctx := context.Background()
	p := newPipeline()

	seedRequest(p, "req-washer", "Need a pressure washer", "Cleaning my driveway and deck", "tools", "outdoor")
	seedItem(p, "item-washer", "lender-1", "Pressure Washer", "Gas powered pressure washer, 3000 PSI", "tools", "outdoor")

	// Forward pass creates the initial pair.
	_, err := p.engine.FindMatchesForRequest(ctx, "req-washer")
	require.NoError(t, err)

	// A second lender lists a washer; the reverse pass picks up the request.
	seedItem(p, "item-washer-2", "lender-2", "Electric Pressure Washer", "2000 PSI electric pressure washer", "tools", "outdoor")

	created, err := p.engine.FindRequestsForItem(ctx, "item-washer-2")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "req-washer", created[0].RequestID)
	assert.Equal(t, "lender-2", created[0].LenderID)

	// Re-running the reverse pass must not duplicate the pair.
	created, err = p.engine.FindRequestsForItem(ctx, "item-washer-2")
	require.NoError(t, err)
	assert.Empty(t, created)

	all, err := p.matches.ListByRequest(ctx, "req-washer")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
