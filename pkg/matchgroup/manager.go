// Package matchgroup recomputes borrower/lender opportunity groups from the
// borrower's live matches.
package matchgroup

import (
	"context"
	"math"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/lendfield/clover/pkg/metrics"
	"github.com/lendfield/clover/pkg/models"
	"github.com/lendfield/clover/pkg/tracing"
)

// minGroupSize is the live-match count at which a borrower/lender pair
// becomes (or stays) a group.
const minGroupSize = 2

// MatchSource lists a borrower's live matches.
type MatchSource interface {
	ListLiveByBorrower(ctx context.Context, borrowerID string) ([]models.Match, error)
}

// GroupStore is the group persistence surface the manager needs.
type GroupStore interface {
	ListByBorrower(ctx context.Context, borrowerID string) ([]models.MatchGroup, error)
	Upsert(ctx context.Context, group *models.MatchGroup) error
	UpdateStatus(ctx context.Context, ids []string, status models.MatchGroupStatus) error
}

// Projector mirrors refreshed groups into the graph. Projection is
// best-effort; failures are logged and never fail a refresh.
type Projector interface {
	SyncBorrower(ctx context.Context, borrowerID string, groups []models.MatchGroup) error
}

type inflight struct {
	done   chan struct{}
	groups []models.MatchGroup
	err    error
}

// Manager recomputes a borrower's groups. Concurrent refreshes for the same
// borrower coalesce into one recomputation whose result every caller shares.
type Manager struct {
	matches   MatchSource
	store     GroupStore
	projector Projector
	logger    ectologger.Logger

	mu       sync.Mutex
	inflight map[string]*inflight
}

// NewManager creates a new match group manager. projector may be nil when
// graph projection is disabled.
func NewManager(matches MatchSource, store GroupStore, projector Projector, logger ectologger.Logger) *Manager {
	return &Manager{
		matches:   matches,
		store:     store,
		projector: projector,
		logger:    logger,
		inflight:  map[string]*inflight{},
	}
}

// Refresh recomputes the borrower's groups and returns the borrower's full
// group list afterwards. Callers arriving while a refresh for the same
// borrower is running wait for and share that refresh's result.
func (m *Manager) Refresh(ctx context.Context, borrowerID string) ([]models.MatchGroup, error) {
	m.mu.Lock()
	if fl, ok := m.inflight[borrowerID]; ok {
		m.mu.Unlock()
		metrics.GroupRefreshesCoalesced.Inc()
		select {
		case <-fl.done:
			return fl.groups, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	fl := &inflight{done: make(chan struct{})}
	m.inflight[borrowerID] = fl
	m.mu.Unlock()

	groups, err := m.refresh(ctx, borrowerID)

	m.mu.Lock()
	delete(m.inflight, borrowerID)
	m.mu.Unlock()

	fl.groups, fl.err = groups, err
	close(fl.done)

	return groups, err
}

func (m *Manager) refresh(ctx context.Context, borrowerID string) ([]models.MatchGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "matchgroup.Manager.Refresh")
	defer span.End()

	log := m.logger.WithContext(ctx).WithField("borrower_id", borrowerID)

	live, err := m.matches.ListLiveByBorrower(ctx, borrowerID)
	if err != nil {
		metrics.GroupRefreshesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	byLender := map[string][]models.Match{}
	for _, match := range live {
		byLender[match.LenderID] = append(byLender[match.LenderID], match)
	}

	existing, err := m.store.ListByBorrower(ctx, borrowerID)
	if err != nil {
		metrics.GroupRefreshesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	existingByLender := map[string]models.MatchGroup{}
	for _, g := range existing {
		existingByLender[g.LenderID] = g
	}

	for lenderID, matches := range byLender {
		if len(matches) < minGroupSize {
			continue
		}

		group := models.MatchGroup{
			BorrowerID: borrowerID,
			LenderID:   lenderID,
			Score:      meanScore(matches),
			MatchCount: len(matches),
			Status:     models.MatchGroupStatusSuggested,
		}

		if prev, ok := existingByLender[lenderID]; ok {
			group.ID = prev.ID
			group.CreatedAt = prev.CreatedAt
			// Accepted and transacted groups keep their status; an expired
			// group regaining enough matches becomes suggested again.
			if prev.Status != models.MatchGroupStatusExpired {
				group.Status = prev.Status
			}
		}

		if err := m.store.Upsert(ctx, &group); err != nil {
			metrics.GroupRefreshesTotal.WithLabelValues("error").Inc()
			return nil, err
		}
	}

	var expireIDs []string
	for lenderID, prev := range existingByLender {
		if len(byLender[lenderID]) >= minGroupSize {
			continue
		}
		if prev.Status.Terminal() || prev.Status == models.MatchGroupStatusExpired {
			continue
		}
		expireIDs = append(expireIDs, prev.ID)
	}
	if err := m.store.UpdateStatus(ctx, expireIDs, models.MatchGroupStatusExpired); err != nil {
		metrics.GroupRefreshesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	groups, err := m.store.ListByBorrower(ctx, borrowerID)
	if err != nil {
		metrics.GroupRefreshesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if m.projector != nil {
		if err := m.projector.SyncBorrower(ctx, borrowerID, groups); err != nil {
			log.WithError(err).Warn("Failed to project match groups to graph")
		}
	}

	log.WithFields(map[string]any{
		"live_matches": len(live),
		"groups":       len(groups),
		"expired":      len(expireIDs),
	}).Debug("Match groups refreshed")
	metrics.GroupRefreshesTotal.WithLabelValues("success").Inc()

	return groups, nil
}

// meanScore is the average match score rounded to one decimal.
func meanScore(matches []models.Match) float64 {
	var sum float64
	for _, m := range matches {
		sum += m.MatchScore
	}
	return math.Round(sum/float64(len(matches))*10) / 10
}
