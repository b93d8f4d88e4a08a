package matchgroup

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendfield/clover/pkg/models"
)

type fakeMatchSource struct {
	mu      sync.Mutex
	live    []models.Match
	calls   int32
	release chan struct{}
}

func (f *fakeMatchSource) ListLiveByBorrower(_ context.Context, _ string) ([]models.Match, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Match, len(f.live))
	copy(out, f.live)
	return out, nil
}

type fakeGroupStore struct {
	mu      sync.Mutex
	byPair  map[string]*models.MatchGroup
	nextID  int
	expired [][]string
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{byPair: map[string]*models.MatchGroup{}}
}

func (f *fakeGroupStore) ListByBorrower(_ context.Context, borrowerID string) ([]models.MatchGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MatchGroup
	for _, g := range f.byPair {
		if g.BorrowerID == borrowerID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGroupStore) Upsert(_ context.Context, group *models.MatchGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := group.BorrowerID + "/" + group.LenderID
	if prev, ok := f.byPair[key]; ok {
		group.ID = prev.ID
		group.CreatedAt = prev.CreatedAt
	} else if group.ID == "" {
		f.nextID++
		group.ID = fmt.Sprintf("group-%d", f.nextID)
		group.CreatedAt = time.Now().UTC()
	}
	group.UpdatedAt = time.Now().UTC()
	clone := *group
	f.byPair[key] = &clone
	return nil
}

func (f *fakeGroupStore) UpdateStatus(_ context.Context, ids []string, status models.MatchGroupStatus) error {
	if len(ids) == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, ids)
	for _, g := range f.byPair {
		for _, id := range ids {
			if g.ID == id {
				g.Status = status
			}
		}
	}
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func liveMatch(lenderID string, score float64) models.Match {
	return models.Match{
		BorrowerID:     "borrower-1",
		LenderID:       lenderID,
		MatchScore:     score,
		LenderResponse: models.LenderResponsePending,
	}
}

func TestManagerRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("two live matches form a suggested group with the mean score", func(t *testing.T) {
		matches := &fakeMatchSource{live: []models.Match{
			liveMatch("lender-1", 72),
			liveMatch("lender-1", 65),
			liveMatch("lender-2", 90),
		}}
		store := newFakeGroupStore()
		mgr := NewManager(matches, store, nil, testLogger())

		groups, err := mgr.Refresh(ctx, "borrower-1")
		require.NoError(t, err)
		require.Len(t, groups, 1)

		g := groups[0]
		assert.Equal(t, "lender-1", g.LenderID)
		assert.Equal(t, models.MatchGroupStatusSuggested, g.Status)
		assert.Equal(t, 2, g.MatchCount)
		assert.InDelta(t, 68.5, g.Score, 0.001)
	})

	t.Run("dropping below two live matches expires the group", func(t *testing.T) {
		matches := &fakeMatchSource{live: []models.Match{
			liveMatch("lender-1", 72),
			liveMatch("lender-1", 65),
		}}
		store := newFakeGroupStore()
		mgr := NewManager(matches, store, nil, testLogger())

		_, err := mgr.Refresh(ctx, "borrower-1")
		require.NoError(t, err)

		matches.mu.Lock()
		matches.live = matches.live[:1]
		matches.mu.Unlock()

		groups, err := mgr.Refresh(ctx, "borrower-1")
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, models.MatchGroupStatusExpired, groups[0].Status)
	})

	t.Run("expired groups regaining matches become suggested again", func(t *testing.T) {
		matches := &fakeMatchSource{live: []models.Match{
			liveMatch("lender-1", 72),
			liveMatch("lender-1", 65),
		}}
		store := newFakeGroupStore()
		mgr := NewManager(matches, store, nil, testLogger())

		_, err := mgr.Refresh(ctx, "borrower-1")
		require.NoError(t, err)

		matches.mu.Lock()
		matches.live = matches.live[:1]
		matches.mu.Unlock()
		_, err = mgr.Refresh(ctx, "borrower-1")
		require.NoError(t, err)

		matches.mu.Lock()
		matches.live = append(matches.live, liveMatch("lender-1", 80))
		matches.mu.Unlock()

		groups, err := mgr.Refresh(ctx, "borrower-1")
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, models.MatchGroupStatusSuggested, groups[0].Status)
	})

	t.Run("accepted groups keep their status but refresh score and count", func(t *testing.T) {
		matches := &fakeMatchSource{live: []models.Match{
			liveMatch("lender-1", 72),
			liveMatch("lender-1", 65),
		}}
		store := newFakeGroupStore()
		mgr := NewManager(matches, store, nil, testLogger())

		_, err := mgr.Refresh(ctx, "borrower-1")
		require.NoError(t, err)

		store.mu.Lock()
		store.byPair["borrower-1/lender-1"].Status = models.MatchGroupStatusAccepted
		store.mu.Unlock()

		matches.mu.Lock()
		matches.live = append(matches.live, liveMatch("lender-1", 90))
		matches.mu.Unlock()

		groups, err := mgr.Refresh(ctx, "borrower-1")
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, models.MatchGroupStatusAccepted, groups[0].Status)
		assert.Equal(t, 3, groups[0].MatchCount)
		assert.InDelta(t, 75.7, groups[0].Score, 0.001)
	})

	t.Run("terminal groups are never expired by losing matches", func(t *testing.T) {
		matches := &fakeMatchSource{live: []models.Match{
			liveMatch("lender-1", 72),
			liveMatch("lender-1", 65),
		}}
		store := newFakeGroupStore()
		mgr := NewManager(matches, store, nil, testLogger())

		_, err := mgr.Refresh(ctx, "borrower-1")
		require.NoError(t, err)

		store.mu.Lock()
		store.byPair["borrower-1/lender-1"].Status = models.MatchGroupStatusTransacted
		store.mu.Unlock()

		matches.mu.Lock()
		matches.live = nil
		matches.mu.Unlock()

		groups, err := mgr.Refresh(ctx, "borrower-1")
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, models.MatchGroupStatusTransacted, groups[0].Status)
		assert.Empty(t, store.expired)
	})

	t.Run("concurrent refreshes for one borrower coalesce", func(t *testing.T) {
		matches := &fakeMatchSource{
			live: []models.Match{
				liveMatch("lender-1", 72),
				liveMatch("lender-1", 65),
			},
			release: make(chan struct{}),
		}
		store := newFakeGroupStore()
		mgr := NewManager(matches, store, nil, testLogger())

		const callers = 5
		var wg sync.WaitGroup
		results := make([][]models.MatchGroup, callers)
		errs := make([]error, callers)

		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = mgr.Refresh(ctx, "borrower-1")
			}(i)
		}

		// Let the stragglers queue up behind the first caller, then release.
		time.Sleep(50 * time.Millisecond)
		close(matches.release)
		wg.Wait()

		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			assert.Len(t, results[i], 1)
		}
		assert.Equal(t, int32(1), atomic.LoadInt32(&matches.calls))
	})
}
