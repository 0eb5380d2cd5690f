package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	dom "github.com/tmdahr/impulse-ultra/internal/domain"
	"github.com/tmdahr/impulse-ultra/internal/repo"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

// fakeScoreRepo mirrors the Postgres semantics in memory: Save is
// atomic per user (append record + GREATEST on best), the reads derive
// from that state.
type fakeScoreRepo struct {
	mu      sync.Mutex
	names   map[int64]string
	best    map[int64]int64
	records []dom.ScoreRecord

	saveErr error
}

func newFakeScoreRepo(names map[int64]string) *fakeScoreRepo {
	return &fakeScoreRepo{names: names, best: make(map[int64]int64)}
}

func (f *fakeScoreRepo) Save(ctx context.Context, userID, score int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records = append(f.records, dom.ScoreRecord{
		ID:         int64(len(f.records) + 1),
		UserID:     userID,
		Score:      score,
		RecordedAt: time.Now(),
	})
	if score > f.best[userID] {
		f.best[userID] = score
	}
	return nil
}

func (f *fakeScoreRepo) Best(ctx context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.names[userID]; !ok {
		return 0, pgx.ErrNoRows
	}
	return f.best[userID], nil
}

func (f *fakeScoreRepo) History(ctx context.Context, userID int64) ([]dom.ScoreRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dom.ScoreRecord
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeScoreRepo) Top(ctx context.Context, n int) ([]dom.RankingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	type row struct {
		id   int64
		best int64
	}
	var rows []row
	for id, best := range f.best {
		if best > 0 {
			rows = append(rows, row{id, best})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].best != rows[j].best {
			return rows[i].best > rows[j].best
		}
		return rows[i].id < rows[j].id
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	out := make([]dom.RankingEntry, len(rows))
	for i, r := range rows {
		out[i] = dom.RankingEntry{Username: f.names[r.id], BestScore: r.best}
	}
	return out, nil
}

func (f *fakeScoreRepo) Stats(ctx context.Context) (repo.BestAggregates, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var agg repo.BestAggregates
	for _, best := range f.best {
		if best <= 0 {
			continue
		}
		agg.Count++
		agg.Sum += best
		if best > agg.Max {
			agg.Max = best
		}
	}
	return agg, nil
}

func (f *fakeScoreRepo) RecomputeBest(ctx context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var max int64
	for _, rec := range f.records {
		if rec.UserID == userID && rec.Score > max {
			max = rec.Score
		}
	}
	f.best[userID] = max
	return max, nil
}

func newScoreService(names map[int64]string) (*ScoreService, *fakeScoreRepo) {
	r := newFakeScoreRepo(names)
	return NewScoreService(r, nil), r
}

// --- tests ---

func TestSaveRejectsNegativeScore(t *testing.T) {
	svc, r := newScoreService(map[int64]string{1: "player1"})

	err := svc.Save(context.Background(), 1, -5)
	assert.ErrorIs(t, err, ErrInvalidScore)
	assert.Empty(t, r.records, "rejected save must not touch the repo")
}

func TestBestIsZeroForUnknownUser(t *testing.T) {
	svc, _ := newScoreService(map[int64]string{1: "player1"})

	best, err := svc.Best(context.Background(), 42)
	require.NoError(t, err)
	assert.EqualValues(t, 0, best)
}

func TestBestTracksMaximum(t *testing.T) {
	svc, _ := newScoreService(map[int64]string{1: "player1"})
	ctx := context.Background()

	for _, s := range []int64{120, 198, 150} {
		require.NoError(t, svc.Save(ctx, 1, s))
	}
	best, err := svc.Best(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 198, best)
}

func TestHistoryPreservesSaveOrder(t *testing.T) {
	svc, _ := newScoreService(map[int64]string{1: "player1", 2: "player2"})
	ctx := context.Background()

	for _, s := range []int64{150, 30, 90} {
		require.NoError(t, svc.Save(ctx, 1, s))
	}
	require.NoError(t, svc.Save(ctx, 2, 500))

	scores, err := svc.History(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{150, 30, 90}, scores)
}

func TestConcurrentSavesKeepMaxBest(t *testing.T) {
	svc, _ := newScoreService(map[int64]string{1: "player1"})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(score int64) {
			defer wg.Done()
			assert.NoError(t, svc.Save(ctx, 1, score))
		}(int64(i * 7 % 101))
	}
	wg.Wait()

	best, err := svc.Best(ctx, 1)
	require.NoError(t, err)
	// i*7 mod 101 over 1..100 hits every residue 1..100 exactly once.
	assert.EqualValues(t, 100, best)

	scores, err := svc.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, scores, 100)
}

func TestTopFiltersZeroSortsDescending(t *testing.T) {
	svc, _ := newScoreService(map[int64]string{1: "playerA", 2: "playerB", 3: "playerC"})
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, 1, 198))
	require.NoError(t, svc.Save(ctx, 2, 195))
	// playerC never saves a score and must not appear.

	top, err := svc.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, dom.RankingEntry{Username: "playerA", BestScore: 198}, top[0])
	assert.Equal(t, dom.RankingEntry{Username: "playerB", BestScore: 195}, top[1])

	top, err = svc.Top(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, top, 2, "zero-score users never rank")

	top, err = svc.Top(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestStatsOverQualifyingUsers(t *testing.T) {
	svc, _ := newScoreService(map[int64]string{1: "playerA", 2: "playerB", 3: "playerC"})
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, 1, 198))
	require.NoError(t, svc.Save(ctx, 2, 195))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 198, stats.BestScore)
	assert.EqualValues(t, 196, stats.Average, "196.5 rounds to even")
}

func TestStatsEmptyLeaderboard(t *testing.T) {
	svc, _ := newScoreService(map[int64]string{1: "playerA"})

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.BestScore)
	assert.EqualValues(t, 0, stats.Average)
}

func TestSaveErrorPropagates(t *testing.T) {
	svc, r := newScoreService(map[int64]string{1: "player1"})
	r.saveErr = assert.AnError

	err := svc.Save(context.Background(), 1, 100)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRecomputeBestRepairsProjection(t *testing.T) {
	svc, r := newScoreService(map[int64]string{1: "player1"})
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, 1, 150))
	require.NoError(t, svc.Save(ctx, 1, 90))

	// Corrupt the projection, then repair it from history.
	r.mu.Lock()
	r.best[1] = 7
	r.mu.Unlock()

	best, err := svc.RecomputeBest(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 150, best)
}
