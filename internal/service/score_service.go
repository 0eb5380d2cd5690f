package service

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/tmdahr/impulse-ultra/internal/cache"
	dom "github.com/tmdahr/impulse-ultra/internal/domain"
	"github.com/tmdahr/impulse-ultra/internal/repo"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidScore = errors.New("score must be non-negative")

// ScoreService owns finalized-score persistence and the leaderboard
// reads derived from it.
type ScoreService struct {
	repo  repo.ScoreRepo
	cache *cache.LeaderboardCache
	sf    singleflight.Group
}

// NewScoreService creates a ScoreService. If c is nil, caching is disabled.
func NewScoreService(r repo.ScoreRepo, c *cache.LeaderboardCache) *ScoreService {
	return &ScoreService{repo: r, cache: c}
}

// Save appends a finalized score and bumps the user's best. The repo
// write is transactional; only a fully applied save invalidates the
// leaderboard cache.
func (s *ScoreService) Save(ctx context.Context, userID, score int64) error {
	if score < 0 {
		return ErrInvalidScore
	}
	if err := s.repo.Save(ctx, userID, score); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// Best returns the user's best score, 0 when the user has none.
func (s *ScoreService) Best(ctx context.Context, userID int64) (int64, error) {
	best, err := s.repo.Best(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return best, nil
}

// History returns the user's scores, oldest first.
func (s *ScoreService) History(ctx context.Context, userID int64) ([]int64, error) {
	records, err := s.repo.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	scores := make([]int64, len(records))
	for i, rec := range records {
		scores[i] = rec.Score
	}
	return scores, nil
}

// Top returns up to n leaderboard entries: users with a positive best
// score, descending, ties broken by ascending user id.
func (s *ScoreService) Top(ctx context.Context, n int) ([]dom.RankingEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	if s.cache != nil {
		key := "top:" + strconv.Itoa(n)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if list, err := s.cache.GetRankings(ctx, n); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.Top(ctx, n)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetRankings(ctx, n, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.RankingEntry), nil
	}
	return s.repo.Top(ctx, n)
}

// Stats returns the global best and rounded average over users with a
// positive best score; both zero when nobody qualifies.
func (s *ScoreService) Stats(ctx context.Context) (dom.GlobalStats, error) {
	if s.cache != nil {
		v, err, _ := s.sf.Do("stats", func() (interface{}, error) {
			if cached, err := s.cache.GetStats(ctx); err == nil && cached != nil {
				return *cached, nil
			}
			stats, err := s.computeStats(ctx)
			if err != nil {
				return dom.GlobalStats{}, err
			}
			_ = s.cache.SetStats(ctx, stats)
			return stats, nil
		})
		if err != nil {
			return dom.GlobalStats{}, err
		}
		return v.(dom.GlobalStats), nil
	}
	return s.computeStats(ctx)
}

func (s *ScoreService) computeStats(ctx context.Context) (dom.GlobalStats, error) {
	agg, err := s.repo.Stats(ctx)
	if err != nil {
		return dom.GlobalStats{}, err
	}
	if agg.Count == 0 {
		return dom.GlobalStats{}, nil
	}
	// Exact halves round to the even neighbor, so two users at 198 and
	// 195 report an average of 196.
	avg := int64(math.RoundToEven(float64(agg.Sum) / float64(agg.Count)))
	return dom.GlobalStats{BestScore: agg.Max, Average: avg}, nil
}

// RecomputeBest rebuilds a user's best score from history (repair path).
func (s *ScoreService) RecomputeBest(ctx context.Context, userID int64) (int64, error) {
	best, err := s.repo.RecomputeBest(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.invalidateCache(ctx)
	return best, nil
}

func (s *ScoreService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	// Serving a slightly stale leaderboard is acceptable; failing the
	// save because Redis hiccuped is not.
	_ = s.cache.Invalidate(ctx)
}
