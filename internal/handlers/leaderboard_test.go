package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dom "github.com/tmdahr/impulse-ultra/internal/domain"
	"github.com/tmdahr/impulse-ultra/internal/handlers"
	"github.com/tmdahr/impulse-ultra/internal/repo"
	"github.com/tmdahr/impulse-ultra/internal/service"
)

// stubScoreRepo returns canned leaderboard data and records the limit
// it was asked for.
type stubScoreRepo struct {
	top     []dom.RankingEntry
	agg     repo.BestAggregates
	gotTopN int
}

func (s *stubScoreRepo) Save(ctx context.Context, userID, score int64) error { return nil }
func (s *stubScoreRepo) Best(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}
func (s *stubScoreRepo) History(ctx context.Context, userID int64) ([]dom.ScoreRecord, error) {
	return nil, nil
}
func (s *stubScoreRepo) Top(ctx context.Context, n int) ([]dom.RankingEntry, error) {
	s.gotTopN = n
	if len(s.top) > n {
		return s.top[:n], nil
	}
	return s.top, nil
}
func (s *stubScoreRepo) Stats(ctx context.Context) (repo.BestAggregates, error) {
	return s.agg, nil
}
func (s *stubScoreRepo) RecomputeBest(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

func newLeaderboardRouter(t *testing.T, stub *stubScoreRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := handlers.NewLeaderboardHandler(service.NewScoreService(stub, nil))
	r := gin.New()
	r.GET("/rankings", h.Rankings)
	r.GET("/stats", h.Stats)
	return r
}

func getJSON(t *testing.T, r *gin.Engine, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func TestRankingsDefaultLimit(t *testing.T) {
	stub := &stubScoreRepo{top: []dom.RankingEntry{
		{Username: "playerA", BestScore: 198},
		{Username: "playerB", BestScore: 195},
	}}
	r := newLeaderboardRouter(t, stub)

	var out struct {
		Rankings []dom.RankingEntry `json:"rankings"`
	}
	w := getJSON(t, r, "/rankings", &out)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, stub.gotTopN)
	require.Len(t, out.Rankings, 2)
	assert.Equal(t, "playerA", out.Rankings[0].Username)
	assert.EqualValues(t, 198, out.Rankings[0].BestScore)
}

func TestRankingsLimitParam(t *testing.T) {
	stub := &stubScoreRepo{top: []dom.RankingEntry{
		{Username: "playerA", BestScore: 198},
		{Username: "playerB", BestScore: 195},
	}}
	r := newLeaderboardRouter(t, stub)

	var out struct {
		Rankings []dom.RankingEntry `json:"rankings"`
	}
	w := getJSON(t, r, "/rankings?limit=1", &out)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.gotTopN)
	assert.Len(t, out.Rankings, 1)

	w = getJSON(t, r, "/rankings?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = getJSON(t, r, "/rankings?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Oversized limits are capped, not rejected.
	w = getJSON(t, r, "/rankings?limit=5000", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, stub.gotTopN)
}

func TestStatsEndpoint(t *testing.T) {
	stub := &stubScoreRepo{agg: repo.BestAggregates{Max: 198, Sum: 393, Count: 2}}
	r := newLeaderboardRouter(t, stub)

	var out struct {
		BestScore int64 `json:"best_score"`
		Average   int64 `json:"average"`
	}
	w := getJSON(t, r, "/stats", &out)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 198, out.BestScore)
	assert.EqualValues(t, 196, out.Average)
}

func TestStatsEmpty(t *testing.T) {
	r := newLeaderboardRouter(t, &stubScoreRepo{})

	var out struct {
		BestScore int64 `json:"best_score"`
		Average   int64 `json:"average"`
	}
	w := getJSON(t, r, "/stats", &out)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, out.BestScore)
	assert.EqualValues(t, 0, out.Average)
}
