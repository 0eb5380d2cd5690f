package handlers

import (
	"net/http"
	"strconv"

	dom "github.com/tmdahr/impulse-ultra/internal/domain"
	"github.com/tmdahr/impulse-ultra/internal/dto"
	"github.com/tmdahr/impulse-ultra/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultRankingsLimit = 10
	maxRankingsLimit     = 100
)

// LeaderboardHandler serves the rankings and global statistics.
type LeaderboardHandler struct {
	svc *service.ScoreService
}

// NewLeaderboardHandler returns a new LeaderboardHandler.
func NewLeaderboardHandler(svc *service.ScoreService) *LeaderboardHandler {
	return &LeaderboardHandler{svc: svc}
}

// Rankings godoc
// @Summary      Top players by best score
// @Tags         leaderboard
// @Produce      json
// @Param        limit  query     int  false  "Max entries (default 10, cap 100)"
// @Success      200    {object}  dto.RankingsResponse
// @Failure      500    {object}  map[string]string
// @Router       /rankings [get]
func (h *LeaderboardHandler) Rankings(c *gin.Context) {
	n := defaultRankingsLimit
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		n = v
	}
	if n > maxRankingsLimit {
		n = maxRankingsLimit
	}
	list, err := h.svc.Top(c.Request.Context(), n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.RankingsResponse{Rankings: rankingsToResponses(list)})
}

// Stats godoc
// @Summary      Global best and average over all players with a score
// @Tags         leaderboard
// @Produce      json
// @Success      200  {object}  dto.StatsResponse
// @Failure      500  {object}  map[string]string
// @Router       /stats [get]
func (h *LeaderboardHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.StatsResponse{BestScore: stats.BestScore, Average: stats.Average})
}

func rankingsToResponses(list []dom.RankingEntry) []dto.RankingEntry {
	out := make([]dto.RankingEntry, len(list))
	for i := range list {
		out[i] = dto.RankingEntry{Username: list[i].Username, BestScore: list[i].BestScore}
	}
	return out
}
