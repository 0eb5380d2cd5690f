package handlers

import (
	"errors"
	"net/http"

	"github.com/tmdahr/impulse-ultra/internal/auth"
	"github.com/tmdahr/impulse-ultra/internal/dto"
	"github.com/tmdahr/impulse-ultra/internal/service"

	"github.com/gin-gonic/gin"
)

// ScoreHandler persists finalized session scores and serves per-user reads.
type ScoreHandler struct {
	svc *service.ScoreService
}

// NewScoreHandler returns a new ScoreHandler.
func NewScoreHandler(svc *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{svc: svc}
}

// Save godoc
// @Summary      Save a finalized score for the current user
// @Tags         scores
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      dto.SaveScoreRequest  true  "Final score"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /scores [post]
func (h *ScoreHandler) Save(c *gin.Context) {
	var req dto.SaveScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := auth.UserIDFromContext(c)
	if err := h.svc.Save(c.Request.Context(), userID, *req.Score); err != nil {
		if errors.Is(err, service.ErrInvalidScore) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "score saved"})
}

// Best godoc
// @Summary      Best score of the current user
// @Tags         scores
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.ScoreResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /scores/best [get]
func (h *ScoreHandler) Best(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	best, err := h.svc.Best(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ScoreResponse{Score: best})
}

// History godoc
// @Summary      All scores of the current user, oldest first
// @Tags         scores
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.HistoryResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /scores/history [get]
func (h *ScoreHandler) History(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	scores, err := h.svc.History(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if scores == nil {
		scores = []int64{}
	}
	c.JSON(http.StatusOK, dto.HistoryResponse{Scores: scores})
}
