package handlers

import (
	"net/http"

	"github.com/tmdahr/impulse-ultra/internal/dto"
	"github.com/tmdahr/impulse-ultra/internal/measure"

	"github.com/gin-gonic/gin"
)

// MeasureHandler exposes the measurement session: reset/score control
// plus the request/response ingestion path for sensor samples.
type MeasureHandler struct {
	session *measure.Session
}

// NewMeasureHandler returns a new MeasureHandler.
func NewMeasureHandler(session *measure.Session) *MeasureHandler {
	return &MeasureHandler{session: session}
}

// Reset godoc
// @Summary      Start a new measurement session
// @Tags         measure
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /reset [get]
func (h *MeasureHandler) Reset(c *gin.Context) {
	h.session.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "score reset"})
}

// Score godoc
// @Summary      Current session score
// @Tags         measure
// @Produce      json
// @Success      200  {object}  dto.ScoreResponse
// @Router       /score [get]
func (h *MeasureHandler) Score(c *gin.Context) {
	score, _ := h.session.Current()
	c.JSON(http.StatusOK, dto.ScoreResponse{Score: score})
}

// Sensor godoc
// @Summary      Ingest one accelerometer sample
// @Tags         measure
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SensorRequest  true  "Accelerometer reading (m/s²)"
// @Success      200   {object}  dto.SensorResponse
// @Failure      400   {object}  map[string]string
// @Router       /sensor [post]
func (h *MeasureHandler) Sensor(c *gin.Context) {
	var req dto.SensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	score, measuring := h.session.Process(measure.Sample{
		X: *req.AccelX,
		Y: *req.AccelY,
		Z: *req.AccelZ,
	})
	if !measuring {
		c.JSON(http.StatusOK, gin.H{"message": "not measuring"})
		return
	}
	c.JSON(http.StatusOK, dto.SensorResponse{Message: "data received", Score: score})
}
