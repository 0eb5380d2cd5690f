package dto

// SensorRequest is the JSON body for POST /sensor (request/response
// ingestion). Pointer fields so that a missing component is rejected by
// binding while a legitimate 0.0 reading passes.
type SensorRequest struct {
	AccelX *float64 `json:"accel_x" binding:"required"`
	AccelY *float64 `json:"accel_y" binding:"required"`
	AccelZ *float64 `json:"accel_z" binding:"required"`
}

// ScoreResponse carries the running (or final) session score.
type ScoreResponse struct {
	Score int64 `json:"score"`
}

// SensorResponse acknowledges an ingested sample with the updated score.
type SensorResponse struct {
	Message string `json:"message"`
	Score   int64  `json:"score"`
}
