package dto

// SaveScoreRequest is the JSON body for POST /scores. Pointer so that a
// legitimate score of 0 still binds.
type SaveScoreRequest struct {
	Score *int64 `json:"score" binding:"required,gte=0"`
}

// HistoryResponse lists a user's saved scores, oldest first.
type HistoryResponse struct {
	Scores []int64 `json:"scores"`
}

// RankingsResponse is the leaderboard payload.
type RankingsResponse struct {
	Rankings []RankingEntry `json:"rankings"`
}

// RankingEntry is one leaderboard row as exposed over the API.
type RankingEntry struct {
	Username  string `json:"username"`
	BestScore int64  `json:"best_score"`
}

// StatsResponse carries global best and average over users with a
// best score above zero.
type StatsResponse struct {
	BestScore int64 `json:"best_score"`
	Average   int64 `json:"average"`
}
