package domain

import "time"

// ScoreRecord is one finalized measurement result. Append-only:
// records are never updated or deleted once written.
type ScoreRecord struct {
	ID         int64
	UserID     int64
	Score      int64
	RecordedAt time.Time
}

// RankingEntry is one leaderboard row.
type RankingEntry struct {
	Username  string `json:"username"`
	BestScore int64  `json:"best_score"`
}

// GlobalStats aggregates best scores across all users with at least
// one saved score.
type GlobalStats struct {
	BestScore int64 `json:"best_score"`
	Average   int64 `json:"average"`
}
