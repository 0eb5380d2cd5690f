package repo

import (
	"context"

	dom "github.com/tmdahr/impulse-ultra/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BestAggregates are the raw aggregates over users with best_score > 0;
// the service derives the reported average from them.
type BestAggregates struct {
	Max   int64
	Sum   int64
	Count int64
}

// ScoreRepo persists finalized scores and the per-user best-score
// projection derived from them.
type ScoreRepo interface {
	Save(ctx context.Context, userID, score int64) error
	Best(ctx context.Context, userID int64) (int64, error)
	History(ctx context.Context, userID int64) ([]dom.ScoreRecord, error)
	Top(ctx context.Context, n int) ([]dom.RankingEntry, error)
	Stats(ctx context.Context) (BestAggregates, error)
	RecomputeBest(ctx context.Context, userID int64) (int64, error)
}

// PGScoreRepo implements ScoreRepo with Postgres.
type PGScoreRepo struct {
	db *pgxpool.Pool
}

// NewPGScoreRepo returns a new PGScoreRepo.
func NewPGScoreRepo(db *pgxpool.Pool) *PGScoreRepo {
	return &PGScoreRepo{db: db}
}

// Save appends a score record and bumps the user's best score in one
// transaction. GREATEST makes the best-score update a read-modify-write
// inside the row lock, so concurrent saves for the same user can never
// regress best_score, and a failed insert leaves nothing behind.
func (r *PGScoreRepo) Save(ctx context.Context, userID, score int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO scores (user_id, score) VALUES ($1, $2)`,
		userID, score,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE users SET best_score = GREATEST(best_score, $2) WHERE id = $1`,
		userID, score,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Best returns the user's best score. pgx.ErrNoRows when the user does
// not exist; the service maps that to 0.
func (r *PGScoreRepo) Best(ctx context.Context, userID int64) (int64, error) {
	var best int64
	err := r.db.QueryRow(ctx,
		`SELECT best_score FROM users WHERE id = $1`, userID,
	).Scan(&best)
	return best, err
}

// History returns all of the user's scores, oldest first.
func (r *PGScoreRepo) History(ctx context.Context, userID int64) ([]dom.ScoreRecord, error) {
	query := `
		SELECT id, user_id, score, recorded_at
		FROM scores WHERE user_id = $1 ORDER BY recorded_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.ScoreRecord
	for rows.Next() {
		var rec dom.ScoreRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Score, &rec.RecordedAt); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// Top returns up to n leaderboard rows: users with best_score > 0,
// highest first, ties broken by ascending user id.
func (r *PGScoreRepo) Top(ctx context.Context, n int) ([]dom.RankingEntry, error) {
	query := `
		SELECT username, best_score FROM users
		WHERE best_score > 0 ORDER BY best_score DESC, id ASC LIMIT $1`
	rows, err := r.db.Query(ctx, query, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.RankingEntry
	for rows.Next() {
		var e dom.RankingEntry
		if err := rows.Scan(&e.Username, &e.BestScore); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Stats returns the raw best-score aggregates over users with
// best_score > 0. All zero when no user qualifies.
func (r *PGScoreRepo) Stats(ctx context.Context) (BestAggregates, error) {
	var agg BestAggregates
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(best_score), 0),
		       COALESCE(SUM(best_score), 0),
		       COUNT(*)
		FROM users WHERE best_score > 0`,
	).Scan(&agg.Max, &agg.Sum, &agg.Count)
	return agg, err
}

// RecomputeBest rebuilds best_score from the score history (repair
// path; Save keeps the projection current under normal operation).
func (r *PGScoreRepo) RecomputeBest(ctx context.Context, userID int64) (int64, error) {
	var best int64
	err := r.db.QueryRow(ctx, `
		UPDATE users SET best_score = COALESCE(
			(SELECT MAX(score) FROM scores WHERE user_id = users.id), 0)
		WHERE id = $1
		RETURNING best_score`, userID,
	).Scan(&best)
	return best, err
}
