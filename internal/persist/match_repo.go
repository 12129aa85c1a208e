package persist

import (
	"context"
	"fmt"
	"time"
)

// EventRow is one domain event flattened for storage.
type EventRow struct {
	Tick    uint64
	Kind    string
	Payload []byte // JSON
}

type MatchRepo struct {
	db *DB
}

func NewMatchRepo(db *DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// CreateMatch opens a match row and returns its id.
func (r *MatchRepo) CreateMatch(ctx context.Context, serverID int, startedAt time.Time) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO matches (server_id, started_at) VALUES ($1, $2) RETURNING id`,
		serverID, startedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create match: %w", err)
	}
	return id, nil
}

// FinishMatch records the winner and end time.
func (r *MatchRepo) FinishMatch(ctx context.Context, matchID int64, winner int, finishedAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE matches SET winner = $2, finished_at = $3 WHERE id = $1`,
		matchID, winner, finishedAt,
	)
	if err != nil {
		return fmt.Errorf("finish match: %w", err)
	}
	return nil
}

// WriteEvents inserts a batch of event rows in one transaction.
func (r *MatchRepo) WriteEvents(ctx context.Context, matchID int64, rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("events begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO match_events (match_id, tick, kind, payload) VALUES ($1, $2, $3, $4)`,
			matchID, row.Tick, row.Kind, row.Payload,
		); err != nil {
			return fmt.Errorf("events insert: %w", err)
		}
	}
	return tx.Commit(ctx)
}
