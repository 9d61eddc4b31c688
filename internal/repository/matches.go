package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/pokefree/ptcg-sim-go/internal/game"
	"github.com/pokefree/ptcg-sim-go/internal/match"
)

// MatchStore archives finished matches and their event logs.
type MatchStore struct {
	db     *DB
	logger *zap.Logger
}

// NewMatchStore creates a match store.
func NewMatchStore(db *DB, logger *zap.Logger) *MatchStore {
	return &MatchStore{db: db, logger: logger}
}

// MatchRow is one archived match summary.
type MatchRow struct {
	ID         string    `json:"id"`
	Seed       int64     `json:"seed"`
	PlayerOne  string    `json:"player_one"`
	PlayerTwo  string    `json:"player_two"`
	Winner     string    `json:"winner,omitempty"`
	IsDraw     bool      `json:"is_draw"`
	Turns      int       `json:"turns"`
	Actions    int       `json:"actions"`
	Reason     string    `json:"reason"`
	FinishedAt time.Time `json:"finished_at"`
}

// SaveResult archives a finished match: one summary row plus the full
// event log, in a single transaction. Events go in as a batch.
func (ms *MatchStore) SaveResult(ctx context.Context, s *game.State, res *match.Result) error {
	if !s.Over {
		return fmt.Errorf("match %s is not finished", s.MatchID)
	}

	tx, err := ms.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var winner any
	if res.Winner != nil {
		winner = s.Player(*res.Winner).Name
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO matches (id, seed, player_one, player_two, winner, is_draw, turns, actions, reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.MatchID, s.Seed, s.Players[0].Name, s.Players[1].Name,
		winner, res.IsDraw, res.Turns, res.Actions, res.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	batch := &pgx.Batch{}
	for _, ev := range s.Events {
		var data []byte
		if len(ev.Data) > 0 {
			if data, err = json.Marshal(ev.Data); err != nil {
				return fmt.Errorf("event %d: failed to marshal data: %w", ev.Seq, err)
			}
		}
		batch.Queue(
			`INSERT INTO match_events (match_id, seq, turn, type, player, message, data)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.MatchID, ev.Seq, ev.Turn, string(ev.Type), int(ev.Player), ev.Message, data,
		)
	}
	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert event %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close event batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	ms.logger.Info("archived match",
		zap.String("match_id", s.MatchID),
		zap.Int("events", len(s.Events)),
	)
	return nil
}

// RecentMatches lists the most recently archived matches, newest first.
func (ms *MatchStore) RecentMatches(ctx context.Context, limit int) ([]MatchRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := ms.db.Pool.Query(ctx,
		`SELECT id, seed, player_one, player_two, COALESCE(winner, ''), is_draw,
		        turns, actions, reason, finished_at
		 FROM matches ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var out []MatchRow
	for rows.Next() {
		var m MatchRow
		if err := rows.Scan(&m.ID, &m.Seed, &m.PlayerOne, &m.PlayerTwo, &m.Winner,
			&m.IsDraw, &m.Turns, &m.Actions, &m.Reason, &m.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
