package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
)

// CardStore persists card definitions as JSONB rows and rebuilds the
// in-memory catalog from them at startup.
type CardStore struct {
	db     *DB
	logger *zap.Logger
}

// NewCardStore creates a card store.
func NewCardStore(db *DB, logger *zap.Logger) *CardStore {
	return &CardStore{db: db, logger: logger}
}

// UpsertBatch writes a batch of definitions in one transaction. Existing
// rows are replaced; the definition column is authoritative.
func (cs *CardStore) UpsertBatch(ctx context.Context, defs []*catalog.CardDefinition) error {
	tx, err := cs.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, def := range defs {
		raw, err := json.Marshal(def)
		if err != nil {
			return fmt.Errorf("card %s: failed to marshal: %w", def.ID, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO cards (id, name, set_code, number, supertype, definition)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name,
			   set_code = EXCLUDED.set_code,
			   number = EXCLUDED.number,
			   supertype = EXCLUDED.supertype,
			   definition = EXCLUDED.definition,
			   imported_at = now()`,
			string(def.ID), def.Name, def.Set, def.Number, string(def.Supertype), raw,
		)
		if err != nil {
			return fmt.Errorf("card %s: failed to upsert: %w", def.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Count returns the number of stored cards.
func (cs *CardStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := cs.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return n, nil
}

// Truncate removes all stored cards.
func (cs *CardStore) Truncate(ctx context.Context) error {
	if _, err := cs.db.Pool.Exec(ctx, `TRUNCATE TABLE cards`); err != nil {
		return fmt.Errorf("failed to truncate cards: %w", err)
	}
	return nil
}

// LoadCatalog reads every stored definition and builds a catalog.
func (cs *CardStore) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	rows, err := cs.db.Pool.Query(ctx, `SELECT definition FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	c := catalog.New()
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		var def catalog.CardDefinition
		if err := json.Unmarshal(raw, &def); err != nil {
			return nil, fmt.Errorf("failed to unmarshal card definition: %w", err)
		}
		if err := c.Add(&def); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}

	cs.logger.Info("loaded card catalog from database", zap.Int("cards", c.Size()))
	return c, nil
}
