package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the subset of pgxpool.Pool the store needs; pgxmock satisfies it in
// tests.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const createStatsTableSQL = `
CREATE TABLE IF NOT EXISTS conversation_stats (
	conversation_id TEXT PRIMARY KEY,
	total_count     BIGINT NOT NULL,
	per_label       JSONB NOT NULL,
	daily_total     BIGINT NOT NULL,
	daily_per_label JSONB NOT NULL,
	first_seen      TIMESTAMPTZ NOT NULL,
	last_seen       TIMESTAMPTZ NOT NULL
)`

const upsertStatsSQL = `
INSERT INTO conversation_stats
	(conversation_id, total_count, per_label, daily_total, daily_per_label, first_seen, last_seen)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (conversation_id) DO UPDATE SET
	total_count = EXCLUDED.total_count,
	per_label = EXCLUDED.per_label,
	daily_total = EXCLUDED.daily_total,
	daily_per_label = EXCLUDED.daily_per_label,
	last_seen = EXCLUDED.last_seen`

// PostgresStore persists conversation snapshots to PostgreSQL.
type PostgresStore struct {
	db db
}

// NewPostgresStore creates a Postgres-backed stats store.
func NewPostgresStore(conn db) *PostgresStore {
	if conn == nil {
		return nil
	}
	return &PostgresStore{db: conn}
}

// EnsureSchema creates the stats table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	if _, err := s.db.Exec(ctx, createStatsTableSQL); err != nil {
		return fmt.Errorf("stats: ensure schema: %w", err)
	}
	return nil
}

// Save upserts one conversation's snapshot.
func (s *PostgresStore) Save(ctx context.Context, snap ConversationStats) error {
	if s == nil || s.db == nil {
		return nil
	}
	if snap.ConversationID == "" {
		return errors.New("stats: conversation id required")
	}

	perLabel, err := json.Marshal(snap.PerLabelCount)
	if err != nil {
		return fmt.Errorf("stats: marshal per-label counts: %w", err)
	}
	dailyPerLabel, err := json.Marshal(snap.DailyPerLabel)
	if err != nil {
		return fmt.Errorf("stats: marshal daily per-label counts: %w", err)
	}

	_, err = s.db.Exec(ctx, upsertStatsSQL,
		snap.ConversationID, snap.TotalCount, perLabel,
		snap.DailyTotal, dailyPerLabel, snap.FirstSeen, snap.LastSeen)
	if err != nil {
		return fmt.Errorf("stats: save snapshot: %w", err)
	}
	return nil
}

// Delete removes one conversation's snapshot.
func (s *PostgresStore) Delete(ctx context.Context, conversationID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if conversationID == "" {
		return errors.New("stats: conversation id required")
	}

	_, err := s.db.Exec(ctx, `DELETE FROM conversation_stats WHERE conversation_id = $1`, conversationID)
	if err != nil {
		return fmt.Errorf("stats: delete snapshot: %w", err)
	}
	return nil
}

// LoadAll reads every persisted snapshot.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]ConversationStats, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT conversation_id, total_count, per_label, daily_total, daily_per_label, first_seen, last_seen
		FROM conversation_stats`)
	if err != nil {
		return nil, fmt.Errorf("stats: load snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []ConversationStats
	for rows.Next() {
		var (
			snap          ConversationStats
			perLabel      []byte
			dailyPerLabel []byte
		)
		if err := rows.Scan(&snap.ConversationID, &snap.TotalCount, &perLabel,
			&snap.DailyTotal, &dailyPerLabel, &snap.FirstSeen, &snap.LastSeen); err != nil {
			return nil, fmt.Errorf("stats: scan snapshot: %w", err)
		}
		if err := json.Unmarshal(perLabel, &snap.PerLabelCount); err != nil {
			return nil, fmt.Errorf("stats: decode per-label counts: %w", err)
		}
		if err := json.Unmarshal(dailyPerLabel, &snap.DailyPerLabel); err != nil {
			return nil, fmt.Errorf("stats: decode daily per-label counts: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate snapshots: %w", err)
	}
	return snapshots, nil
}
