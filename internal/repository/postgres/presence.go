package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fellowsabroad/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PresenceStore struct {
	pool *pgxpool.Pool
}

func NewPresenceStore(pool *pgxpool.Pool) *PresenceStore {
	return &PresenceStore{pool: pool}
}

// Heartbeat upserts the caller's (workspace, user) row with the current
// time. One row per pair; the composite primary key is the conflict target.
func (s *PresenceStore) Heartbeat(ctx context.Context, workspaceID, userID uuid.UUID) error {
	query := `
		INSERT INTO presence (workspace_id, user_id, last_seen)
		VALUES ($1, $2, now())
		ON CONFLICT (workspace_id, user_id) DO UPDATE SET last_seen = now()`

	_, err := s.pool.Exec(ctx, query, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("upsert presence: %w", err)
	}
	return nil
}

// ListSince returns rows seen after the cutoff. "Online" is recomputed at
// read time from the window; nothing is pushed on expiry.
func (s *PresenceStore) ListSince(ctx context.Context, workspaceID uuid.UUID, since time.Time) ([]models.Presence, error) {
	query := `
		SELECT workspace_id, user_id, last_seen
		FROM presence
		WHERE workspace_id = $1 AND last_seen >= $2`

	rows, err := s.pool.Query(ctx, query, workspaceID, since)
	if err != nil {
		return nil, fmt.Errorf("list presence: %w", err)
	}
	defer rows.Close()

	entries := make([]models.Presence, 0)
	for rows.Next() {
		var p models.Presence
		if err := rows.Scan(&p.WorkspaceID, &p.UserID, &p.LastSeen); err != nil {
			return nil, fmt.Errorf("scan presence: %w", err)
		}
		entries = append(entries, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presence: %w", err)
	}

	return entries, nil
}
