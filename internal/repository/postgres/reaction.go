package postgres

import (
	"context"
	"fmt"

	"github.com/fellowsabroad/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReactionStore struct {
	pool *pgxpool.Pool
}

func NewReactionStore(pool *pgxpool.Pool) *ReactionStore {
	return &ReactionStore{pool: pool}
}

// Toggle deletes the (message, user, emoji) row if present, otherwise
// inserts it. The unique index means two concurrent toggles cannot produce
// two rows; at worst both delete or both insert-once, and the state stays
// an on/off switch rather than a counter.
func (s *ReactionStore) Toggle(ctx context.Context, messageID int64, userID uuid.UUID, emoji string) (bool, error) {
	del := `
		DELETE FROM reactions
		WHERE message_id = $1 AND user_id = $2 AND emoji = $3`

	tag, err := s.pool.Exec(ctx, del, messageID, userID, emoji)
	if err != nil {
		return false, fmt.Errorf("toggle reaction (delete): %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	ins := `
		INSERT INTO reactions (message_id, user_id, emoji)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, user_id, emoji) DO NOTHING`

	if _, err := s.pool.Exec(ctx, ins, messageID, userID, emoji); err != nil {
		return false, fmt.Errorf("toggle reaction (insert): %w", err)
	}
	return true, nil
}

// Remove deletes the row if present. Removing a reaction that is already
// gone is a no-op, so an un-toggle followed by an explicit remove cannot
// double-remove.
func (s *ReactionStore) Remove(ctx context.Context, messageID int64, userID uuid.UUID, emoji string) error {
	query := `
		DELETE FROM reactions
		WHERE message_id = $1 AND user_id = $2 AND emoji = $3`

	_, err := s.pool.Exec(ctx, query, messageID, userID, emoji)
	if err != nil {
		return fmt.Errorf("remove reaction: %w", err)
	}
	return nil
}

func (s *ReactionStore) ListByMessage(ctx context.Context, messageID int64) ([]models.Reaction, error) {
	query := `
		SELECT id, message_id, user_id, emoji
		FROM reactions
		WHERE message_id = $1
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	defer rows.Close()

	reactions := make([]models.Reaction, 0)
	for rows.Next() {
		var r models.Reaction
		if err := rows.Scan(&r.ID, &r.MessageID, &r.UserID, &r.Emoji); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		reactions = append(reactions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reactions: %w", err)
	}

	return reactions, nil
}
