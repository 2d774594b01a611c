package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fellowsabroad/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChannelStore struct {
	pool *pgxpool.Pool
}

func NewChannelStore(pool *pgxpool.Pool) *ChannelStore {
	return &ChannelStore{pool: pool}
}

const channelColumns = `id, workspace_id, name, is_private, is_dm, dm_key, created_by, created_at`

func scanChannel(row pgx.Row) (*models.Channel, error) {
	var ch models.Channel
	err := row.Scan(
		&ch.ID,
		&ch.WorkspaceID,
		&ch.Name,
		&ch.IsPrivate,
		&ch.IsDM,
		&ch.DMKey,
		&ch.CreatedBy,
		&ch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *ChannelStore) Create(ctx context.Context, workspaceID uuid.UUID, name string, isPrivate bool, createdBy uuid.UUID) (*models.Channel, error) {
	query := `
		INSERT INTO channels (workspace_id, name, is_private, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + channelColumns

	ch, err := scanChannel(s.pool.QueryRow(ctx, query, workspaceID, name, isPrivate, createdBy))
	if err != nil {
		return nil, fmt.Errorf("insert channel: %w", err)
	}
	return ch, nil
}

func (s *ChannelStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE id = $1`

	ch, err := scanChannel(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return ch, nil
}

func (s *ChannelStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Channel, error) {
	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE workspace_id = $1
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	channels := make([]models.Channel, 0)
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, *ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}

	return channels, nil
}

// EnsureGeneral creates the public "general" channel if the workspace does
// not have one yet. The conditional insert targets the partial unique
// index, so concurrent first-time callers converge on one row.
func (s *ChannelStore) EnsureGeneral(ctx context.Context, workspaceID, createdBy uuid.UUID) (*models.Channel, error) {
	insert := `
		INSERT INTO channels (workspace_id, name, is_private, is_dm, created_by)
		VALUES ($1, 'general', false, false, $2)
		ON CONFLICT (workspace_id, name) WHERE name = 'general' AND NOT is_dm DO NOTHING`

	if _, err := s.pool.Exec(ctx, insert, workspaceID, createdBy); err != nil {
		return nil, fmt.Errorf("ensure general channel: %w", err)
	}

	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE workspace_id = $1 AND name = 'general' AND NOT is_dm`

	ch, err := scanChannel(s.pool.QueryRow(ctx, query, workspaceID))
	if err != nil {
		return nil, fmt.Errorf("get general channel: %w", err)
	}
	return ch, nil
}

// EnsureDM creates the DM channel for a sorted user-id pair, or returns the
// existing one. The unique dm_key index replaces the former scan over all
// DM channels and their member lists.
func (s *ChannelStore) EnsureDM(ctx context.Context, workspaceID uuid.UUID, dmKey string, createdBy uuid.UUID) (*models.Channel, error) {
	insert := `
		INSERT INTO channels (workspace_id, name, is_private, is_dm, dm_key, created_by)
		VALUES ($1, 'Direct Message', true, true, $2, $3)
		ON CONFLICT (workspace_id, dm_key) WHERE dm_key IS NOT NULL DO NOTHING`

	if _, err := s.pool.Exec(ctx, insert, workspaceID, dmKey, createdBy); err != nil {
		return nil, fmt.Errorf("ensure dm channel: %w", err)
	}

	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE workspace_id = $1 AND dm_key = $2`

	ch, err := scanChannel(s.pool.QueryRow(ctx, query, workspaceID, dmKey))
	if err != nil {
		return nil, fmt.Errorf("get dm channel: %w", err)
	}
	return ch, nil
}

type ChannelMemberStore struct {
	pool *pgxpool.Pool
}

func NewChannelMemberStore(pool *pgxpool.Pool) *ChannelMemberStore {
	return &ChannelMemberStore{pool: pool}
}

// Add is idempotent; joining a channel twice is a no-op.
func (s *ChannelMemberStore) Add(ctx context.Context, channelID, userID uuid.UUID) error {
	query := `
		INSERT INTO channel_members (channel_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (channel_id, user_id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query, channelID, userID)
	if err != nil {
		return fmt.Errorf("add channel member: %w", err)
	}
	return nil
}

func (s *ChannelMemberStore) IsMember(ctx context.Context, channelID, userID uuid.UUID) (bool, error) {
	// EXISTS stops at the first match; this runs before every post to a
	// private channel.
	query := `
		SELECT EXISTS (
			SELECT 1 FROM channel_members
			WHERE channel_id = $1 AND user_id = $2
		)`

	var exists bool
	err := s.pool.QueryRow(ctx, query, channelID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check channel membership: %w", err)
	}
	return exists, nil
}

func (s *ChannelMemberStore) ListMembers(ctx context.Context, channelID uuid.UUID) ([]models.ChannelMember, error) {
	query := `
		SELECT channel_id, user_id
		FROM channel_members
		WHERE channel_id = $1`

	rows, err := s.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("list channel members: %w", err)
	}
	defer rows.Close()

	members := make([]models.ChannelMember, 0)
	for rows.Next() {
		var m models.ChannelMember
		if err := rows.Scan(&m.ChannelID, &m.UserID); err != nil {
			return nil, fmt.Errorf("scan channel member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channel members: %w", err)
	}

	return members, nil
}
