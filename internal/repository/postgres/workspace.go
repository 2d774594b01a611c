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

type WorkspaceStore struct {
	pool *pgxpool.Pool
}

func NewWorkspaceStore(pool *pgxpool.Pool) *WorkspaceStore {
	return &WorkspaceStore{pool: pool}
}

func (s *WorkspaceStore) Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Workspace, error) {
	query := `
		INSERT INTO workspaces (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, name, slug, owner_id, created_at`

	var w models.Workspace
	err := s.pool.QueryRow(ctx, query, name, ownerID).Scan(
		&w.ID,
		&w.Name,
		&w.Slug,
		&w.OwnerID,
		&w.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert workspace: %w", err)
	}
	return &w, nil
}

func (s *WorkspaceStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	query := `
		SELECT id, name, slug, owner_id, created_at
		FROM workspaces
		WHERE id = $1`

	var w models.Workspace
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&w.ID,
		&w.Name,
		&w.Slug,
		&w.OwnerID,
		&w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return &w, nil
}

func (s *WorkspaceStore) List(ctx context.Context) ([]models.Workspace, error) {
	query := `
		SELECT id, name, slug, owner_id, created_at
		FROM workspaces
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	workspaces := make([]models.Workspace, 0)
	for rows.Next() {
		var w models.Workspace
		if err := rows.Scan(
			&w.ID,
			&w.Name,
			&w.Slug,
			&w.OwnerID,
			&w.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		workspaces = append(workspaces, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workspaces: %w", err)
	}

	return workspaces, nil
}

// EnsureDefault races safely: the conditional insert either creates the
// slugged workspace or does nothing, and the follow-up select always finds
// exactly one row. No duplicate "General" workspaces under concurrent
// first use.
func (s *WorkspaceStore) EnsureDefault(ctx context.Context, name, slug string, ownerID uuid.UUID) (*models.Workspace, error) {
	insert := `
		INSERT INTO workspaces (name, slug, owner_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO NOTHING`

	if _, err := s.pool.Exec(ctx, insert, name, slug, ownerID); err != nil {
		return nil, fmt.Errorf("ensure workspace: %w", err)
	}

	query := `
		SELECT id, name, slug, owner_id, created_at
		FROM workspaces
		WHERE slug = $1`

	var w models.Workspace
	err := s.pool.QueryRow(ctx, query, slug).Scan(
		&w.ID,
		&w.Name,
		&w.Slug,
		&w.OwnerID,
		&w.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get default workspace: %w", err)
	}
	return &w, nil
}

type MembershipStore struct {
	pool *pgxpool.Pool
}

func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{pool: pool}
}

// Add is idempotent: a duplicate (workspace_id, user_id) hits the primary
// key and becomes a no-op instead of an error.
func (s *MembershipStore) Add(ctx context.Context, workspaceID, userID uuid.UUID, roles []string) error {
	query := `
		INSERT INTO memberships (workspace_id, user_id, roles)
		VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, user_id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query, workspaceID, userID, roles)
	if err != nil {
		return fmt.Errorf("add membership: %w", err)
	}
	return nil
}

func (s *MembershipStore) IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM memberships
			WHERE workspace_id = $1 AND user_id = $2
		)`

	var exists bool
	err := s.pool.QueryRow(ctx, query, workspaceID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

func (s *MembershipStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Membership, error) {
	query := `
		SELECT workspace_id, user_id, roles
		FROM memberships
		WHERE workspace_id = $1`

	rows, err := s.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	members := make([]models.Membership, 0)
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.WorkspaceID, &m.UserID, &m.Roles); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}

	return members, nil
}
