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

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, email, name, image, created_at
		FROM users
		WHERE id = $1`

	var u models.User
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Image,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, image, created_at
		FROM users
		WHERE email = $1`

	var u models.User
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Image,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// FindOrCreateByEmail is a single conditional insert against the unique
// email column. The DO UPDATE no-op makes RETURNING yield the row on both
// the insert and the conflict path.
func (s *UserStore) FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		INSERT INTO users (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, name, image, created_at`

	var u models.User
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Image,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find or create user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) GetMany(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	query := `
		SELECT id, email, name, image, created_at
		FROM users
		WHERE id = ANY($1)`

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.Name,
			&u.Image,
			&u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) GetByUser(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	query := `
		SELECT user_id, first_name, last_name, phone, date_of_birth,
		       nationality, address, profile_picture_key, is_admin
		FROM user_profiles
		WHERE user_id = $1`

	var p models.UserProfile
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.FirstName,
		&p.LastName,
		&p.Phone,
		&p.DateOfBirth,
		&p.Nationality,
		&p.Address,
		&p.ProfilePictureKey,
		&p.IsAdmin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// Upsert writes the profile fields. is_admin is deliberately left out of
// the update list: profile edits can never grant admin.
func (s *ProfileStore) Upsert(ctx context.Context, p models.UserProfile) (*models.UserProfile, error) {
	query := `
		INSERT INTO user_profiles
			(user_id, first_name, last_name, phone, date_of_birth,
			 nationality, address, profile_picture_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			date_of_birth = EXCLUDED.date_of_birth,
			nationality = EXCLUDED.nationality,
			address = EXCLUDED.address,
			profile_picture_key = EXCLUDED.profile_picture_key
		RETURNING user_id, first_name, last_name, phone, date_of_birth,
		          nationality, address, profile_picture_key, is_admin`

	var out models.UserProfile
	err := s.pool.QueryRow(ctx, query,
		p.UserID, p.FirstName, p.LastName, p.Phone, p.DateOfBirth,
		p.Nationality, p.Address, p.ProfilePictureKey,
	).Scan(
		&out.UserID,
		&out.FirstName,
		&out.LastName,
		&out.Phone,
		&out.DateOfBirth,
		&out.Nationality,
		&out.Address,
		&out.ProfilePictureKey,
		&out.IsAdmin,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return &out, nil
}

func (s *ProfileStore) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM user_profiles
			WHERE user_id = $1 AND is_admin
		)`

	var isAdmin bool
	err := s.pool.QueryRow(ctx, query, userID).Scan(&isAdmin)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return isAdmin, nil
}
