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

type ProgramStore struct {
	pool *pgxpool.Pool
}

func NewProgramStore(pool *pgxpool.Pool) *ProgramStore {
	return &ProgramStore{pool: pool}
}

const programColumns = `id, title, description, university, country, degree, duration,
	application_deadline, requirements, benefits, eligibility, image_url,
	is_active, max_applicants, current_applicants, created_at`

func scanProgram(row pgx.Row) (*models.Program, error) {
	var p models.Program
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.University,
		&p.Country,
		&p.Degree,
		&p.Duration,
		&p.ApplicationDeadline,
		&p.Requirements,
		&p.Benefits,
		&p.Eligibility,
		&p.ImageURL,
		&p.IsActive,
		&p.MaxApplicants,
		&p.CurrentApplicants,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns active programs, optionally narrowed to one country. An
// empty country means no filter.
func (s *ProgramStore) List(ctx context.Context, country string) ([]models.Program, error) {
	query := `
		SELECT ` + programColumns + `
		FROM programs
		WHERE is_active AND ($1 = '' OR country = $1)
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, country)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	programs := make([]models.Program, 0)
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}

	return programs, nil
}

func (s *ProgramStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Program, error) {
	query := `
		SELECT ` + programColumns + `
		FROM programs
		WHERE id = $1`

	p, err := scanProgram(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get program: %w", err)
	}
	return p, nil
}

func (s *ProgramStore) Countries(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT country
		FROM programs
		WHERE is_active
		ORDER BY country`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	countries := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate countries: %w", err)
	}

	return countries, nil
}

func (s *ProgramStore) Create(ctx context.Context, p models.Program) (*models.Program, error) {
	query := `
		INSERT INTO programs
			(title, description, university, country, degree, duration,
			 application_deadline, requirements, benefits, eligibility,
			 image_url, max_applicants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + programColumns

	out, err := scanProgram(s.pool.QueryRow(ctx, query,
		p.Title, p.Description, p.University, p.Country, p.Degree, p.Duration,
		p.ApplicationDeadline, p.Requirements, p.Benefits, p.Eligibility,
		p.ImageURL, p.MaxApplicants,
	))
	if err != nil {
		return nil, fmt.Errorf("insert program: %w", err)
	}
	return out, nil
}
