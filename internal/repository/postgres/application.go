package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fellowsabroad/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ApplicationStore struct {
	pool *pgxpool.Pool
}

func NewApplicationStore(pool *pgxpool.Pool) *ApplicationStore {
	return &ApplicationStore{pool: pool}
}

const applicationColumns = `id, user_id, program_id, status, personal_info, academic_info,
	documents, essays, submitted_at, reviewed_at, reviewer_notes, created_at`

func scanApplication(row pgx.Row) (*models.Application, error) {
	var a models.Application
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.ProgramID,
		&a.Status,
		&a.PersonalInfo,
		&a.AcademicInfo,
		&a.Documents,
		&a.Essays,
		&a.SubmittedAt,
		&a.ReviewedAt,
		&a.ReviewerNotes,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a draft application seeded with the user's email. The
// unique (user_id, program_id) index turns "apply twice" into a conflict;
// that path returns nil, nil and the handler reports the duplicate.
func (s *ApplicationStore) Create(ctx context.Context, userID, programID uuid.UUID, seed models.PersonalInfo) (*models.Application, error) {
	query := `
		INSERT INTO applications (user_id, program_id, personal_info, academic_info, documents, essays)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, program_id) DO NOTHING
		RETURNING ` + applicationColumns

	a, err := scanApplication(s.pool.QueryRow(ctx, query,
		userID, programID, seed, models.AcademicInfo{}, models.Documents{}, models.Essays{},
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("insert application: %w", err)
	}
	return a, nil
}

func (s *ApplicationStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE id = $1`

	a, err := scanApplication(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

func (s *ApplicationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE user_id = $1
		ORDER BY created_at DESC`

	return s.list(ctx, query, userID)
}

// ListAll is the admin view; an empty status means every application.
func (s *ApplicationStore) ListAll(ctx context.Context, status string) ([]models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC`

	return s.list(ctx, query, status)
}

func (s *ApplicationStore) list(ctx context.Context, query string, args ...any) ([]models.Application, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	applications := make([]models.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		applications = append(applications, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}

	return applications, nil
}

func (s *ApplicationStore) UpdatePersonalInfo(ctx context.Context, id uuid.UUID, info models.PersonalInfo) error {
	return s.updateSection(ctx, id, "personal_info", info)
}

func (s *ApplicationStore) UpdateAcademicInfo(ctx context.Context, id uuid.UUID, info models.AcademicInfo) error {
	return s.updateSection(ctx, id, "academic_info", info)
}

func (s *ApplicationStore) UpdateEssays(ctx context.Context, id uuid.UUID, essays models.Essays) error {
	return s.updateSection(ctx, id, "essays", essays)
}

func (s *ApplicationStore) UpdateDocuments(ctx context.Context, id uuid.UUID, docs models.Documents) error {
	return s.updateSection(ctx, id, "documents", docs)
}

func (s *ApplicationStore) updateSection(ctx context.Context, id uuid.UUID, column string, value any) error {
	// column is one of four constants above, never caller input.
	query := fmt.Sprintf(`UPDATE applications SET %s = $2 WHERE id = $1`, column)

	_, err := s.pool.Exec(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	return nil
}

// Submit flips draft -> submitted, bumps the program's applicant counter
// and writes the applicant notification as one transaction. The row lock
// on the application makes concurrent submits serialize: the loser sees a
// non-draft status and reports "already submitted" instead of double
// counting.
func (s *ApplicationStore) Submit(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin submit: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	var userID, programID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT status, user_id, program_id
		FROM applications
		WHERE id = $1
		FOR UPDATE`, id).Scan(&status, &userID, &programID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lock application: %w", err)
	}
	if status != models.StatusDraft {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE applications
		SET status = $2, submitted_at = now()
		WHERE id = $1`, id, models.StatusSubmitted); err != nil {
		return false, fmt.Errorf("mark submitted: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE programs
		SET current_applicants = current_applicants + 1
		WHERE id = $1`, programID); err != nil {
		return false, fmt.Errorf("bump applicant count: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO notifications (user_id, title, message, type, application_id)
		VALUES ($1, $2, $3, $4, $5)`,
		userID,
		"Application Submitted",
		"Your application has been successfully submitted and is now under review.",
		models.NotificationApplicationUpdate,
		id,
	); err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit submit: %w", err)
	}
	return true, nil
}

// UpdateStatus records the review decision and notifies the applicant in
// the same transaction.
func (s *ApplicationStore) UpdateStatus(ctx context.Context, id uuid.UUID, status, reviewerNotes string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `
		UPDATE applications
		SET status = $2, reviewed_at = now(), reviewer_notes = $3
		WHERE id = $1
		RETURNING user_id`, id, status, reviewerNotes).Scan(&userID)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}

	message := "Your application status has been updated to: " +
		strings.ToUpper(strings.ReplaceAll(status, "_", " "))
	if _, err := tx.Exec(ctx, `
		INSERT INTO notifications (user_id, title, message, type, application_id)
		VALUES ($1, $2, $3, $4, $5)`,
		userID,
		"Application Status Update",
		message,
		models.NotificationApplicationUpdate,
		id,
	); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}
