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

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

const messageColumns = `id, channel_id, author_id, body, parent_id, created_at, edited_at, deleted`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var msg models.Message
	err := row.Scan(
		&msg.ID,
		&msg.ChannelID,
		&msg.AuthorID,
		&msg.Text,
		&msg.ParentID,
		&msg.CreatedAt,
		&msg.EditedAt,
		&msg.Deleted,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *MessageStore) Create(ctx context.Context, channelID, authorID uuid.UUID, text string, parentID *int64) (*models.Message, error) {
	// Messages use bigserial; Postgres assigns the id and RETURNING gives
	// it back. Higher id = newer message, which is also the list order.
	query := `
		INSERT INTO messages (channel_id, author_id, body, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + messageColumns

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, channelID, authorID, text, parentID))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

func (s *MessageStore) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE id = $1`

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}

// ListByChannel returns the full channel history in ascending creation
// order, soft-deleted rows included — clients render those as placeholders
// and rebuild the two-level thread view from parent ids.
func (s *MessageStore) ListByChannel(ctx context.Context, channelID uuid.UUID) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE channel_id = $1
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

func (s *MessageStore) UpdateText(ctx context.Context, id int64, text string) error {
	query := `
		UPDATE messages
		SET body = $2, edited_at = now()
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, id, text)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

// SoftDelete flips the flag; the row and its text stay so the thread
// structure under it survives.
func (s *MessageStore) SoftDelete(ctx context.Context, id int64) error {
	query := `
		UPDATE messages
		SET deleted = true
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (s *MessageStore) ListAuthorIDs(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT author_id
		FROM messages
		WHERE channel_id = $1`

	rows, err := s.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("list message authors: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan author id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate author ids: %w", err)
	}

	return ids, nil
}

type FileStore struct {
	pool *pgxpool.Pool
}

func NewFileStore(pool *pgxpool.Pool) *FileStore {
	return &FileStore{pool: pool}
}

func (s *FileStore) Attach(ctx context.Context, messageID int64, storageKey, filename string, size int64) (*models.MessageFile, error) {
	query := `
		INSERT INTO message_files (message_id, storage_key, filename, size)
		VALUES ($1, $2, $3, $4)
		RETURNING id, message_id, storage_key, filename, size`

	var f models.MessageFile
	err := s.pool.QueryRow(ctx, query, messageID, storageKey, filename, size).Scan(
		&f.ID,
		&f.MessageID,
		&f.StorageKey,
		&f.Filename,
		&f.Size,
	)
	if err != nil {
		return nil, fmt.Errorf("attach file: %w", err)
	}
	return &f, nil
}

func (s *FileStore) ListByMessage(ctx context.Context, messageID int64) ([]models.MessageFile, error) {
	query := `
		SELECT id, message_id, storage_key, filename, size
		FROM message_files
		WHERE message_id = $1
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := make([]models.MessageFile, 0)
	for rows.Next() {
		var f models.MessageFile
		if err := rows.Scan(&f.ID, &f.MessageID, &f.StorageKey, &f.Filename, &f.Size); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}
