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

type BlogStore struct {
	pool *pgxpool.Pool
}

func NewBlogStore(pool *pgxpool.Pool) *BlogStore {
	return &BlogStore{pool: pool}
}

const blogColumns = `id, title, content, excerpt, author_id, tags, image_url,
	is_published, published_at, updated_at, created_at`

func scanBlog(row pgx.Row) (*models.Blog, error) {
	var b models.Blog
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Content,
		&b.Excerpt,
		&b.AuthorID,
		&b.Tags,
		&b.ImageURL,
		&b.IsPublished,
		&b.PublishedAt,
		&b.UpdatedAt,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListPublished returns published posts newest first. tag matches exactly
// against the tags array; search is a case-insensitive substring match
// over title, content, excerpt and tags. limit <= 0 means no limit.
func (s *BlogStore) ListPublished(ctx context.Context, tag, search string, limit int) ([]models.Blog, error) {
	query := `
		SELECT ` + blogColumns + `
		FROM blogs
		WHERE is_published
		  AND ($1 = '' OR $1 = ANY(tags))
		  AND ($2 = '' OR title ILIKE '%' || $2 || '%'
		       OR content ILIKE '%' || $2 || '%'
		       OR excerpt ILIKE '%' || $2 || '%'
		       OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE t ILIKE '%' || $2 || '%'))
		ORDER BY published_at DESC
		LIMIT NULLIF($3, 0)`

	rows, err := s.pool.Query(ctx, query, tag, search, limit)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	defer rows.Close()

	blogs := make([]models.Blog, 0)
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog: %w", err)
		}
		blogs = append(blogs, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blogs: %w", err)
	}

	return blogs, nil
}

func (s *BlogStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	query := `
		SELECT ` + blogColumns + `
		FROM blogs
		WHERE id = $1`

	b, err := scanBlog(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get blog: %w", err)
	}
	return b, nil
}

func (s *BlogStore) Tags(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT unnest(tags)
		FROM blogs
		WHERE is_published
		ORDER BY 1`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return tags, nil
}

func (s *BlogStore) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Blog, error) {
	query := `
		SELECT ` + blogColumns + `
		FROM blogs
		WHERE author_id = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("list author blogs: %w", err)
	}
	defer rows.Close()

	blogs := make([]models.Blog, 0)
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog: %w", err)
		}
		blogs = append(blogs, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blogs: %w", err)
	}

	return blogs, nil
}

func (s *BlogStore) Create(ctx context.Context, b models.Blog) (*models.Blog, error) {
	query := `
		INSERT INTO blogs (title, content, excerpt, author_id, tags, image_url,
		                   is_published, published_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING ` + blogColumns

	out, err := scanBlog(s.pool.QueryRow(ctx, query,
		b.Title, b.Content, b.Excerpt, b.AuthorID, b.Tags, b.ImageURL,
		b.IsPublished, b.PublishedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("insert blog: %w", err)
	}
	return out, nil
}

func (s *BlogStore) Update(ctx context.Context, b models.Blog) error {
	query := `
		UPDATE blogs
		SET title = $2, content = $3, excerpt = $4, tags = $5, image_url = $6,
		    is_published = $7, published_at = $8, updated_at = now()
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query,
		b.ID, b.Title, b.Content, b.Excerpt, b.Tags, b.ImageURL,
		b.IsPublished, b.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	return nil
}

// Delete removes the post and its comments in one transaction so a failed
// delete never leaves orphaned comments.
func (s *BlogStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin blog delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE blog_id = $1`, id); err != nil {
		return fmt.Errorf("delete blog comments: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit blog delete: %w", err)
	}
	return nil
}

type CommentStore struct {
	pool *pgxpool.Pool
}

func NewCommentStore(pool *pgxpool.Pool) *CommentStore {
	return &CommentStore{pool: pool}
}

const commentColumns = `id, blog_id, author_id, content, created_at, updated_at`

func (s *CommentStore) ListByBlog(ctx context.Context, blogID uuid.UUID) ([]models.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE blog_id = $1
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, blogID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

func (s *CommentStore) Create(ctx context.Context, blogID, authorID uuid.UUID, content string) (*models.Comment, error) {
	query := `
		INSERT INTO comments (blog_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING ` + commentColumns

	var c models.Comment
	err := s.pool.QueryRow(ctx, query, blogID, authorID, content).Scan(
		&c.ID, &c.BlogID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &c, nil
}

func (s *CommentStore) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE id = $1`

	var c models.Comment
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.BlogID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

func (s *CommentStore) Update(ctx context.Context, id int64, content string) error {
	query := `
		UPDATE comments
		SET content = $2, updated_at = now()
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, id, content)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}

func (s *CommentStore) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM comments
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
