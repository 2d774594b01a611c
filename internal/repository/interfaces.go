package repository

import (
	"context"
	"time"

	"github.com/fellowsabroad/backend/internal/models"
	"github.com/google/uuid"
)

// Every method takes a context so request cancellation propagates into the
// DB driver. Repositories return nil, nil for "not found"; handlers decide
// whether that is a 404 or something else.

// UserRepository handles identity rows.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// FindOrCreateByEmail is the sign-in upsert: a single conditional
	// insert keyed on the unique email column, safe under concurrent
	// first sign-ins.
	FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error)

	// GetMany resolves a batch of ids, skipping unknown ones.
	GetMany(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

// ProfileRepository handles the portal profile attached to a user.
type ProfileRepository interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	Upsert(ctx context.Context, p models.UserProfile) (*models.UserProfile, error)

	// IsAdmin is the hot-path authorization check for admin-only surfaces.
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// WorkspaceRepository handles chat workspaces.
type WorkspaceRepository interface {
	Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Workspace, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	List(ctx context.Context) ([]models.Workspace, error)

	// EnsureDefault finds or creates the workspace with the given
	// well-known slug as one conditional insert. Concurrent first-time
	// callers converge on the same row.
	EnsureDefault(ctx context.Context, name, slug string, ownerID uuid.UUID) (*models.Workspace, error)
}

// MembershipRepository handles workspace membership.
type MembershipRepository interface {
	// Add is idempotent: joining twice is a no-op, not an error.
	Add(ctx context.Context, workspaceID, userID uuid.UUID, roles []string) error
	IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Membership, error)
}

// ChannelRepository handles channels, including DM channels.
type ChannelRepository interface {
	Create(ctx context.Context, workspaceID uuid.UUID, name string, isPrivate bool, createdBy uuid.UUID) (*models.Channel, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Channel, error)

	// EnsureGeneral finds or creates the public "general" channel in a
	// workspace via a conditional insert against the partial unique index.
	EnsureGeneral(ctx context.Context, workspaceID, createdBy uuid.UUID) (*models.Channel, error)

	// EnsureDM finds or creates the DM channel for a sorted user-id pair.
	// The unique dm_key replaces the linear scan over existing DMs.
	EnsureDM(ctx context.Context, workspaceID uuid.UUID, dmKey string, createdBy uuid.UUID) (*models.Channel, error)
}

// ChannelMemberRepository handles who belongs to which channel.
type ChannelMemberRepository interface {
	Add(ctx context.Context, channelID, userID uuid.UUID) error
	IsMember(ctx context.Context, channelID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, channelID uuid.UUID) ([]models.ChannelMember, error)
}

// MessageRepository handles chat messages.
type MessageRepository interface {
	Create(ctx context.Context, channelID, authorID uuid.UUID, text string, parentID *int64) (*models.Message, error)
	GetByID(ctx context.Context, id int64) (*models.Message, error)

	// ListByChannel returns every message in ascending creation order,
	// soft-deleted rows included. Thread structure is rebuilt client-side
	// from parent ids.
	ListByChannel(ctx context.Context, channelID uuid.UUID) ([]models.Message, error)

	UpdateText(ctx context.Context, id int64, text string) error
	SoftDelete(ctx context.Context, id int64) error

	// ListAuthorIDs returns the distinct authors that have posted in a
	// channel, for the roster view.
	ListAuthorIDs(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error)
}

// ReactionRepository handles emoji reactions.
type ReactionRepository interface {
	// Toggle removes the (message, user, emoji) row if present, inserts it
	// otherwise. Returns whether the reaction exists after the call.
	Toggle(ctx context.Context, messageID int64, userID uuid.UUID, emoji string) (bool, error)
	Remove(ctx context.Context, messageID int64, userID uuid.UUID, emoji string) error
	ListByMessage(ctx context.Context, messageID int64) ([]models.Reaction, error)
}

// FileRepository handles message attachments by storage key.
type FileRepository interface {
	Attach(ctx context.Context, messageID int64, storageKey, filename string, size int64) (*models.MessageFile, error)
	ListByMessage(ctx context.Context, messageID int64) ([]models.MessageFile, error)
}

// PresenceRepository handles heartbeat rows.
type PresenceRepository interface {
	Heartbeat(ctx context.Context, workspaceID, userID uuid.UUID) error
	ListSince(ctx context.Context, workspaceID uuid.UUID, since time.Time) ([]models.Presence, error)
}

// ProgramRepository handles fellowship programs.
type ProgramRepository interface {
	// List returns active programs, optionally filtered by country.
	List(ctx context.Context, country string) ([]models.Program, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Program, error)
	Countries(ctx context.Context) ([]string, error)
	Create(ctx context.Context, p models.Program) (*models.Program, error)
}

// ApplicationRepository handles applications and their lifecycle.
type ApplicationRepository interface {
	// Create inserts a draft application. Returns nil, nil when the user
	// already has one for this program (unique index conflict).
	Create(ctx context.Context, userID, programID uuid.UUID, seed models.PersonalInfo) (*models.Application, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Application, error)
	ListAll(ctx context.Context, status string) ([]models.Application, error)

	UpdatePersonalInfo(ctx context.Context, id uuid.UUID, info models.PersonalInfo) error
	UpdateAcademicInfo(ctx context.Context, id uuid.UUID, info models.AcademicInfo) error
	UpdateEssays(ctx context.Context, id uuid.UUID, essays models.Essays) error
	UpdateDocuments(ctx context.Context, id uuid.UUID, docs models.Documents) error

	// Submit flips draft -> submitted, bumps the program counter and
	// inserts the applicant notification in one transaction. Returns
	// false when the application is not in draft.
	Submit(ctx context.Context, id uuid.UUID) (bool, error)

	// UpdateStatus is the admin review action; it also notifies the
	// applicant, in the same transaction.
	UpdateStatus(ctx context.Context, id uuid.UUID, status, reviewerNotes string) error
}

// NotificationRepository handles the per-user notification feed.
type NotificationRepository interface {
	Create(ctx context.Context, n models.Notification) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

// BlogRepository handles blog posts.
type BlogRepository interface {
	// ListPublished returns published posts newest first, with optional
	// tag and free-text filters. limit <= 0 means no limit.
	ListPublished(ctx context.Context, tag, search string, limit int) ([]models.Blog, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Blog, error)
	Tags(ctx context.Context) ([]string, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Blog, error)
	Create(ctx context.Context, b models.Blog) (*models.Blog, error)
	Update(ctx context.Context, b models.Blog) error

	// Delete removes the post and its comments together.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CommentRepository handles blog comments.
type CommentRepository interface {
	ListByBlog(ctx context.Context, blogID uuid.UUID) ([]models.Comment, error)
	Create(ctx context.Context, blogID, authorID uuid.UUID, content string) (*models.Comment, error)
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	Update(ctx context.Context, id int64, content string) error
	Delete(ctx context.Context, id int64) error
}
