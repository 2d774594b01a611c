package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an identity record created on first OTP sign-in. Application code
// never mutates it except through profile updates.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProfile holds the portal-facing profile fields, separate from the
// identity row. IsAdmin gates program creation and application review.
type UserProfile struct {
	UserID            uuid.UUID `json:"user_id"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Phone             string    `json:"phone"`
	DateOfBirth       string    `json:"date_of_birth"`
	Nationality       string    `json:"nationality"`
	Address           string    `json:"address"`
	ProfilePictureKey string    `json:"profile_picture_key,omitempty"`
	IsAdmin           bool      `json:"is_admin"`
}

// Workspace is the top-level chat grouping. The default "General" workspace
// carries the well-known slug "general"; user-created workspaces have none.
type Workspace struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      *string   `json:"-"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership links a user to a workspace. At most one row per
// (workspace, user) pair, enforced by a unique index.
type Membership struct {
	WorkspaceID uuid.UUID `json:"workspace_id"`
	UserID      uuid.UUID `json:"user_id"`
	Roles       []string  `json:"roles"`
}

// Channel is a conversation scope within a workspace. DM channels are
// private two-member channels with IsDM set; DMKey is the sorted user-id
// pair that makes them unique per workspace.
type Channel struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Name        string    `json:"name"`
	IsPrivate   bool      `json:"is_private"`
	IsDM        bool      `json:"is_dm"`
	DMKey       *string   `json:"-"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChannelMember gates access to private channels.
type ChannelMember struct {
	ChannelID uuid.UUID `json:"channel_id"`
	UserID    uuid.UUID `json:"user_id"`
}

// Message is a chat message. ParentID references a top-level message for
// single-level threading; replies to replies are not modeled. Deleting is
// logical: Deleted flips to true and the row stays.
type Message struct {
	ID        int64      `json:"id"`
	ChannelID uuid.UUID  `json:"channel_id"`
	AuthorID  uuid.UUID  `json:"author_id"`
	Text      string     `json:"text"`
	ParentID  *int64     `json:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	Deleted   bool       `json:"deleted"`
}

// Reaction is one (message, user, emoji) row. The triple is unique; adding
// it again removes it (toggle).
type Reaction struct {
	ID        int64     `json:"id"`
	MessageID int64     `json:"message_id"`
	UserID    uuid.UUID `json:"user_id"`
	Emoji     string    `json:"emoji"`
}

// MessageFile references an uploaded attachment by its storage key. Raw
// bytes never enter the data model.
type MessageFile struct {
	ID         int64  `json:"id"`
	MessageID  int64  `json:"message_id"`
	StorageKey string `json:"storage_key"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
}

// Presence is the per-(workspace, user) heartbeat row. "Online" is derived
// at read time as LastSeen within a trailing window, never pushed.
type Presence struct {
	WorkspaceID uuid.UUID `json:"workspace_id"`
	UserID      uuid.UUID `json:"user_id"`
	LastSeen    time.Time `json:"last_seen"`
}

// UserSummary is the shape presence and channel-roster queries resolve to.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

// Program is a fellowship program open for applications. CurrentApplicants
// is informational only; creation against a full program still succeeds.
type Program struct {
	ID                  uuid.UUID `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	University          string    `json:"university"`
	Country             string    `json:"country"`
	Degree              string    `json:"degree"`
	Duration            string    `json:"duration"`
	ApplicationDeadline string    `json:"application_deadline"`
	Requirements        []string  `json:"requirements"`
	Benefits            []string  `json:"benefits"`
	Eligibility         []string  `json:"eligibility"`
	ImageURL            string    `json:"image_url,omitempty"`
	IsActive            bool      `json:"is_active"`
	MaxApplicants       int       `json:"max_applicants"`
	CurrentApplicants   int       `json:"current_applicants"`
	CreatedAt           time.Time `json:"created_at"`
}

// Application status values. Only draft applications may be submitted.
const (
	StatusDraft       = "draft"
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under_review"
	StatusAccepted    = "accepted"
	StatusRejected    = "rejected"
	StatusWaitlisted  = "waitlisted"
)

// PersonalInfo, AcademicInfo, Documents and Essays are stored as jsonb
// columns; their shape mirrors the application form sections.
type PersonalInfo struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Nationality string `json:"nationality"`
	Address     string `json:"address"`
}

type AcademicInfo struct {
	CurrentDegree  string `json:"current_degree"`
	University     string `json:"university"`
	GPA            string `json:"gpa"`
	GraduationYear string `json:"graduation_year"`
	FieldOfStudy   string `json:"field_of_study"`
}

// Documents holds opaque storage keys, never file contents.
type Documents struct {
	TranscriptKey            string   `json:"transcript_key,omitempty"`
	CVKey                    string   `json:"cv_key,omitempty"`
	PersonalStatementKey     string   `json:"personal_statement_key,omitempty"`
	RecommendationLetterKeys []string `json:"recommendation_letter_keys,omitempty"`
}

type Essays struct {
	WhyThisProgram    string `json:"why_this_program"`
	CareerGoals       string `json:"career_goals"`
	PersonalStatement string `json:"personal_statement"`
}

// Application is one user's application to one program. At most one row per
// (user, program) pair, enforced by a unique index.
type Application struct {
	ID            uuid.UUID    `json:"id"`
	UserID        uuid.UUID    `json:"user_id"`
	ProgramID     uuid.UUID    `json:"program_id"`
	Status        string       `json:"status"`
	PersonalInfo  PersonalInfo `json:"personal_info"`
	AcademicInfo  AcademicInfo `json:"academic_info"`
	Documents     Documents    `json:"documents"`
	Essays        Essays       `json:"essays"`
	SubmittedAt   *time.Time   `json:"submitted_at,omitempty"`
	ReviewedAt    *time.Time   `json:"reviewed_at,omitempty"`
	ReviewerNotes string       `json:"reviewer_notes,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Notification type values.
const (
	NotificationApplicationUpdate  = "application_update"
	NotificationDeadlineReminder   = "deadline_reminder"
	NotificationSystemAnnouncement = "system_announcement"
)

type Notification struct {
	ID            int64      `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	Type          string     `json:"type"`
	IsRead        bool       `json:"is_read"`
	ApplicationID *uuid.UUID `json:"application_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Blog is a post on the attached blog. Excerpt is derived from content at
// write time. PublishedAt is set the first time the post goes public.
type Blog struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt"`
	AuthorID    uuid.UUID  `json:"author_id"`
	Tags        []string   `json:"tags"`
	ImageURL    string     `json:"image_url,omitempty"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Comment struct {
	ID        int64      `json:"id"`
	BlogID    uuid.UUID  `json:"blog_id"`
	AuthorID  uuid.UUID  `json:"author_id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// AuthorSummary is attached to blogs and comments when listing.
type AuthorSummary struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
