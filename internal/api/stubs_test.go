package api

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fellowsabroad/backend/internal/models"
	"github.com/google/uuid"
)

// In-memory repository stubs. Each mirrors the behavior the postgres
// implementation guarantees (idempotent inserts, nil-for-not-found,
// ascending order) closely enough for handler tests.

type stubUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (r *stubUserRepo) add(email string) *models.User {
	u := &models.User{ID: uuid.New(), Email: email, CreatedAt: time.Now()}
	r.users[u.ID] = u
	return u
}

func (r *stubUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return r.users[id], nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *stubUserRepo) FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, _ := r.GetByEmail(ctx, email); u != nil {
		return u, nil
	}
	return r.add(email), nil
}

func (r *stubUserRepo) GetMany(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

type stubProfileRepo struct {
	profiles map[uuid.UUID]*models.UserProfile
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{profiles: make(map[uuid.UUID]*models.UserProfile)}
}

func (r *stubProfileRepo) GetByUser(_ context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	return r.profiles[userID], nil
}

func (r *stubProfileRepo) Upsert(_ context.Context, p models.UserProfile) (*models.UserProfile, error) {
	if existing, ok := r.profiles[p.UserID]; ok {
		p.IsAdmin = existing.IsAdmin
	}
	r.profiles[p.UserID] = &p
	return &p, nil
}

func (r *stubProfileRepo) IsAdmin(_ context.Context, userID uuid.UUID) (bool, error) {
	p, ok := r.profiles[userID]
	return ok && p.IsAdmin, nil
}

type stubChannelRepo struct {
	channels map[uuid.UUID]*models.Channel
	byDMKey  map[string]*models.Channel
}

func newStubChannelRepo() *stubChannelRepo {
	return &stubChannelRepo{
		channels: make(map[uuid.UUID]*models.Channel),
		byDMKey:  make(map[string]*models.Channel),
	}
}

func (r *stubChannelRepo) Create(_ context.Context, workspaceID uuid.UUID, name string, isPrivate bool, createdBy uuid.UUID) (*models.Channel, error) {
	ch := &models.Channel{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Name:        name,
		IsPrivate:   isPrivate,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}
	r.channels[ch.ID] = ch
	return ch, nil
}

func (r *stubChannelRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Channel, error) {
	return r.channels[id], nil
}

func (r *stubChannelRepo) ListByWorkspace(_ context.Context, workspaceID uuid.UUID) ([]models.Channel, error) {
	out := make([]models.Channel, 0)
	for _, ch := range r.channels {
		if ch.WorkspaceID == workspaceID {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (r *stubChannelRepo) EnsureGeneral(ctx context.Context, workspaceID, createdBy uuid.UUID) (*models.Channel, error) {
	for _, ch := range r.channels {
		if ch.WorkspaceID == workspaceID && ch.Name == "general" && !ch.IsDM {
			return ch, nil
		}
	}
	return r.Create(ctx, workspaceID, "general", false, createdBy)
}

func (r *stubChannelRepo) EnsureDM(_ context.Context, workspaceID uuid.UUID, dmKey string, createdBy uuid.UUID) (*models.Channel, error) {
	key := fmt.Sprintf("%s/%s", workspaceID, dmKey)
	if ch, ok := r.byDMKey[key]; ok {
		return ch, nil
	}
	ch := &models.Channel{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Name:        "Direct Message",
		IsPrivate:   true,
		IsDM:        true,
		DMKey:       &dmKey,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}
	r.channels[ch.ID] = ch
	r.byDMKey[key] = ch
	return ch, nil
}

type stubChannelMemberRepo struct {
	members map[uuid.UUID]map[uuid.UUID]bool
}

func newStubChannelMemberRepo() *stubChannelMemberRepo {
	return &stubChannelMemberRepo{members: make(map[uuid.UUID]map[uuid.UUID]bool)}
}

func (r *stubChannelMemberRepo) Add(_ context.Context, channelID, userID uuid.UUID) error {
	if r.members[channelID] == nil {
		r.members[channelID] = make(map[uuid.UUID]bool)
	}
	r.members[channelID][userID] = true
	return nil
}

func (r *stubChannelMemberRepo) IsMember(_ context.Context, channelID, userID uuid.UUID) (bool, error) {
	return r.members[channelID][userID], nil
}

func (r *stubChannelMemberRepo) ListMembers(_ context.Context, channelID uuid.UUID) ([]models.ChannelMember, error) {
	out := make([]models.ChannelMember, 0)
	for userID := range r.members[channelID] {
		out = append(out, models.ChannelMember{ChannelID: channelID, UserID: userID})
	}
	return out, nil
}

type stubMembershipRepo struct {
	members map[uuid.UUID]map[uuid.UUID][]string
}

func newStubMembershipRepo() *stubMembershipRepo {
	return &stubMembershipRepo{members: make(map[uuid.UUID]map[uuid.UUID][]string)}
}

func (r *stubMembershipRepo) Add(_ context.Context, workspaceID, userID uuid.UUID, roles []string) error {
	if r.members[workspaceID] == nil {
		r.members[workspaceID] = make(map[uuid.UUID][]string)
	}
	if _, ok := r.members[workspaceID][userID]; !ok {
		r.members[workspaceID][userID] = roles
	}
	return nil
}

func (r *stubMembershipRepo) IsMember(_ context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	_, ok := r.members[workspaceID][userID]
	return ok, nil
}

func (r *stubMembershipRepo) ListByWorkspace(_ context.Context, workspaceID uuid.UUID) ([]models.Membership, error) {
	out := make([]models.Membership, 0)
	for userID, roles := range r.members[workspaceID] {
		out = append(out, models.Membership{WorkspaceID: workspaceID, UserID: userID, Roles: roles})
	}
	return out, nil
}

type stubMessageRepo struct {
	messages []*models.Message
	nextID   int64
}

func newStubMessageRepo() *stubMessageRepo {
	return &stubMessageRepo{}
}

func (r *stubMessageRepo) Create(_ context.Context, channelID, authorID uuid.UUID, text string, parentID *int64) (*models.Message, error) {
	r.nextID++
	m := &models.Message{
		ID:        r.nextID,
		ChannelID: channelID,
		AuthorID:  authorID,
		Text:      text,
		ParentID:  parentID,
		CreatedAt: time.Now(),
	}
	r.messages = append(r.messages, m)
	return m, nil
}

func (r *stubMessageRepo) GetByID(_ context.Context, id int64) (*models.Message, error) {
	for _, m := range r.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (r *stubMessageRepo) ListByChannel(_ context.Context, channelID uuid.UUID) ([]models.Message, error) {
	out := make([]models.Message, 0)
	for _, m := range r.messages {
		if m.ChannelID == channelID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubMessageRepo) UpdateText(_ context.Context, id int64, text string) error {
	for _, m := range r.messages {
		if m.ID == id {
			now := time.Now()
			m.Text = text
			m.EditedAt = &now
		}
	}
	return nil
}

func (r *stubMessageRepo) SoftDelete(_ context.Context, id int64) error {
	for _, m := range r.messages {
		if m.ID == id {
			m.Deleted = true
		}
	}
	return nil
}

func (r *stubMessageRepo) ListAuthorIDs(_ context.Context, channelID uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	out := make([]uuid.UUID, 0)
	for _, m := range r.messages {
		if m.ChannelID == channelID && !seen[m.AuthorID] {
			seen[m.AuthorID] = true
			out = append(out, m.AuthorID)
		}
	}
	return out, nil
}

type stubFileRepo struct {
	files  []*models.MessageFile
	nextID int64
}

func newStubFileRepo() *stubFileRepo {
	return &stubFileRepo{}
}

func (r *stubFileRepo) Attach(_ context.Context, messageID int64, storageKey, filename string, size int64) (*models.MessageFile, error) {
	r.nextID++
	f := &models.MessageFile{ID: r.nextID, MessageID: messageID, StorageKey: storageKey, Filename: filename, Size: size}
	r.files = append(r.files, f)
	return f, nil
}

func (r *stubFileRepo) ListByMessage(_ context.Context, messageID int64) ([]models.MessageFile, error) {
	out := make([]models.MessageFile, 0)
	for _, f := range r.files {
		if f.MessageID == messageID {
			out = append(out, *f)
		}
	}
	return out, nil
}

type reactionKey struct {
	messageID int64
	userID    uuid.UUID
	emoji     string
}

type stubReactionRepo struct {
	reactions map[reactionKey]bool
	nextID    int64
}

func newStubReactionRepo() *stubReactionRepo {
	return &stubReactionRepo{reactions: make(map[reactionKey]bool)}
}

func (r *stubReactionRepo) Toggle(_ context.Context, messageID int64, userID uuid.UUID, emoji string) (bool, error) {
	key := reactionKey{messageID, userID, emoji}
	if r.reactions[key] {
		delete(r.reactions, key)
		return false, nil
	}
	r.reactions[key] = true
	return true, nil
}

func (r *stubReactionRepo) Remove(_ context.Context, messageID int64, userID uuid.UUID, emoji string) error {
	delete(r.reactions, reactionKey{messageID, userID, emoji})
	return nil
}

func (r *stubReactionRepo) ListByMessage(_ context.Context, messageID int64) ([]models.Reaction, error) {
	out := make([]models.Reaction, 0)
	for key := range r.reactions {
		if key.messageID == messageID {
			r.nextID++
			out = append(out, models.Reaction{ID: r.nextID, MessageID: key.messageID, UserID: key.userID, Emoji: key.emoji})
		}
	}
	return out, nil
}

type stubProgramRepo struct {
	programs map[uuid.UUID]*models.Program
}

func newStubProgramRepo() *stubProgramRepo {
	return &stubProgramRepo{programs: make(map[uuid.UUID]*models.Program)}
}

func (r *stubProgramRepo) add(p models.Program) *models.Program {
	p.ID = uuid.New()
	p.IsActive = true
	r.programs[p.ID] = &p
	return &p
}

func (r *stubProgramRepo) List(_ context.Context, country string) ([]models.Program, error) {
	out := make([]models.Program, 0)
	for _, p := range r.programs {
		if p.IsActive && (country == "" || p.Country == country) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProgramRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Program, error) {
	return r.programs[id], nil
}

func (r *stubProgramRepo) Countries(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range r.programs {
		if p.IsActive && !seen[p.Country] {
			seen[p.Country] = true
			out = append(out, p.Country)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *stubProgramRepo) Create(_ context.Context, p models.Program) (*models.Program, error) {
	return r.add(p), nil
}

type stubApplicationRepo struct {
	applications map[uuid.UUID]*models.Application
}

func newStubApplicationRepo() *stubApplicationRepo {
	return &stubApplicationRepo{applications: make(map[uuid.UUID]*models.Application)}
}

func (r *stubApplicationRepo) Create(_ context.Context, userID, programID uuid.UUID, seed models.PersonalInfo) (*models.Application, error) {
	for _, a := range r.applications {
		if a.UserID == userID && a.ProgramID == programID {
			return nil, nil
		}
	}
	a := &models.Application{
		ID:           uuid.New(),
		UserID:       userID,
		ProgramID:    programID,
		Status:       models.StatusDraft,
		PersonalInfo: seed,
		CreatedAt:    time.Now(),
	}
	r.applications[a.ID] = a
	return a, nil
}

func (r *stubApplicationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	return r.applications[id], nil
}

func (r *stubApplicationRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Application, error) {
	out := make([]models.Application, 0)
	for _, a := range r.applications {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubApplicationRepo) ListAll(_ context.Context, status string) ([]models.Application, error) {
	out := make([]models.Application, 0)
	for _, a := range r.applications {
		if status == "" || a.Status == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubApplicationRepo) UpdatePersonalInfo(_ context.Context, id uuid.UUID, info models.PersonalInfo) error {
	if a, ok := r.applications[id]; ok {
		a.PersonalInfo = info
	}
	return nil
}

func (r *stubApplicationRepo) UpdateAcademicInfo(_ context.Context, id uuid.UUID, info models.AcademicInfo) error {
	if a, ok := r.applications[id]; ok {
		a.AcademicInfo = info
	}
	return nil
}

func (r *stubApplicationRepo) UpdateEssays(_ context.Context, id uuid.UUID, essays models.Essays) error {
	if a, ok := r.applications[id]; ok {
		a.Essays = essays
	}
	return nil
}

func (r *stubApplicationRepo) UpdateDocuments(_ context.Context, id uuid.UUID, docs models.Documents) error {
	if a, ok := r.applications[id]; ok {
		a.Documents = docs
	}
	return nil
}

func (r *stubApplicationRepo) Submit(_ context.Context, id uuid.UUID) (bool, error) {
	a, ok := r.applications[id]
	if !ok || a.Status != models.StatusDraft {
		return false, nil
	}
	now := time.Now()
	a.Status = models.StatusSubmitted
	a.SubmittedAt = &now
	return true, nil
}

func (r *stubApplicationRepo) UpdateStatus(_ context.Context, id uuid.UUID, status, reviewerNotes string) error {
	if a, ok := r.applications[id]; ok {
		now := time.Now()
		a.Status = status
		a.ReviewerNotes = reviewerNotes
		a.ReviewedAt = &now
	}
	return nil
}

type stubBlogRepo struct {
	blogs map[uuid.UUID]*models.Blog
}

func newStubBlogRepo() *stubBlogRepo {
	return &stubBlogRepo{blogs: make(map[uuid.UUID]*models.Blog)}
}

func (r *stubBlogRepo) ListPublished(_ context.Context, tag, search string, limit int) ([]models.Blog, error) {
	out := make([]models.Blog, 0)
	for _, b := range r.blogs {
		if b.IsPublished {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *stubBlogRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Blog, error) {
	return r.blogs[id], nil
}

func (r *stubBlogRepo) Tags(_ context.Context) ([]string, error) {
	return []string{}, nil
}

func (r *stubBlogRepo) ListByAuthor(_ context.Context, authorID uuid.UUID) ([]models.Blog, error) {
	out := make([]models.Blog, 0)
	for _, b := range r.blogs {
		if b.AuthorID == authorID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *stubBlogRepo) Create(_ context.Context, b models.Blog) (*models.Blog, error) {
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	r.blogs[b.ID] = &b
	return &b, nil
}

func (r *stubBlogRepo) Update(_ context.Context, b models.Blog) error {
	r.blogs[b.ID] = &b
	return nil
}

func (r *stubBlogRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.blogs, id)
	return nil
}

type stubWorkspaceRepo struct {
	workspaces map[uuid.UUID]*models.Workspace
	bySlug     map[string]*models.Workspace
}

func newStubWorkspaceRepo() *stubWorkspaceRepo {
	return &stubWorkspaceRepo{
		workspaces: make(map[uuid.UUID]*models.Workspace),
		bySlug:     make(map[string]*models.Workspace),
	}
}

func (r *stubWorkspaceRepo) Create(_ context.Context, name string, ownerID uuid.UUID) (*models.Workspace, error) {
	w := &models.Workspace{ID: uuid.New(), Name: name, OwnerID: ownerID, CreatedAt: time.Now()}
	r.workspaces[w.ID] = w
	return w, nil
}

func (r *stubWorkspaceRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Workspace, error) {
	return r.workspaces[id], nil
}

func (r *stubWorkspaceRepo) List(_ context.Context) ([]models.Workspace, error) {
	out := make([]models.Workspace, 0, len(r.workspaces))
	for _, w := range r.workspaces {
		out = append(out, *w)
	}
	return out, nil
}

func (r *stubWorkspaceRepo) EnsureDefault(_ context.Context, name, slug string, ownerID uuid.UUID) (*models.Workspace, error) {
	if w, ok := r.bySlug[slug]; ok {
		return w, nil
	}
	w := &models.Workspace{ID: uuid.New(), Name: name, Slug: &slug, OwnerID: ownerID, CreatedAt: time.Now()}
	r.workspaces[w.ID] = w
	r.bySlug[slug] = w
	return w, nil
}

type presenceKey struct {
	workspaceID uuid.UUID
	userID      uuid.UUID
}

type stubPresenceRepo struct {
	lastSeen map[presenceKey]time.Time
}

func newStubPresenceRepo() *stubPresenceRepo {
	return &stubPresenceRepo{lastSeen: make(map[presenceKey]time.Time)}
}

func (r *stubPresenceRepo) Heartbeat(_ context.Context, workspaceID, userID uuid.UUID) error {
	r.lastSeen[presenceKey{workspaceID, userID}] = time.Now()
	return nil
}

func (r *stubPresenceRepo) ListSince(_ context.Context, workspaceID uuid.UUID, since time.Time) ([]models.Presence, error) {
	out := make([]models.Presence, 0)
	for key, seen := range r.lastSeen {
		if key.workspaceID == workspaceID && seen.After(since) {
			out = append(out, models.Presence{WorkspaceID: key.workspaceID, UserID: key.userID, LastSeen: seen})
		}
	}
	return out, nil
}
