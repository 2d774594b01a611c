package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/fellowsabroad/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workspaceFixture struct {
	router      *gin.Engine
	workspaces  *stubWorkspaceRepo
	memberships *stubMembershipRepo
	channels    *stubChannelRepo
	members     *stubChannelMemberRepo
}

func newWorkspaceFixture(t *testing.T) *workspaceFixture {
	t.Helper()

	f := &workspaceFixture{
		workspaces:  newStubWorkspaceRepo(),
		memberships: newStubMembershipRepo(),
		channels:    newStubChannelRepo(),
		members:     newStubChannelMemberRepo(),
	}

	handler := NewWorkspaceHandler(f.workspaces, f.memberships, f.channels, f.members, testLogger)
	f.router = newTestRouter()
	f.router.POST("/v1/chat/bootstrap", handler.Bootstrap)
	f.router.POST("/v1/workspaces", handler.Create)
	f.router.POST("/v1/workspaces/:id/join", handler.Join)
	return f
}

type bootstrapResponse struct {
	Workspace models.Workspace `json:"workspace"`
	Channel   models.Channel   `json:"channel"`
}

func TestBootstrapTwiceLandsOnTheSameRows(t *testing.T) {
	f := newWorkspaceFixture(t)
	user := uuid.New()

	w := doJSON(t, f.router, http.MethodPost, "/v1/chat/bootstrap", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[bootstrapResponse](t, w)
	assert.Equal(t, "General", first.Workspace.Name)
	assert.Equal(t, "general", first.Channel.Name)

	w = doJSON(t, f.router, http.MethodPost, "/v1/chat/bootstrap", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[bootstrapResponse](t, w)

	assert.Equal(t, first.Workspace.ID, second.Workspace.ID)
	assert.Equal(t, first.Channel.ID, second.Channel.ID)

	// No duplicate workspace, channel, or membership rows.
	assert.Len(t, f.workspaces.workspaces, 1)
	channels, err := f.channels.ListByWorkspace(context.Background(), first.Workspace.ID)
	require.NoError(t, err)
	assert.Len(t, channels, 1)
	memberships, err := f.memberships.ListByWorkspace(context.Background(), first.Workspace.ID)
	require.NoError(t, err)
	assert.Len(t, memberships, 1)
}

func TestBootstrapSharesTheDefaultWorkspaceAcrossUsers(t *testing.T) {
	f := newWorkspaceFixture(t)
	alice, bob := uuid.New(), uuid.New()

	w := doJSON(t, f.router, http.MethodPost, "/v1/chat/bootstrap", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[bootstrapResponse](t, w)

	w = doJSON(t, f.router, http.MethodPost, "/v1/chat/bootstrap", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[bootstrapResponse](t, w)

	assert.Equal(t, first.Workspace.ID, second.Workspace.ID)
	assert.Equal(t, first.Channel.ID, second.Channel.ID)

	memberships, err := f.memberships.ListByWorkspace(context.Background(), first.Workspace.ID)
	require.NoError(t, err)
	assert.Len(t, memberships, 2)
}

func TestWorkspaceCreatorBecomesOwnerMember(t *testing.T) {
	f := newWorkspaceFixture(t)
	user := uuid.New()

	w := doJSON(t, f.router, http.MethodPost, "/v1/workspaces", user, gin.H{"name": "Design"})
	require.Equal(t, http.StatusCreated, w.Code)
	ws := decode[models.Workspace](t, w)

	member, err := f.memberships.IsMember(context.Background(), ws.ID, user)
	require.NoError(t, err)
	assert.True(t, member)
}

func TestJoinMissingWorkspaceIs404(t *testing.T) {
	f := newWorkspaceFixture(t)

	w := doJSON(t, f.router, http.MethodPost, "/v1/workspaces/"+uuid.NewString()+"/join", uuid.New(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
