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

type channelFixture struct {
	router      *gin.Engine
	channels    *stubChannelRepo
	members     *stubChannelMemberRepo
	memberships *stubMembershipRepo
	workspaceID uuid.UUID
}

func newChannelFixture(t *testing.T) *channelFixture {
	t.Helper()

	f := &channelFixture{
		channels:    newStubChannelRepo(),
		members:     newStubChannelMemberRepo(),
		memberships: newStubMembershipRepo(),
		workspaceID: uuid.New(),
	}

	handler := NewChannelHandler(f.channels, f.members, f.memberships, testLogger)
	f.router = newTestRouter()
	f.router.POST("/v1/workspaces/:id/channels", handler.Create)
	f.router.POST("/v1/workspaces/:id/dms", handler.CreateDM)
	f.router.POST("/v1/channels/:id/join", handler.Join)
	return f
}

func (f *channelFixture) join(t *testing.T, userID uuid.UUID) {
	t.Helper()
	require.NoError(t, f.memberships.Add(context.Background(), f.workspaceID, userID, []string{"member"}))
}

func TestDMKeyIsOrderIndependent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, dmKey(a, b), dmKey(b, a))
}

func TestDMCreateIsIdempotent(t *testing.T) {
	f := newChannelFixture(t)
	alice, bob := uuid.New(), uuid.New()
	f.join(t, alice)
	f.join(t, bob)

	w := doJSON(t, f.router, http.MethodPost, "/v1/workspaces/"+f.workspaceID.String()+"/dms", alice,
		gin.H{"user_id": bob})
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[models.Channel](t, w)
	assert.True(t, first.IsDM)
	assert.True(t, first.IsPrivate)
	assert.Equal(t, "Direct Message", first.Name)

	// Same pair from the other side lands on the same channel.
	w = doJSON(t, f.router, http.MethodPost, "/v1/workspaces/"+f.workspaceID.String()+"/dms", bob,
		gin.H{"user_id": alice})
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[models.Channel](t, w)
	assert.Equal(t, first.ID, second.ID)

	// Both users ended up as members.
	for _, id := range []uuid.UUID{alice, bob} {
		member, err := f.members.IsMember(context.Background(), first.ID, id)
		require.NoError(t, err)
		assert.True(t, member)
	}
}

func TestSelfDMIsRejected(t *testing.T) {
	f := newChannelFixture(t)
	alice := uuid.New()
	f.join(t, alice)

	w := doJSON(t, f.router, http.MethodPost, "/v1/workspaces/"+f.workspaceID.String()+"/dms", alice,
		gin.H{"user_id": alice})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChannelCreateRequiresWorkspaceMembership(t *testing.T) {
	f := newChannelFixture(t)
	outsider := uuid.New()

	w := doJSON(t, f.router, http.MethodPost, "/v1/workspaces/"+f.workspaceID.String()+"/channels", outsider,
		gin.H{"name": "random"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChannelCreatorJoinsAutomatically(t *testing.T) {
	f := newChannelFixture(t)
	alice := uuid.New()
	f.join(t, alice)

	w := doJSON(t, f.router, http.MethodPost, "/v1/workspaces/"+f.workspaceID.String()+"/channels", alice,
		gin.H{"name": "random", "is_private": true})
	require.Equal(t, http.StatusCreated, w.Code)
	ch := decode[models.Channel](t, w)

	member, err := f.members.IsMember(context.Background(), ch.ID, alice)
	require.NoError(t, err)
	assert.True(t, member)
}

func TestCannotJoinPrivateOrDMChannels(t *testing.T) {
	f := newChannelFixture(t)
	alice, bob, eve := uuid.New(), uuid.New(), uuid.New()
	f.join(t, alice)
	f.join(t, bob)

	private, err := f.channels.Create(context.Background(), f.workspaceID, "secret", true, alice)
	require.NoError(t, err)
	dm, err := f.channels.EnsureDM(context.Background(), f.workspaceID, dmKey(alice, bob), alice)
	require.NoError(t, err)

	w := doJSON(t, f.router, http.MethodPost, "/v1/channels/"+private.ID.String()+"/join", eve, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, f.router, http.MethodPost, "/v1/channels/"+dm.ID.String()+"/join", eve, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	public, err := f.channels.Create(context.Background(), f.workspaceID, "open", false, alice)
	require.NoError(t, err)
	w = doJSON(t, f.router, http.MethodPost, "/v1/channels/"+public.ID.String()+"/join", eve, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
