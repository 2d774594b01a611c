package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/fellowsabroad/backend/internal/models"
	"github.com/fellowsabroad/backend/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageFixture struct {
	router   *gin.Engine
	handler  *MessageHandler
	channels *stubChannelRepo
	members  *stubChannelMemberRepo
	messages *stubMessageRepo
	users    *stubUserRepo
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()

	f := &messageFixture{
		channels: newStubChannelRepo(),
		members:  newStubChannelMemberRepo(),
		messages: newStubMessageRepo(),
		users:    newStubUserRepo(),
	}

	hub := ws.NewHub()
	go hub.Run()

	f.handler = NewMessageHandler(f.messages, f.channels, f.members, newStubFileRepo(), f.users, hub, testLogger)

	f.router = newTestRouter()
	f.router.POST("/v1/channels/:id/messages", f.handler.Create)
	f.router.GET("/v1/channels/:id/messages", f.handler.List)
	f.router.GET("/v1/channels/:id/users", f.handler.ChannelUsers)
	f.router.PUT("/v1/messages/:id", f.handler.Update)
	f.router.DELETE("/v1/messages/:id", f.handler.Delete)
	return f
}

func (f *messageFixture) publicChannel(t *testing.T) *models.Channel {
	t.Helper()
	ch, err := f.channels.Create(context.Background(), uuid.New(), "random", false, uuid.New())
	require.NoError(t, err)
	return ch
}

func TestMessagesComeBackInSendOrder(t *testing.T) {
	f := newMessageFixture(t)
	ch := f.publicChannel(t)
	author := f.users.add("a@example.com")

	for i := 1; i <= 3; i++ {
		w := doJSON(t, f.router, http.MethodPost, "/v1/channels/"+ch.ID.String()+"/messages", author.ID,
			gin.H{"text": fmt.Sprintf("message %d", i)})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, f.router, http.MethodGet, "/v1/channels/"+ch.ID.String()+"/messages", author.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[[]models.Message](t, w)
	require.Len(t, got, 3)
	assert.Equal(t, "message 1", got[0].Text)
	assert.Equal(t, "message 2", got[1].Text)
	assert.Equal(t, "message 3", got[2].Text)
}

func TestDeletedMessageStaysInTheList(t *testing.T) {
	f := newMessageFixture(t)
	ch := f.publicChannel(t)
	author := f.users.add("a@example.com")

	w := doJSON(t, f.router, http.MethodPost, "/v1/channels/"+ch.ID.String()+"/messages", author.ID,
		gin.H{"text": "soon gone"})
	require.Equal(t, http.StatusCreated, w.Code)
	msg := decode[models.Message](t, w)

	w = doJSON(t, f.router, http.MethodDelete, fmt.Sprintf("/v1/messages/%d", msg.ID), author.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, f.router, http.MethodGet, "/v1/channels/"+ch.ID.String()+"/messages", author.ID, nil)
	got := decode[[]models.Message](t, w)
	require.Len(t, got, 1)
	assert.True(t, got[0].Deleted)
	assert.Equal(t, "soon gone", got[0].Text)
}

func TestOnlyTheAuthorCanEditOrDelete(t *testing.T) {
	f := newMessageFixture(t)
	ch := f.publicChannel(t)
	author := f.users.add("a@example.com")
	other := f.users.add("b@example.com")

	w := doJSON(t, f.router, http.MethodPost, "/v1/channels/"+ch.ID.String()+"/messages", author.ID,
		gin.H{"text": "mine"})
	msg := decode[models.Message](t, w)

	w = doJSON(t, f.router, http.MethodPut, fmt.Sprintf("/v1/messages/%d", msg.ID), other.ID,
		gin.H{"text": "hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, f.router, http.MethodDelete, fmt.Sprintf("/v1/messages/%d", msg.ID), other.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, f.router, http.MethodPut, fmt.Sprintf("/v1/messages/%d", msg.ID), author.ID,
		gin.H{"text": "edited"})
	require.Equal(t, http.StatusOK, w.Code)
	edited := decode[models.Message](t, w)
	assert.Equal(t, "edited", edited.Text)
	assert.NotNil(t, edited.EditedAt)
}

func TestPrivateChannelRequiresMembership(t *testing.T) {
	f := newMessageFixture(t)
	owner := f.users.add("owner@example.com")
	outsider := f.users.add("outsider@example.com")

	ch, err := f.channels.Create(context.Background(), uuid.New(), "secret", true, owner.ID)
	require.NoError(t, err)
	require.NoError(t, f.members.Add(context.Background(), ch.ID, owner.ID))

	w := doJSON(t, f.router, http.MethodPost, "/v1/channels/"+ch.ID.String()+"/messages", outsider.ID,
		gin.H{"text": "let me in"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, f.router, http.MethodGet, "/v1/channels/"+ch.ID.String()+"/messages", outsider.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, f.router, http.MethodPost, "/v1/channels/"+ch.ID.String()+"/messages", owner.ID,
		gin.H{"text": "members only"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRepliesFilterByParent(t *testing.T) {
	f := newMessageFixture(t)
	ch := f.publicChannel(t)
	author := f.users.add("a@example.com")

	w := doJSON(t, f.router, http.MethodPost, "/v1/channels/"+ch.ID.String()+"/messages", author.ID,
		gin.H{"text": "root"})
	root := decode[models.Message](t, w)

	doJSON(t, f.router, http.MethodPost, "/v1/channels/"+ch.ID.String()+"/messages", author.ID,
		gin.H{"text": "reply", "parent_id": root.ID})
	doJSON(t, f.router, http.MethodPost, "/v1/channels/"+ch.ID.String()+"/messages", author.ID,
		gin.H{"text": "unrelated"})

	w = doJSON(t, f.router, http.MethodGet,
		fmt.Sprintf("/v1/channels/%s/messages?parent_id=%d", ch.ID, root.ID), author.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	replies := decode[[]models.Message](t, w)
	require.Len(t, replies, 1)
	assert.Equal(t, "reply", replies[0].Text)
}

func TestCannotReplyToAReply(t *testing.T) {
	f := newMessageFixture(t)
	ch := f.publicChannel(t)
	author := f.users.add("a@example.com")

	w := doJSON(t, f.router, http.MethodPost, "/v1/channels/"+ch.ID.String()+"/messages", author.ID,
		gin.H{"text": "root"})
	root := decode[models.Message](t, w)

	w = doJSON(t, f.router, http.MethodPost, "/v1/channels/"+ch.ID.String()+"/messages", author.ID,
		gin.H{"text": "reply", "parent_id": root.ID})
	reply := decode[models.Message](t, w)

	w = doJSON(t, f.router, http.MethodPost, "/v1/channels/"+ch.ID.String()+"/messages", author.ID,
		gin.H{"text": "nested", "parent_id": reply.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChannelUsersListsDistinctAuthors(t *testing.T) {
	f := newMessageFixture(t)
	ch := f.publicChannel(t)
	a := f.users.add("a@example.com")
	b := f.users.add("b@example.com")

	for _, id := range []uuid.UUID{a.ID, a.ID, b.ID} {
		doJSON(t, f.router, http.MethodPost, "/v1/channels/"+ch.ID.String()+"/messages", id,
			gin.H{"text": "hi"})
	}

	w := doJSON(t, f.router, http.MethodGet, "/v1/channels/"+ch.ID.String()+"/users", a.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	roster := decode[map[string]models.UserSummary](t, w)
	require.Len(t, roster, 2)
	assert.Equal(t, "a@example.com", roster[a.ID.String()].Name)
}

func TestMessageToMissingChannelIs404(t *testing.T) {
	f := newMessageFixture(t)
	author := f.users.add("a@example.com")

	w := doJSON(t, f.router, http.MethodPost, "/v1/channels/"+uuid.NewString()+"/messages", author.ID,
		gin.H{"text": "hello?"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
