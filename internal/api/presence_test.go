package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/fellowsabroad/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type presenceFixture struct {
	router   *gin.Engine
	presence *stubPresenceRepo
	users    *stubUserRepo
}

func newPresenceFixture(t *testing.T) *presenceFixture {
	t.Helper()

	f := &presenceFixture{
		presence: newStubPresenceRepo(),
		users:    newStubUserRepo(),
	}

	handler := NewPresenceHandler(f.presence, f.users, testLogger)
	f.router = newTestRouter()
	f.router.POST("/v1/chat/presence", handler.Heartbeat)
	f.router.GET("/v1/chat/presence", handler.Online)
	return f
}

func (f *presenceFixture) online(t *testing.T, workspaceID uuid.UUID) []models.UserSummary {
	t.Helper()
	w := doJSON(t, f.router, http.MethodGet, "/v1/chat/presence?workspace_id="+workspaceID.String(), uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	return decode[[]models.UserSummary](t, w)
}

func TestHeartbeatMakesUserOnline(t *testing.T) {
	f := newPresenceFixture(t)
	workspaceID := uuid.New()
	user := f.users.add("a@example.com")

	require.Empty(t, f.online(t, workspaceID))

	w := doJSON(t, f.router, http.MethodPost, "/v1/chat/presence", user.ID,
		gin.H{"workspace_id": workspaceID})
	require.Equal(t, http.StatusOK, w.Code)

	online := f.online(t, workspaceID)
	require.Len(t, online, 1)
	assert.Equal(t, user.ID, online[0].ID)
	assert.Equal(t, "a@example.com", online[0].Name)
}

func TestStaleHeartbeatFallsOutOfTheOnlineList(t *testing.T) {
	f := newPresenceFixture(t)
	workspaceID := uuid.New()
	fresh := f.users.add("fresh@example.com")
	stale := f.users.add("stale@example.com")

	for _, u := range []uuid.UUID{fresh.ID, stale.ID} {
		w := doJSON(t, f.router, http.MethodPost, "/v1/chat/presence", u,
			gin.H{"workspace_id": workspaceID})
		require.Equal(t, http.StatusOK, w.Code)
	}

	// Age one heartbeat past the 5-minute window.
	f.presence.lastSeen[presenceKey{workspaceID, stale.ID}] = time.Now().Add(-6 * time.Minute)

	online := f.online(t, workspaceID)
	require.Len(t, online, 1)
	assert.Equal(t, fresh.ID, online[0].ID)
}

func TestRepeatedHeartbeatsUpsertASingleRow(t *testing.T) {
	f := newPresenceFixture(t)
	workspaceID := uuid.New()
	user := f.users.add("a@example.com")

	for i := 0; i < 3; i++ {
		w := doJSON(t, f.router, http.MethodPost, "/v1/chat/presence", user.ID,
			gin.H{"workspace_id": workspaceID})
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Len(t, f.presence.lastSeen, 1)
	assert.Len(t, f.online(t, workspaceID), 1)
}
