package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sparksblog/sparks/model"
	"github.com/stretchr/testify/require"
)

func dialLive(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestLiveFeedPushesSnapshotOnConnect(t *testing.T) {
	env := newTestEnv(t)
	env.storage.AddIdea(model.Idea{Id: "idea_0", Content: "already there", CreatedAt: time.Now()})

	conn := dialLive(t, env)

	var snapshot []model.FeedIdea
	require.NoError(t, conn.ReadJSON(&snapshot))
	require.Equal(t, 1, len(snapshot))
	require.Equal(t, "idea_0", snapshot[0].Id)
}

func TestLiveFeedPushesOnIdeaMutation(t *testing.T) {
	env := newTestEnv(t)
	conn := dialLive(t, env)

	var snapshot []model.FeedIdea
	require.NoError(t, conn.ReadJSON(&snapshot))
	require.Equal(t, 0, len(snapshot))

	// the initial frame guarantees the connection subscribed before we publish
	env.storage.AddIdea(model.Idea{Id: "idea_0", Content: "fresh", CreatedAt: time.Now()})
	env.deps.Bus.PublishIdeaMutated("idea_0")

	require.NoError(t, conn.ReadJSON(&snapshot))
	require.Equal(t, 1, len(snapshot))
	require.Equal(t, "fresh", snapshot[0].Content)
}

func TestLiveFeedPushesOnSessionTransition(t *testing.T) {
	env := newTestEnv(t)
	env.storage.AddIdea(model.Idea{Id: "idea_0", Content: "hello", CreatedAt: time.Now()})

	conn := dialLive(t, env)
	var snapshot []model.FeedIdea
	require.NoError(t, conn.ReadJSON(&snapshot))

	env.service.Holder().Publish(&model.Session{UserID: "u1", Email: "u1@example.com"})

	require.NoError(t, conn.ReadJSON(&snapshot))
	require.Equal(t, 1, len(snapshot))
}
