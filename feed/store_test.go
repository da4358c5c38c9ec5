package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sparksblog/sparks/model"
	"github.com/stretchr/testify/require"
)

func testSession(userID string) *model.Session {
	return &model.Session{UserID: userID, Email: userID + "@example.com"}
}

func seedIdeas(storage *FakeStorage, n int, base time.Time) {
	for i := 0; i < n; i++ {
		storage.AddIdea(model.Idea{
			Id:        fmt.Sprintf("idea_%d", i),
			Content:   fmt.Sprintf("idea number %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
}

func TestReloadOrdering(t *testing.T) {
	storage := NewFakeStorage()
	base := time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC)
	seedIdeas(storage, 3, base)
	// two ideas sharing the same timestamp, cursor breaks the tie
	storage.AddIdea(model.Idea{Id: "tied_a", Content: "first of tie", CreatedAt: base.Add(time.Hour)})
	storage.AddIdea(model.Idea{Id: "tied_b", Content: "second of tie", CreatedAt: base.Add(time.Hour)})

	store := NewStore(storage, Config{})
	require.NoError(t, store.Reload(context.Background(), nil))

	snapshot := store.Snapshot()
	require.Equal(t, 5, len(snapshot))
	require.Equal(t, "tied_b", snapshot[0].Id)
	require.Equal(t, "tied_a", snapshot[1].Id)
	require.Equal(t, "idea_2", snapshot[2].Id)
	require.Equal(t, "idea_1", snapshot[3].Id)
	require.Equal(t, "idea_0", snapshot[4].Id)
}

func TestReloadBoundedWindow(t *testing.T) {
	storage := NewFakeStorage()
	seedIdeas(storage, 11, time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC))

	store := NewStore(storage, Config{})
	require.NoError(t, store.Reload(context.Background(), nil))

	snapshot := store.Snapshot()
	require.Equal(t, 10, len(snapshot))
	// the oldest of the 11 is the one dropped
	for _, item := range snapshot {
		require.NotEqual(t, "idea_0", item.Id)
	}
}

func TestReloadJoinsLikeAggregates(t *testing.T) {
	ctx := context.Background()
	storage := NewFakeStorage()
	seedIdeas(storage, 2, time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, storage.InsertLike(ctx, "idea_0", "u1"))
	require.NoError(t, storage.InsertLike(ctx, "idea_0", "u2"))

	store := NewStore(storage, Config{})
	require.NoError(t, store.Reload(ctx, testSession("u1")))

	snapshot := store.Snapshot()
	require.Equal(t, 2, len(snapshot))
	// idea_1 is newer and has no likes: missing join matches default to zero/false
	require.Equal(t, "idea_1", snapshot[0].Id)
	require.Equal(t, 0, snapshot[0].LikesCount)
	require.False(t, snapshot[0].UserLiked)
	require.Equal(t, "idea_0", snapshot[1].Id)
	require.Equal(t, 2, snapshot[1].LikesCount)
	require.True(t, snapshot[1].UserLiked)

	// the other user sees the same count but not their own like
	require.NoError(t, store.Reload(ctx, testSession("u3")))
	snapshot = store.Snapshot()
	require.Equal(t, 2, snapshot[1].LikesCount)
	require.False(t, snapshot[1].UserLiked)
}

func TestReloadAnonymousSkipsLikedFetch(t *testing.T) {
	storage := NewFakeStorage()
	seedIdeas(storage, 2, time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC))

	store := NewStore(storage, Config{})
	require.NoError(t, store.Reload(context.Background(), nil))
	require.Equal(t, 0, storage.LikedIDsCalls)

	for _, item := range store.Snapshot() {
		require.False(t, item.UserLiked)
	}
}

func TestReloadFailureKeepsPreviousSnapshot(t *testing.T) {
	storage := NewFakeStorage()
	seedIdeas(storage, 3, time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC))

	store := NewStore(storage, Config{ReloadRetries: -1})
	require.NoError(t, store.Reload(context.Background(), nil))
	before := store.Snapshot()

	storage.AddIdea(model.Idea{Id: "unseen", Content: "added later", CreatedAt: time.Now()})
	storage.FailReads = 1
	require.Error(t, store.Reload(context.Background(), nil))

	// stale but consistent: the previous window is still served
	require.Equal(t, before, store.Snapshot())
}

func TestReloadRetriesTransientReadFailure(t *testing.T) {
	storage := NewFakeStorage()
	seedIdeas(storage, 1, time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC))
	storage.FailReads = 2

	store := NewStore(storage, Config{ReloadRetries: 2, RetryBackoff: time.Millisecond})
	require.NoError(t, store.Reload(context.Background(), nil))
	require.Equal(t, 1, len(store.Snapshot()))
}

func TestStaleReloadResultDiscarded(t *testing.T) {
	storage := NewFakeStorage()
	store := NewStore(storage, Config{})

	older := store.begin()
	newer := store.begin()

	fresh := []model.FeedIdea{{Id: "fresh"}}
	require.True(t, store.commit(newer, fresh))

	// the result of the reload that started first arrives last and loses
	require.False(t, store.commit(older, []model.FeedIdea{{Id: "stale"}}))
	require.Equal(t, fresh, store.Snapshot())
}

func TestUserLikedFallsBackToFalse(t *testing.T) {
	storage := NewFakeStorage()
	store := NewStore(storage, Config{})
	require.False(t, store.UserLiked("never_seen"))
}
