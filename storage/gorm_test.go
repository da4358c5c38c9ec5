package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/sparksblog/sparks/model"
	"github.com/sparksblog/sparks/utils"
	"github.com/sparksblog/sparks/utils/dotenv"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func seedIdea(t *testing.T, g *Gorm, id string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, g.InsertIdea(context.Background(), &model.Idea{
		Id:        id,
		Content:   "content of " + id,
		CreatedAt: createdAt,
	}))
}

func TestListRecentOrderingAndLimit(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	g := NewGorm(db)
	ctx := context.Background()

	base := time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 11; i++ {
		seedIdea(t, g, fmt.Sprintf("idea_%d", i), base.Add(time.Duration(i)*time.Minute))
	}
	// same timestamp as idea_10, higher cursor, must sort first
	seedIdea(t, g, "tie_breaker", base.Add(10*time.Minute))

	ideas, err := g.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 10, len(ideas))
	require.Equal(t, "tie_breaker", ideas[0].Id)
	require.Equal(t, "idea_10", ideas[1].Id)
	for i := 1; i < len(ideas); i++ {
		require.False(t, ideas[i].CreatedAt.After(ideas[i-1].CreatedAt))
	}
}

func TestInsertLikeIsIdempotent(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	g := NewGorm(db)
	ctx := context.Background()

	seedIdea(t, g, "idea_0", time.Now())

	require.NoError(t, g.InsertLike(ctx, "idea_0", "u1"))
	// duplicate insert from a stale snapshot must be a clean no-op
	require.NoError(t, g.InsertLike(ctx, "idea_0", "u1"))

	var count int64
	require.NoError(t, db.Model(&model.IdeaLike{}).Where("idea_id = ?", "idea_0").Count(&count).Error)
	require.Equal(t, int64(1), count)

	counts, err := g.LikeCounts(ctx, []string{"idea_0"})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"idea_0": 1}, counts)
}

func TestLikeAggregatesPerUser(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	g := NewGorm(db)
	ctx := context.Background()

	seedIdea(t, g, "idea_0", time.Now())
	seedIdea(t, g, "idea_1", time.Now())
	require.NoError(t, g.InsertLike(ctx, "idea_0", "u1"))
	require.NoError(t, g.InsertLike(ctx, "idea_0", "u2"))

	counts, err := g.LikeCounts(ctx, []string{"idea_0", "idea_1"})
	require.NoError(t, err)
	require.Equal(t, 2, counts["idea_0"])
	// no row at all for the unliked idea, callers default to zero
	_, ok := counts["idea_1"]
	require.False(t, ok)

	liked, err := g.LikedIDs(ctx, "u1", []string{"idea_0", "idea_1"})
	require.NoError(t, err)
	require.True(t, liked["idea_0"])
	require.False(t, liked["idea_1"])

	require.NoError(t, g.DeleteLike(ctx, "idea_0", "u1"))
	liked, err = g.LikedIDs(ctx, "u1", []string{"idea_0"})
	require.NoError(t, err)
	require.False(t, liked["idea_0"])
}

func TestSetStatus(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	g := NewGorm(db)
	ctx := context.Background()

	seedIdea(t, g, "idea_0", time.Now())

	require.NoError(t, g.SetStatus(ctx, "idea_0", model.StatusInProgress))
	var idea model.Idea
	require.NoError(t, db.Where("id = ?", "idea_0").First(&idea).Error)
	require.Equal(t, model.StatusInProgress, idea.Status)

	require.Error(t, g.SetStatus(ctx, "missing", model.StatusDone))
}

func TestUpsertByEmail(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	g := NewGorm(db)
	ctx := context.Background()

	first, err := g.UpsertByEmail(ctx, "u1@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, first.Id)

	second, err := g.UpsertByEmail(ctx, "u1@example.com")
	require.NoError(t, err)
	require.Equal(t, first.Id, second.Id)

	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
