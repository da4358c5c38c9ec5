// Package storage implements the row-oriented collaborators on Postgres
// through gorm: the feed.Storage queries and the auth.UserDirectory upsert.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sparksblog/sparks/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) ListRecent(ctx context.Context, limit int) ([]model.Idea, error) {
	var ideas []model.Idea
	result := g.db.WithContext(ctx).
		Model(&model.Idea{}).
		Order("created_at desc, cursor desc").
		Limit(limit).
		Find(&ideas)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "fail to list recent ideas")
	}
	return ideas, nil
}

func (g *Gorm) LikeCounts(ctx context.Context, ideaIDs []string) (map[string]int, error) {
	var rows []struct {
		IdeaID string
		Count  int
	}
	result := g.db.WithContext(ctx).
		Model(&model.IdeaLike{}).
		Select("idea_id, count(*) as count").
		Where("idea_id IN ?", ideaIDs).
		Group("idea_id").
		Find(&rows)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "fail to count likes")
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.IdeaID] = row.Count
	}
	return counts, nil
}

func (g *Gorm) LikedIDs(ctx context.Context, userID string, ideaIDs []string) (map[string]bool, error) {
	var likes []model.IdeaLike
	result := g.db.WithContext(ctx).
		Where("user_id = ? AND idea_id IN ?", userID, ideaIDs).
		Find(&likes)
	if result.Error != nil {
		return nil, errors.Wrapf(result.Error, "fail to fetch likes of user %s", userID)
	}

	liked := make(map[string]bool, len(likes))
	for _, like := range likes {
		liked[like.IdeaID] = true
	}
	return liked, nil
}

func (g *Gorm) InsertIdea(ctx context.Context, idea *model.Idea) error {
	result := g.db.WithContext(ctx).Create(idea)
	return errors.Wrap(result.Error, "fail to insert idea")
}

// InsertLike relies on the composite primary key of idea_likes: inserting an
// already liked pair hits ON CONFLICT DO NOTHING and succeeds without a
// second row, which keeps rapid double-toggles benign.
func (g *Gorm) InsertLike(ctx context.Context, ideaID string, userID string) error {
	like := model.IdeaLike{IdeaID: ideaID, UserID: userID, CreatedAt: time.Now()}
	result := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like)
	return errors.Wrap(result.Error, "fail to insert like")
}

func (g *Gorm) DeleteLike(ctx context.Context, ideaID string, userID string) error {
	result := g.db.WithContext(ctx).
		Where("idea_id = ? AND user_id = ?", ideaID, userID).
		Delete(&model.IdeaLike{})
	return errors.Wrap(result.Error, "fail to delete like")
}

func (g *Gorm) SetStatus(ctx context.Context, ideaID string, status int) error {
	result := g.db.WithContext(ctx).
		Model(&model.Idea{}).
		Where("id = ?", ideaID).
		Update("status", status)
	if result.Error != nil {
		return errors.Wrap(result.Error, "fail to set status")
	}
	if result.RowsAffected != 1 {
		return errors.Errorf("idea %s not found", ideaID)
	}
	return nil
}

// UpsertByEmail returns the user row for email, creating it on first
// sign-in. The unique index on email keeps concurrent first sign-ins from
// creating two rows.
func (g *Gorm) UpsertByEmail(ctx context.Context, email string) (*model.User, error) {
	user := model.User{
		Id:        uuid.New().String(),
		Email:     email,
		CreatedAt: time.Now(),
	}
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).Create(&user).Error; err != nil {
			return err
		}
		// re-read so the conflicting (pre-existing) row wins
		return tx.Where("email = ?", email).First(&user).Error
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fail to upsert user for %s", email)
	}
	return &user, nil
}
