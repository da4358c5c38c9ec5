package model

import (
	"time"
)

/*

IdeaLike is a "many-to-many" relation of user likes an idea

IdeaID: idea id
UserID: user id
CreatedAt: time when relation is created

The composite primary key doubles as the uniqueness constraint: at most one
row may exist per (idea, user) pair. Liking is idempotent per user per idea,
a duplicate insert must be a clean no-op at the storage layer.

*/

type IdeaLike struct {
	IdeaID    string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey"`
	CreatedAt time.Time
}
