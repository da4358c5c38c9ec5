package model

import (
	"time"

	"gorm.io/gorm"
)

// Idea status values. The board is binary on purpose: an idea is either
// still being worked on or considered done.
const (
	StatusDone       = 0
	StatusInProgress = 1
)

/*

Idea is a single note posted to the board

Id: primary key, server assigned
CreatedAt: time when entity is created, immutable after insert
DeletedAt: time when entity is deleted

Content: idea's text in plain text, non-empty after trimming
Status: binary flag, StatusDone (0) or StatusInProgress (1), default done
AuthorID: user who posted the idea, nullable because rows created before
	sign-in was mandatory have no author

Cursor: The auto-inc global-unique index to keep the relative order of ideas.
	Used as the tie breaker when two ideas carry the same CreatedAt.
*/

type Idea struct {
	Id        string         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `json:"-"`
	Content   string         `json:"content"`
	Status    int            `gorm:"default:0" json:"status"`
	AuthorID  *string        `json:"authorId"`
	Cursor    int32          `gorm:"autoIncrement" json:"-"`
}
