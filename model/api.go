package model

import "time"

// FeedIdea is the read model served to viewers: an Idea joined with its like
// aggregate for the current session. LikesCount and UserLiked are derived on
// every reload and never stored.
type FeedIdea struct {
	Id         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Content    string    `json:"content"`
	Status     int       `json:"status"`
	AuthorID   *string   `json:"authorId"`
	LikesCount int       `json:"likesCount"`
	UserLiked  bool      `json:"userLiked"`
}

type NewIdeaInput struct {
	Content string `json:"content"`
	Status  int    `json:"status"`
}

// ToggleLikeInput carries the caller's last-known liked state for the idea.
// The server issues the inverse operation, it does not re-fetch first.
type ToggleLikeInput struct {
	Liked bool `json:"liked"`
}

// SetStatusInput carries the caller's last-known status, the server flips it.
type SetStatusInput struct {
	Status int `json:"status"`
}

type SignInInput struct {
	Email string `json:"email"`
}
