package model

// Session holds the authenticated identity. A nil *Session means anonymous.
// Lifecycle is owned by the auth service; everything else only observes
// transitions.
type Session struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}
