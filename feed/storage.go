package feed

import (
	"context"
	"time"

	"github.com/sparksblog/sparks/model"
)

// Storage is the row-oriented collaborator every feed component talks to.
// The production implementation lives in the storage package and is backed
// by Postgres; tests use FakeStorage.
type Storage interface {
	// ListRecent returns up to limit ideas ordered by created_at descending,
	// ties broken by cursor descending.
	ListRecent(ctx context.Context, limit int) ([]model.Idea, error)

	// LikeCounts returns the number of like rows per idea id. Ideas with no
	// likes may be absent from the result.
	LikeCounts(ctx context.Context, ideaIDs []string) (map[string]int, error)

	// LikedIDs returns, out of ideaIDs, the ones userID has liked.
	LikedIDs(ctx context.Context, userID string, ideaIDs []string) (map[string]bool, error)

	InsertIdea(ctx context.Context, idea *model.Idea) error

	// InsertLike is idempotent: inserting an already existing (idea, user)
	// pair must succeed without creating a second row.
	InsertLike(ctx context.Context, ideaID string, userID string) error

	DeleteLike(ctx context.Context, ideaID string, userID string) error

	SetStatus(ctx context.Context, ideaID string, status int) error
}

// Config tunes the feed components. Zero values fall back to defaults, except
// MaxIdeaLen where zero means no length cap.
type Config struct {
	// Limit is the feed window size, the number of most recent ideas kept
	// client side.
	Limit int

	// MaxIdeaLen caps idea content length in runes. 0 disables the cap.
	MaxIdeaLen int

	// ReloadRetries is how many times a failed reload read is retried before
	// giving up. Mutations are never retried. Negative disables retries.
	ReloadRetries int

	// RetryBackoff is the wait between reload retries.
	RetryBackoff time.Duration
}

const (
	defaultFeedLimit     = 10
	defaultReloadRetries = 2
	defaultRetryBackoff  = 50 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.Limit <= 0 {
		c.Limit = defaultFeedLimit
	}
	if c.ReloadRetries == 0 {
		c.ReloadRetries = defaultReloadRetries
	} else if c.ReloadRetries < 0 {
		c.ReloadRetries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	return c
}
