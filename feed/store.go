package feed

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sparksblog/sparks/model"
	Logger "github.com/sparksblog/sparks/utils/log"
)

// Store holds one viewer's materialized feed window. Reload replaces the
// whole snapshot atomically, partial views are never observable. A failed
// reload leaves the previous snapshot untouched.
type Store struct {
	storage Storage
	config  Config

	mu       sync.Mutex
	snapshot []model.FeedIdea
	// generation counts started reloads. A reload whose result arrives after
	// a newer reload has started is discarded, so two overlapping reloads can
	// never regress the snapshot to an older view.
	generation uint64
}

func NewStore(storage Storage, config Config) *Store {
	return &Store{
		storage: storage,
		config:  config.withDefaults(),
	}
}

// Snapshot returns a copy of the current feed window.
func (s *Store) Snapshot() []model.FeedIdea {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.FeedIdea, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// UserLiked reports whether the idea is liked in the last-known snapshot.
// Ideas not in the snapshot count as not liked.
func (s *Store) UserLiked(ideaID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.snapshot {
		if s.snapshot[i].Id == ideaID {
			return s.snapshot[i].UserLiked
		}
	}
	return false
}

// Reload fetches a fresh feed window for the given session and swaps it in.
// Reads are retried per config, the snapshot is only replaced on full
// success and only if no newer reload has been started in the meantime.
func (s *Store) Reload(ctx context.Context, session *model.Session) error {
	generation := s.begin()

	var (
		items []model.FeedIdea
		err   error
	)
	for attempt := 0; attempt <= s.config.ReloadRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "feed reload canceled")
			case <-time.After(s.config.RetryBackoff):
			}
			Logger.Log.Info("retrying feed reload, attempt ", attempt)
		}
		items, err = s.load(ctx, session)
		if err == nil {
			break
		}
	}
	if err != nil {
		Logger.Log.Error("feed reload failed, keeping previous snapshot: ", err)
		return err
	}

	s.commit(generation, items)
	return nil
}

// begin marks the start of a reload and returns its generation.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// commit installs a reload result unless a newer reload has started since,
// in which case the stale result is discarded.
func (s *Store) commit(generation uint64, items []model.FeedIdea) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	s.snapshot = items
	return true
}

func (s *Store) load(ctx context.Context, session *model.Session) ([]model.FeedIdea, error) {
	ideas, err := s.storage.ListRecent(ctx, s.config.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "fail to list recent ideas")
	}

	ids := make([]string, 0, len(ideas))
	for i := range ideas {
		ids = append(ids, ideas[i].Id)
	}

	counts := map[string]int{}
	liked := map[string]bool{}
	if len(ids) > 0 {
		counts, err = s.storage.LikeCounts(ctx, ids)
		if err != nil {
			return nil, errors.Wrap(err, "fail to count likes")
		}
		if session != nil {
			liked, err = s.storage.LikedIDs(ctx, session.UserID, ids)
			if err != nil {
				return nil, errors.Wrapf(err, "fail to fetch liked ideas for user %s", session.UserID)
			}
		}
	}

	return assemble(ideas, counts, liked), nil
}
