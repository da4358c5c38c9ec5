package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sparksblog/sparks/model"
)

// FakeStorage is an in-memory Storage used in tests across packages. It
// honors the same contract as the Postgres implementation: ordered listing,
// idempotent like insert, like rows keyed by the (idea, user) pair.
type FakeStorage struct {
	mu         sync.Mutex
	ideas      []model.Idea
	likes      map[string]map[string]bool
	nextCursor int32

	// FailReads makes the next N read calls fail, FailWrites the next N
	// write calls. Used to exercise the error paths.
	FailReads  int
	FailWrites int

	// ReadGate, when set, blocks every ListRecent until the gate receives a
	// value. Lets tests interleave overlapping reloads deterministically.
	ReadGate chan struct{}

	InsertIdeaCalls int
	LikedIDsCalls   int
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{likes: map[string]map[string]bool{}}
}

var errFakeStorage = errors.New("fake storage failure")

// AddIdea seeds an idea directly, assigning the server-side cursor.
func (f *FakeStorage) AddIdea(idea model.Idea) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCursor++
	idea.Cursor = f.nextCursor
	f.ideas = append(f.ideas, idea)
}

// LikeRows returns the number of like rows stored for an idea.
func (f *FakeStorage) LikeRows(ideaID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.likes[ideaID])
}

func (f *FakeStorage) failRead() bool {
	if f.FailReads > 0 {
		f.FailReads--
		return true
	}
	return false
}

func (f *FakeStorage) failWrite() bool {
	if f.FailWrites > 0 {
		f.FailWrites--
		return true
	}
	return false
}

func (f *FakeStorage) ListRecent(ctx context.Context, limit int) ([]model.Idea, error) {
	if f.ReadGate != nil {
		select {
		case <-f.ReadGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead() {
		return nil, errFakeStorage
	}

	out := make([]model.Idea, len(f.ideas))
	copy(out, f.ideas)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Cursor > out[j].Cursor
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeStorage) LikeCounts(ctx context.Context, ideaIDs []string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead() {
		return nil, errFakeStorage
	}

	counts := map[string]int{}
	for _, id := range ideaIDs {
		if n := len(f.likes[id]); n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

func (f *FakeStorage) LikedIDs(ctx context.Context, userID string, ideaIDs []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LikedIDsCalls++
	if f.failRead() {
		return nil, errFakeStorage
	}

	liked := map[string]bool{}
	for _, id := range ideaIDs {
		if f.likes[id][userID] {
			liked[id] = true
		}
	}
	return liked, nil
}

func (f *FakeStorage) InsertIdea(ctx context.Context, idea *model.Idea) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InsertIdeaCalls++
	if f.failWrite() {
		return errFakeStorage
	}

	f.nextCursor++
	idea.Cursor = f.nextCursor
	f.ideas = append(f.ideas, *idea)
	return nil
}

func (f *FakeStorage) InsertLike(ctx context.Context, ideaID string, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite() {
		return errFakeStorage
	}

	if f.likes[ideaID] == nil {
		f.likes[ideaID] = map[string]bool{}
	}
	// duplicate insert is a no-op, same as ON CONFLICT DO NOTHING
	f.likes[ideaID][userID] = true
	return nil
}

func (f *FakeStorage) DeleteLike(ctx context.Context, ideaID string, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite() {
		return errFakeStorage
	}

	delete(f.likes[ideaID], userID)
	return nil
}

func (f *FakeStorage) SetStatus(ctx context.Context, ideaID string, status int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite() {
		return errFakeStorage
	}

	for i := range f.ideas {
		if f.ideas[i].Id == ideaID {
			f.ideas[i].Status = status
			return nil
		}
	}
	return errors.Errorf("idea %s not found", ideaID)
}
