package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sparksblog/sparks/model"
)

// Holder is the process-wide observable identity. The auth service publishes
// every session transition (sign-in, sign-out, startup resolution) into it;
// dependents subscribe and hold a read-only view, never their own copy. All
// internal state should not be handled directly by hand but managed by its
// public receivers.
type Holder struct {
	// subscribers maps channel id (uuid) to the subscriber's channel, so that
	// deletion of a subscription is O(1). An entry is removed once the
	// subscriber's context terminates.
	subscribers map[string]chan *model.Session

	current *model.Session

	// Adding/Removing a subscription must grab WriteLock, while all other
	// usage (e.g. pushing a transition) should grab a ReadLock.
	mu sync.RWMutex
}

func NewHolder() *Holder {
	return &Holder{
		subscribers: make(map[string]chan *model.Session),
	}
}

// Current returns the active session, nil for anonymous.
func (h *Holder) Current() *model.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// cleanUp a single subscription when the context terminates.
func (h *Holder) cleanUp(ctx context.Context, chID string) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, chID)
}

// Subscribe registers for session transitions until ctx is done. The channel
// is buffered with size 1 and coalesces: a slow consumer observes the latest
// transition, intermediate ones may be skipped.
func (h *Holder) Subscribe(ctx context.Context) <-chan *model.Session {
	chID := "sub_" + uuid.New().String()
	ch := make(chan *model.Session, 1)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[chID] = ch

	// Spin up a background garbage collector.
	go h.cleanUp(ctx, chID)

	return ch
}

// SubscriberCount is thread-safe.
func (h *Holder) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Publish records the session as current and fans it out to all subscribers.
// nil publishes the anonymous state.
func (h *Holder) Publish(session *model.Session) {
	h.mu.Lock()
	h.current = session
	subscribers := make([]chan *model.Session, 0, len(h.subscribers))
	for _, ch := range h.subscribers {
		subscribers = append(subscribers, ch)
	}
	h.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- session:
		default:
			// subscriber lagging: drop the buffered transition, latest wins
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- session:
			default:
			}
		}
	}
}
