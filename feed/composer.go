package feed

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sparksblog/sparks/model"
)

// ErrBusy is returned when a submission is attempted while another one is
// still in flight. Callers are expected to disable their trigger control for
// the duration of a submission, this error is the backstop.
var ErrBusy = errors.New("another submission is in flight")

// Composer captures idea drafts and turns them into insert requests followed
// by a feed reload. Validation rejections (empty after trimming, over the
// configured length cap) are silent no-ops, not errors.
type Composer struct {
	storage Storage
	store   *Store
	config  Config

	mu         sync.Mutex
	submitting bool
	draft      string
}

func NewComposer(storage Storage, store *Store, config Config) *Composer {
	return &Composer{
		storage: storage,
		store:   store,
		config:  config.withDefaults(),
	}
}

// Draft returns the text of the last failed submission, empty after a
// successful one. A UI restores it into the input on failure.
func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Submit trims text and, when it passes validation, inserts one idea and
// reloads the feed. Returns the created idea, nil when no insert was issued.
// On insert failure the draft is kept so the caller can restore it. A
// non-nil idea together with a non-nil error means the insert went through
// and only the follow-up reload failed; the idea exists and must not be
// resubmitted.
func (c *Composer) Submit(ctx context.Context, session *model.Session, text string, status int) (*model.Idea, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if c.config.MaxIdeaLen > 0 && len([]rune(text)) > c.config.MaxIdeaLen {
		return nil, nil
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.submitting = true
	c.draft = text
	c.mu.Unlock()

	idea := &model.Idea{
		Id:        uuid.New().String(),
		Content:   text,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if session != nil {
		idea.AuthorID = &session.UserID
	}

	if err := c.storage.InsertIdea(ctx, idea); err != nil {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
		return nil, errors.Wrap(err, "fail to insert idea")
	}

	c.mu.Lock()
	c.submitting = false
	c.draft = ""
	c.mu.Unlock()

	return idea, c.store.Reload(ctx, session)
}
