package feed

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sparksblog/sparks/model"
)

// Toggles issues like and status mutations followed by a feed reload. Both
// require an active session and are no-ops for anonymous viewers.
type Toggles struct {
	storage Storage
	store   *Store
}

func NewToggles(storage Storage, store *Store) *Toggles {
	return &Toggles{storage: storage, store: store}
}

// ToggleLike reads the current liked state from the store's last-known
// snapshot (not re-fetched) and issues the inverse operation. The check can
// be stale under rapid toggling; the storage layer's uniqueness constraint
// turns the resulting duplicate insert into a clean no-op.
func (t *Toggles) ToggleLike(ctx context.Context, session *model.Session, ideaID string) error {
	if session == nil {
		return nil
	}
	return t.ToggleLikeAs(ctx, session, ideaID, t.store.UserLiked(ideaID))
}

// ToggleLikeAs is ToggleLike with the caller supplying its own last-known
// liked state, which is what a stateless HTTP client does.
func (t *Toggles) ToggleLikeAs(ctx context.Context, session *model.Session, ideaID string, currentlyLiked bool) error {
	if session == nil {
		return nil
	}

	var err error
	if currentlyLiked {
		err = t.storage.DeleteLike(ctx, ideaID, session.UserID)
	} else {
		err = t.storage.InsertLike(ctx, ideaID, session.UserID)
	}
	if err != nil {
		return errors.Wrapf(err, "fail to toggle like on idea %s", ideaID)
	}

	return t.store.Reload(ctx, session)
}

// ToggleStatus flips the binary status of an idea and reloads. Any
// authenticated viewer may flip any idea, the board is collaborative.
func (t *Toggles) ToggleStatus(ctx context.Context, session *model.Session, ideaID string, currentStatus int) error {
	if session == nil {
		return nil
	}

	newStatus := model.StatusDone
	if currentStatus == model.StatusDone {
		newStatus = model.StatusInProgress
	}
	if err := t.storage.SetStatus(ctx, ideaID, newStatus); err != nil {
		return errors.Wrapf(err, "fail to set status on idea %s", ideaID)
	}

	return t.store.Reload(ctx, session)
}
