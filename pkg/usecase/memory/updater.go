package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"leadagent/pkg/model"
	"leadagent/pkg/repository"
	"leadagent/pkg/utils/logging"
)

// Updater commits extracted profiles to the memory store, exactly once per
// conversation turn. Turns for the same user are serialized so a later
// turn's read always observes the prior turn's committed write; turns for
// different users run independently.
type Updater struct {
	store     repository.ProfileStore
	extractor *Extractor

	mu    sync.Mutex
	locks map[model.UserID]*sync.Mutex
}

// NewUpdater creates an Updater
func NewUpdater(store repository.ProfileStore, extractor *Extractor) *Updater {
	return &Updater{
		store:     store,
		extractor: extractor,
		locks:     make(map[model.UserID]*sync.Mutex),
	}
}

func (u *Updater) userLock(userID model.UserID) *sync.Mutex {
	u.mu.Lock()
	defer u.mu.Unlock()

	lock, ok := u.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		u.locks[userID] = lock
	}
	return lock
}

// RunTurn re-derives the profile from the full transcript and persists the
// merged result. When extraction yields no candidate the stored profile is
// left untouched. The committed (or unchanged) profile is returned.
func (u *Updater) RunTurn(ctx context.Context, userID model.UserID, transcript []*genai.Content) (*model.Profile, error) {
	lock := u.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	ns := model.NewMemoryNamespace(userID)

	existing, err := u.store.GetProfile(ctx, ns, model.ProfileKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read stored profile", goerr.V("user_id", userID))
	}

	candidate, err := u.extractor.Extract(ctx, transcript, existing)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract profile", goerr.V("user_id", userID))
	}
	if candidate == nil {
		logging.From(ctx).Info("no profile candidate for this turn, memory unchanged",
			"user_id", userID)
		return existing, nil
	}

	// The extractor is seed-aware, but the merge guard below makes the
	// no-regression invariant hold even for a backend that ignores the seed:
	// a known field never reverts to unknown.
	merged := existing.Merge(candidate)

	if err := u.store.PutProfile(ctx, ns, model.ProfileKey, merged); err != nil {
		return nil, goerr.Wrap(err, "failed to commit profile", goerr.V("user_id", userID))
	}

	logging.From(ctx).Debug("profile committed",
		"user_id", userID, "filled_fields", merged.FilledCount())
	return merged, nil
}
