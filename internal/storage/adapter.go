package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"supplysync-backend/internal/models"
	"supplysync-backend/internal/state"
)

// Adapter loads and saves user workspaces through a Store.
type Adapter struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewAdapter(store Store, log *slog.Logger) *Adapter {
	return &Adapter{store: store, log: log, now: time.Now}
}

// Load returns the saved workspace of the user, or a fresh one when
// nothing was saved yet. A failed read is returned as an error and never
// replaced with defaults.
func (a *Adapter) Load(ctx context.Context, userID uint) (*state.State, error) {
	key := models.UserDocumentKey(userID)
	data, err := a.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		a.log.Info("no saved workspace, starting fresh", slog.Uint64("user_id", uint64(userID)))
		return state.New(a.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}

	st, err := Decode(data, a.now())
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	return st, nil
}

// Save overwrites the stored document with the current workspace.
func (a *Adapter) Save(ctx context.Context, userID uint, st *state.State) error {
	data, err := Encode(st)
	if err != nil {
		return fmt.Errorf("encode workspace: %w", err)
	}
	if err := a.store.Set(ctx, models.UserDocumentKey(userID), data); err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	return nil
}
