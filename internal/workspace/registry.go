// Package workspace keeps one loaded workspace per user in memory. Every
// request runs as an action on the user's session: actions of one user run
// one at a time and a mutating action is persisted before it returns.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"sync"

	"supplysync-backend/internal/reconcile"
	"supplysync-backend/internal/state"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrLoad means the saved workspace could not be read. Nothing is
	// replaced with defaults; the caller can retry.
	ErrLoad = errors.New("could not load your data")
	// ErrPersist means the change was applied in memory but not saved.
	ErrPersist = errors.New("could not save your changes")
)

// Loader reads and writes whole workspaces.
type Loader interface {
	Load(ctx context.Context, userID uint) (*state.State, error)
	Save(ctx context.Context, userID uint, st *state.State) error
}

// Session is the live workspace of one user plus what lives between
// requests without being persisted.
type Session struct {
	mu sync.Mutex

	UserID uint
	State  *state.State
	// Edit is set while the working order was loaded from history.
	Edit *state.EditSession
	// Pending is the last analyzed import waiting for review.
	Pending *reconcile.ChangeSet
}

// ResetScope drops everything tied to the current company or working order.
func (s *Session) ResetScope() {
	s.Edit = nil
	s.Pending = nil
}

type Registry struct {
	loader Loader
	log    *slog.Logger

	group singleflight.Group

	mu       sync.Mutex
	sessions map[uint]*Session
}

func NewRegistry(loader Loader, log *slog.Logger) *Registry {
	return &Registry{
		loader:   loader,
		log:      log,
		sessions: make(map[uint]*Session),
	}
}

func (r *Registry) session(ctx context.Context, userID uint) (*Session, error) {
	r.mu.Lock()
	sess, ok := r.sessions[userID]
	r.mu.Unlock()
	if ok {
		return sess, nil
	}

	v, err, _ := r.group.Do(strconv.FormatUint(uint64(userID), 10), func() (interface{}, error) {
		r.mu.Lock()
		if sess, ok := r.sessions[userID]; ok {
			r.mu.Unlock()
			return sess, nil
		}
		r.mu.Unlock()

		st, err := r.loader.Load(ctx, userID)
		if err != nil {
			return nil, err
		}
		sess := &Session{UserID: userID, State: st}

		r.mu.Lock()
		defer r.mu.Unlock()
		if existing, ok := r.sessions[userID]; ok {
			return existing, nil
		}
		r.sessions[userID] = sess
		return sess, nil
	})
	if err != nil {
		r.log.Error("load workspace", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return v.(*Session), nil
}

// View runs fn on the user's session without saving afterwards.
func (r *Registry) View(ctx context.Context, userID uint, fn func(*Session) error) error {
	sess, err := r.session(ctx, userID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return run(r.log, sess, fn)
}

// Do runs fn on the user's session and saves the workspace when fn
// succeeds. On a failed save the in-memory change is kept so a later
// action can save it again.
func (r *Registry) Do(ctx context.Context, userID uint, fn func(*Session) error) error {
	sess, err := r.session(ctx, userID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := run(r.log, sess, fn); err != nil {
		return err
	}
	if err := r.loader.Save(ctx, userID, sess.State); err != nil {
		r.log.Error("save workspace", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// Evict forgets the in-memory session; the next action loads it again.
func (r *Registry) Evict(userID uint) {
	r.mu.Lock()
	delete(r.sessions, userID)
	r.mu.Unlock()
}

func run(log *slog.Logger, sess *Session, fn func(*Session) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("workspace action panicked",
				slog.Uint64("user_id", uint64(sess.UserID)),
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("workspace action failed: %v", p)
		}
	}()
	return fn(sess)
}
