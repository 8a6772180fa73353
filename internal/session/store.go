package session

import (
	"strings"
	"sync"
	"time"

	"stickerforge/core/logger"
	"stickerforge/internal/media"

	"log/slog"
)

type userState struct {
	lastMedia  *media.Descriptor
	lastUpdate time.Time
	workflow   *Workflow
}

// Store maps user identifiers to their interaction state. A single mutex
// serializes access: contention is negligible for an interactive bot, and it
// also covers out-of-order delivery of one user's consecutive updates.
type Store struct {
	mu     sync.Mutex
	users  map[int64]*userState
	expiry time.Duration
	now    func() time.Time
}

// NewStore builds an empty store. A non-positive expiry falls back to
// DefaultExpiry.
func NewStore(expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		users:  make(map[int64]*userState),
		expiry: expiry,
		now:    time.Now,
	}
}

// Get returns a snapshot of the user's state, or ok=false when the user has
// no live state.
func (s *Store) Get(userID int64) (UserState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepExpired(s.now())

	st, ok := s.users[userID]
	if !ok {
		return UserState{}, false
	}
	return snapshot(st), true
}

// SetLastMedia records the most recent media the user sent. It creates state
// if absent and leaves any workflow untouched.
func (s *Store) SetLastMedia(userID int64, d *media.Descriptor) {
	if d == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepExpired(s.now())

	st := s.touch(userID)
	st.lastMedia = d
}

// GetOrStartWorkflow returns the user's workflow, creating one at
// awaiting_image when absent. An existing workflow that has already advanced
// past awaiting_image is reset: the latest start wins and partial input is
// discarded.
func (s *Store) GetOrStartWorkflow(userID int64) Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepExpired(s.now())

	st := s.touch(userID)
	if st.workflow == nil || st.workflow.Stage != StageAwaitingImage {
		st.workflow = &Workflow{Stage: StageAwaitingImage}
	}
	return *st.workflow
}

// AdvanceWorkflow applies one step's input to the user's workflow and
// returns the resulting state. A missing workflow (expired or never started)
// is re-derived at awaiting_image rather than treated as an error.
//
// Returns ErrInvalidStageInput, with the stage unchanged, when the input
// type does not match the stage.
func (s *Store) AdvanceWorkflow(userID int64, in Input) (Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepExpired(s.now())

	st := s.touch(userID)
	if st.workflow == nil {
		st.workflow = &Workflow{Stage: StageAwaitingImage}
	}
	wf := st.workflow

	switch wf.Stage {
	case StageAwaitingImage:
		if in.Media == nil || in.Media.Kind != media.KindPhoto {
			return *wf, ErrInvalidStageInput
		}
		wf.Photo = in.Media
		wf.Stage = StageAwaitingTopText

	case StageAwaitingTopText:
		text := strings.TrimSpace(in.Text)
		if in.Media != nil || text == "" {
			return *wf, ErrInvalidStageInput
		}
		wf.TopText = text
		wf.Stage = StageAwaitingBottomText

	case StageAwaitingBottomText:
		text := strings.TrimSpace(in.Text)
		if in.Media != nil || text == "" {
			return *wf, ErrInvalidStageInput
		}
		wf.Stage = StageDone

	default:
		return *wf, ErrInvalidStageInput
	}

	return *wf, nil
}

// ClearWorkflow removes the user's workflow, preserving lastMedia.
func (s *Store) ClearWorkflow(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepExpired(s.now())

	if st, ok := s.users[userID]; ok {
		st.workflow = nil
		st.lastUpdate = s.now()
	}
}

// InProgress reports whether the user has an active workflow.
func (s *Store) InProgress(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepExpired(s.now())

	st, ok := s.users[userID]
	return ok && st.workflow != nil
}

// SweepExpired removes every state whose last mutation is older than the
// expiry window. Exported for callers that want an explicit sweep; all
// store operations already run it lazily first.
func (s *Store) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepExpired(now)
}

// sweepExpired must be called with s.mu held.
func (s *Store) sweepExpired(now time.Time) int {
	removed := 0
	for id, st := range s.users {
		if now.Sub(st.lastUpdate) > s.expiry {
			delete(s.users, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Sessions.LogAttrs(logger.Background(), slog.LevelDebug, "session.sweep",
			slog.Int("count", removed),
			slog.Int("remaining", len(s.users)),
		)
	}
	return removed
}

// touch returns the user's state, creating it if absent, and stamps the
// mutation time. Must be called with s.mu held.
func (s *Store) touch(userID int64) *userState {
	st, ok := s.users[userID]
	if !ok {
		st = &userState{}
		s.users[userID] = st
	}
	st.lastUpdate = s.now()
	return st
}

func snapshot(st *userState) UserState {
	out := UserState{
		LastMedia:  st.lastMedia,
		LastUpdate: st.lastUpdate,
	}
	if st.workflow != nil {
		wf := *st.workflow
		out.Workflow = &wf
	}
	return out
}
