package memory

import (
	"context"
	"sort"
	"sync"

	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo is a process-lifetime session store. Callers only ever see
// copies; mutation goes through Update.
type SessionRepo struct {
	mu       sync.Mutex
	sessions map[int64]*model.Session
	onCreate func(userID int64)
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{sessions: make(map[int64]*model.Session)}
}

// OnCreate registers a hook called once per lazily created session.
func (r *SessionRepo) OnCreate(fn func(userID int64)) { r.onCreate = fn }

func (r *SessionRepo) load(userID int64) *model.Session {
	s, ok := r.sessions[userID]
	if !ok {
		s = model.NewSession(userID)
		r.sessions[userID] = s
		if r.onCreate != nil {
			r.onCreate(userID)
		}
	}
	return s
}

func (r *SessionRepo) Get(_ context.Context, userID int64) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(userID).Clone(), nil
}

func (r *SessionRepo) Update(_ context.Context, userID int64, fn func(s *model.Session) error) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	live := r.load(userID)
	draft := live.Clone()
	if err := fn(draft); err != nil {
		return live.Clone(), err
	}
	draft.Touch()
	r.sessions[userID] = draft
	return draft.Clone(), nil
}

func (r *SessionRepo) List(_ context.Context) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstSeen.Before(out[j].FirstSeen) })
	return out, nil
}
