package memory

import (
	"context"
	"sort"
	"sync"

	"telegram-course-bot/internal/domain"
	"telegram-course-bot/internal/domain/ports/repository"
)

var _ repository.AdminRepository = (*AdminRepo)(nil)

type AdminRepo struct {
	mu      sync.RWMutex
	primary int64
	admins  map[int64]struct{}
}

func NewAdminRepo(primary int64) *AdminRepo {
	return &AdminRepo{
		primary: primary,
		admins:  map[int64]struct{}{primary: {}},
	}
}

func (r *AdminRepo) Primary() int64 { return r.primary }

func (r *AdminRepo) IsAdmin(_ context.Context, tgID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.admins[tgID]
	return ok, nil
}

func (r *AdminRepo) Add(_ context.Context, tgID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[tgID]; ok {
		return domain.ErrAlreadyExists
	}
	r.admins[tgID] = struct{}{}
	return nil
}

func (r *AdminRepo) Remove(_ context.Context, tgID int64) error {
	if tgID == r.primary {
		return domain.ErrPrimaryAdmin
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[tgID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.admins, tgID)
	return nil
}

// List returns the primary first, then the others ascending.
func (r *AdminRepo) List(_ context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int64, 0, len(r.admins))
	for id := range r.admins {
		if id != r.primary {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return append([]int64{r.primary}, out...), nil
}
