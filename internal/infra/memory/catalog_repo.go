package memory

import (
	"context"
	"sync"

	"telegram-course-bot/internal/domain"
	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/domain/ports/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo keeps courses in insertion order. Deleting a course drops its
// image and payment link with it.
type CatalogRepo struct {
	mu      sync.RWMutex
	order   []string
	courses map[string]*model.Course
	links   map[string]string
	dest    model.PaymentDestinations
}

func NewCatalogRepo(dest model.PaymentDestinations) *CatalogRepo {
	return &CatalogRepo{
		courses: make(map[string]*model.Course),
		links:   make(map[string]string),
		dest:    dest,
	}
}

func (r *CatalogRepo) Create(_ context.Context, c *model.Course) error {
	if c.IsZero() {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[c.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *c
	r.courses[c.ID] = &cp
	r.order = append(r.order, c.ID)
	return nil
}

func (r *CatalogRepo) Update(_ context.Context, c *model.Course) error {
	if c.IsZero() {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[c.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *c
	r.courses[c.ID] = &cp
	return nil
}

func (r *CatalogRepo) Get(_ context.Context, id string) (*model.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *CatalogRepo) List(_ context.Context) ([]*model.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Course, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.courses[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *CatalogRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.courses, id)
	delete(r.links, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *CatalogRepo) SetPaymentLink(_ context.Context, courseID, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if link == "" {
		delete(r.links, courseID)
		return nil
	}
	r.links[courseID] = link
	return nil
}

func (r *CatalogRepo) GetPaymentLink(_ context.Context, courseID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	link, ok := r.links[courseID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return link, nil
}

func (r *CatalogRepo) Destinations(_ context.Context) (model.PaymentDestinations, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dest, nil
}

func (r *CatalogRepo) SetDestination(_ context.Context, method model.PaymentMethod, number string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch method {
	case model.MethodBkash:
		r.dest.BkashNumber = number
	case model.MethodNagad:
		r.dest.NagadNumber = number
	default:
		return domain.ErrInvalidArgument
	}
	return nil
}
