package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"telegram-course-bot/internal/domain"
	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/domain/ports/repository"
)

// Compile-time check
var _ CatalogUseCase = (*catalogUC)(nil)

// bdMobile is a Bangladeshi mobile number, e.g. 01712345678.
var bdMobile = regexp.MustCompile(`^01[3-9]\d{8}$`)

type CatalogUseCase interface {
	Get(ctx context.Context, id string) (*model.Course, error)
	List(ctx context.Context) ([]*model.Course, error)

	AddCourse(ctx context.Context, id, name string, price int64, groupLink string) (*model.Course, error)
	// EditName, EditPrice and EditLink return the course before the change.
	EditName(ctx context.Context, id, name string) (*model.Course, error)
	EditPrice(ctx context.Context, id string, price int64) (*model.Course, error)
	EditLink(ctx context.Context, id, groupLink string) (*model.Course, error)
	DeleteCourse(ctx context.Context, id string) (*model.Course, error)
	SetImage(ctx context.Context, id, photoRef string) (*model.Course, error)

	SetPaymentLink(ctx context.Context, id, link string) (*model.Course, error)
	PaymentLink(ctx context.Context, id string) (string, error)
	SetPaymentNumber(ctx context.Context, method model.PaymentMethod, number string) error
	Destinations(ctx context.Context) (model.PaymentDestinations, error)
}

type catalogUC struct {
	repo repository.CatalogRepository
	log  *zerolog.Logger
}

func NewCatalogUseCase(repo repository.CatalogRepository, logger *zerolog.Logger) *catalogUC {
	return &catalogUC{repo: repo, log: logger}
}

func (c *catalogUC) Get(ctx context.Context, id string) (*model.Course, error) {
	return c.repo.Get(ctx, strings.TrimSpace(id))
}

func (c *catalogUC) List(ctx context.Context) ([]*model.Course, error) {
	return c.repo.List(ctx)
}

func (c *catalogUC) AddCourse(ctx context.Context, id, name string, price int64, groupLink string) (*model.Course, error) {
	course, err := model.NewCourse(id, name, price, groupLink)
	if err != nil {
		return nil, err
	}
	if err := c.repo.Create(ctx, course); err != nil {
		return nil, err
	}
	c.log.Info().Str("course_id", course.ID).Int64("price", price).Msg("course added")
	return course, nil
}

// edit loads the course, applies fn to a copy and stores it.
func (c *catalogUC) edit(ctx context.Context, id string, fn func(*model.Course) error) (*model.Course, error) {
	old, err := c.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	next := *old
	if err := fn(&next); err != nil {
		return nil, err
	}
	if err := c.repo.Update(ctx, &next); err != nil {
		return nil, err
	}
	return old, nil
}

func (c *catalogUC) EditName(ctx context.Context, id, name string) (*model.Course, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	return c.edit(ctx, id, func(course *model.Course) error {
		course.Name = name
		return nil
	})
}

func (c *catalogUC) EditPrice(ctx context.Context, id string, price int64) (*model.Course, error) {
	return c.edit(ctx, id, func(course *model.Course) error {
		if price <= 0 {
			return domain.ErrInvalidArgument
		}
		course.Price = price
		return nil
	})
}

func (c *catalogUC) EditLink(ctx context.Context, id, groupLink string) (*model.Course, error) {
	groupLink = strings.TrimSpace(groupLink)
	return c.edit(ctx, id, func(course *model.Course) error {
		if !strings.HasPrefix(groupLink, model.GroupLinkPrefix) {
			return domain.ErrInvalidFormat
		}
		course.GroupLink = groupLink
		return nil
	})
}

func (c *catalogUC) SetImage(ctx context.Context, id, photoRef string) (*model.Course, error) {
	photoRef = strings.TrimSpace(photoRef)
	if photoRef == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := c.edit(ctx, id, func(course *model.Course) error {
		course.ImageRef = photoRef
		return nil
	}); err != nil {
		return nil, err
	}
	return c.repo.Get(ctx, strings.TrimSpace(id))
}

func (c *catalogUC) DeleteCourse(ctx context.Context, id string) (*model.Course, error) {
	id = strings.TrimSpace(id)
	course, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	c.log.Info().Str("course_id", id).Msg("course deleted")
	return course, nil
}

func (c *catalogUC) SetPaymentLink(ctx context.Context, id, link string) (*model.Course, error) {
	id, link = strings.TrimSpace(id), strings.TrimSpace(link)
	course, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(link, model.PaymentLinkPrefix) {
		return nil, domain.ErrInvalidFormat
	}
	if err := c.repo.SetPaymentLink(ctx, id, link); err != nil {
		return nil, err
	}
	return course, nil
}

func (c *catalogUC) PaymentLink(ctx context.Context, id string) (string, error) {
	link, err := c.repo.GetPaymentLink(ctx, strings.TrimSpace(id))
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	return link, err
}

func (c *catalogUC) SetPaymentNumber(ctx context.Context, method model.PaymentMethod, number string) error {
	number = strings.TrimSpace(number)
	if !bdMobile.MatchString(number) {
		return domain.ErrInvalidFormat
	}
	if err := c.repo.SetDestination(ctx, method, number); err != nil {
		return err
	}
	c.log.Info().Str("method", string(method)).Msg("payment number updated")
	return nil
}

func (c *catalogUC) Destinations(ctx context.Context) (model.PaymentDestinations, error) {
	return c.repo.Destinations(ctx)
}
