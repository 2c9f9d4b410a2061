package repository

import (
	"context"

	"telegram-course-bot/internal/domain/model"
)

// -----------------------------
// Catalog
// -----------------------------

// CatalogRepository stores course definitions and payment destinations.
// List must return courses in insertion order.
type CatalogRepository interface {
	Create(ctx context.Context, c *model.Course) error
	Update(ctx context.Context, c *model.Course) error
	Get(ctx context.Context, id string) (*model.Course, error)
	List(ctx context.Context) ([]*model.Course, error)
	Delete(ctx context.Context, id string) error

	// Payment links have their own lifecycle, keyed by course id.
	SetPaymentLink(ctx context.Context, courseID, link string) error
	GetPaymentLink(ctx context.Context, courseID string) (string, error)

	Destinations(ctx context.Context) (model.PaymentDestinations, error)
	SetDestination(ctx context.Context, method model.PaymentMethod, number string) error
}
