//go:build !integration

package main

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"telegram-course-bot/internal/config"
	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/infra/memory"
	"telegram-course-bot/internal/usecase"
)

func TestSeedCatalog(t *testing.T) {
	logger := zerolog.New(io.Discard)
	catalog := usecase.NewCatalogUseCase(memory.NewCatalogRepo(model.PaymentDestinations{}), &logger)
	ctx := context.Background()

	added := seedCatalog(ctx, catalog, []config.CourseSeed{
		{ID: "hsc2027_ict", Name: "ICT", Price: 500, GroupLink: "https://t.me/+ict", PaymentURL: "https://shop.bkash.com/ict"},
		{ID: "hsc2027_ict", Name: "ICT again", Price: 500, GroupLink: "https://t.me/+ict"},
		{ID: "bad_link", Name: "Bad", Price: 100, GroupLink: "http://example.com"},
		{ID: "zero", Name: "Zero", Price: 0, GroupLink: "https://t.me/+zero"},
		{ID: "hsc2027_bot", Name: "Botany", Price: 300, GroupLink: "https://t.me/+bot", PaymentURL: "ftp://nope"},
	}, &logger)

	if added != 2 {
		t.Fatalf("expected 2 courses, got %d", added)
	}
	courses, err := catalog.List(ctx)
	if err != nil || len(courses) != 2 || courses[0].ID != "hsc2027_ict" || courses[1].ID != "hsc2027_bot" {
		t.Fatalf("unexpected catalog %+v (%v)", courses, err)
	}
	if link, _ := catalog.PaymentLink(ctx, "hsc2027_ict"); link != "https://shop.bkash.com/ict" {
		t.Errorf("expected the payment link to be set, got %q", link)
	}
	if link, _ := catalog.PaymentLink(ctx, "hsc2027_bot"); link != "" {
		t.Errorf("expected an invalid payment link to be ignored, got %q", link)
	}
}
