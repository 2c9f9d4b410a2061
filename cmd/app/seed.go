package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"telegram-course-bot/internal/config"
	"telegram-course-bot/internal/domain"
	"telegram-course-bot/internal/usecase"
)

// seedCatalog loads the configured courses. Bad entries are logged and
// skipped so one typo does not keep the bot down.
func seedCatalog(ctx context.Context, catalog usecase.CatalogUseCase, seeds []config.CourseSeed, logger *zerolog.Logger) int {
	added := 0
	for _, s := range seeds {
		c, err := catalog.AddCourse(ctx, s.ID, s.Name, s.Price, s.GroupLink)
		if err != nil {
			lvl := logger.Error()
			if errors.Is(err, domain.ErrAlreadyExists) {
				lvl = logger.Warn()
			}
			lvl.Err(err).Str("course_id", s.ID).Msg("skipping catalog entry")
			continue
		}
		added++
		if s.PaymentURL == "" {
			continue
		}
		if _, err := catalog.SetPaymentLink(ctx, c.ID, s.PaymentURL); err != nil {
			logger.Error().Err(err).Str("course_id", c.ID).Msg("invalid payment link in catalog entry")
		}
	}
	return added
}
