package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type UserStats struct {
	Total          int
	Paid           int
	Free           int
	ConversionRate float64 // percent
}

type CourseRevenue struct {
	Course  *model.Course
	Sales   int
	Revenue int64
}

type RevenueReport struct {
	Total     int64
	PerCourse []CourseRevenue // catalog order, only courses with sales
}

type Overview struct {
	Users     int
	Purchases int
	Revenue   int64
	Courses   int
	Admins    int
}

// StatsUseCase derives reports from sessions. Revenue uses current catalog
// prices; purchases of deleted courses count as purchases but not revenue.
type StatsUseCase interface {
	Users(ctx context.Context) (*UserStats, error)
	Revenue(ctx context.Context) (*RevenueReport, error)
	Overview(ctx context.Context) (*Overview, error)
}

type statsUC struct {
	sessions repository.SessionRepository
	catalog  repository.CatalogRepository
	admins   repository.AdminRepository

	log *zerolog.Logger
}

func NewStatsUseCase(sessions repository.SessionRepository, catalog repository.CatalogRepository, admins repository.AdminRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{sessions: sessions, catalog: catalog, admins: admins, log: logger}
}

func (s *statsUC) Users(ctx context.Context) (*UserStats, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	st := &UserStats{Total: len(sessions)}
	for _, sess := range sessions {
		if len(sess.Purchased) > 0 {
			st.Paid++
		}
	}
	st.Free = st.Total - st.Paid
	if st.Total > 0 {
		st.ConversionRate = float64(st.Paid) / float64(st.Total) * 100
	}
	return st, nil
}

func (s *statsUC) Revenue(ctx context.Context) (*RevenueReport, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	sales := make(map[string]int)
	for _, sess := range sessions {
		for id := range sess.Purchased {
			sales[id]++
		}
	}
	rep := &RevenueReport{}
	for _, c := range courses {
		n := sales[c.ID]
		if n == 0 {
			continue
		}
		rev := int64(n) * c.Price
		rep.Total += rev
		rep.PerCourse = append(rep.PerCourse, CourseRevenue{Course: c, Sales: n, Revenue: rev})
	}
	return rep, nil
}

func (s *statsUC) Overview(ctx context.Context) (*Overview, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	rev, err := s.Revenue(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, err
	}
	ov := &Overview{
		Users:   len(sessions),
		Revenue: rev.Total,
		Courses: len(courses),
		Admins:  len(admins),
	}
	for _, sess := range sessions {
		ov.Purchases += len(sess.Purchased)
	}
	return ov, nil
}
