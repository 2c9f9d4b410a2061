package repository

import (
	"context"

	"telegram-course-bot/internal/domain/model"
)

// SessionRepository is the port for per-user purchase sessions.
// Sessions are created lazily and never deleted.
type SessionRepository interface {
	// Get returns a copy of the user's session, creating it on first use.
	Get(ctx context.Context, userID int64) (*model.Session, error)
	// Update runs fn on the live session atomically and returns a copy of the
	// result. If fn returns an error the session is left untouched.
	Update(ctx context.Context, userID int64, fn func(s *model.Session) error) (*model.Session, error)
	List(ctx context.Context) ([]*model.Session, error)
}
