package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"telegram-course-bot/internal/domain"
	"telegram-course-bot/internal/domain/ports/repository"
)

// Compile-time check
var _ AdminUseCase = (*adminUC)(nil)

type AdminUseCase interface {
	IsAdmin(ctx context.Context, tgID int64) bool
	IsPrimary(tgID int64) bool

	// Only the primary admin may manage the admin set.
	AddAdmin(ctx context.Context, actorID, tgID int64) (total int, err error)
	RemoveAdmin(ctx context.Context, actorID, tgID int64) (total int, err error)
	ListAdmins(ctx context.Context, actorID int64) (primary int64, others []int64, err error)

	// Manual ledger overrides.
	CheckTrx(ctx context.Context, ref string) (used bool, err error)
	AddTrx(ctx context.Context, ref string) error
	RemoveTrx(ctx context.Context, ref string) error
}

type adminUC struct {
	admins repository.AdminRepository
	ledger repository.LedgerRepository
	log    *zerolog.Logger
}

func NewAdminUseCase(admins repository.AdminRepository, ledger repository.LedgerRepository, logger *zerolog.Logger) *adminUC {
	return &adminUC{admins: admins, ledger: ledger, log: logger}
}

func (a *adminUC) IsAdmin(ctx context.Context, tgID int64) bool {
	ok, err := a.admins.IsAdmin(ctx, tgID)
	if err != nil {
		a.log.Error().Err(err).Int64("tg_id", tgID).Msg("admin lookup failed")
		return false
	}
	return ok
}

func (a *adminUC) IsPrimary(tgID int64) bool { return tgID == a.admins.Primary() }

func (a *adminUC) count(ctx context.Context) (int, error) {
	all, err := a.admins.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (a *adminUC) AddAdmin(ctx context.Context, actorID, tgID int64) (int, error) {
	if !a.IsPrimary(actorID) {
		return 0, domain.ErrForbidden
	}
	if tgID <= 0 {
		return 0, domain.ErrInvalidArgument
	}
	if err := a.admins.Add(ctx, tgID); err != nil {
		return 0, err
	}
	a.log.Info().Int64("tg_id", tgID).Msg("admin added")
	return a.count(ctx)
}

func (a *adminUC) RemoveAdmin(ctx context.Context, actorID, tgID int64) (int, error) {
	if !a.IsPrimary(actorID) {
		return 0, domain.ErrForbidden
	}
	if err := a.admins.Remove(ctx, tgID); err != nil {
		return 0, err
	}
	a.log.Info().Int64("tg_id", tgID).Msg("admin removed")
	return a.count(ctx)
}

func (a *adminUC) ListAdmins(ctx context.Context, actorID int64) (int64, []int64, error) {
	if !a.IsPrimary(actorID) {
		return 0, nil, domain.ErrForbidden
	}
	all, err := a.admins.List(ctx)
	if err != nil {
		return 0, nil, err
	}
	primary := a.admins.Primary()
	others := make([]int64, 0, len(all))
	for _, id := range all {
		if id != primary {
			others = append(others, id)
		}
	}
	return primary, others, nil
}

func cleanRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", domain.ErrInvalidArgument
	}
	return ref, nil
}

func (a *adminUC) CheckTrx(ctx context.Context, ref string) (bool, error) {
	ref, err := cleanRef(ref)
	if err != nil {
		return false, err
	}
	return a.ledger.Has(ctx, ref)
}

func (a *adminUC) AddTrx(ctx context.Context, ref string) error {
	ref, err := cleanRef(ref)
	if err != nil {
		return err
	}
	return a.ledger.MarkUsed(ctx, ref)
}

func (a *adminUC) RemoveTrx(ctx context.Context, ref string) error {
	ref, err := cleanRef(ref)
	if err != nil {
		return err
	}
	return a.ledger.Release(ctx, ref)
}
