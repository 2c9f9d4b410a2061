package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"telegram-course-bot/internal/domain"
	"telegram-course-bot/internal/domain/ports/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo is the default in-process ledger. Used references live for the
// lifetime of the process.
type LedgerRepo struct {
	mu      sync.Mutex
	used    map[string]struct{}
	claimed map[string]string // ref -> claim token
}

func NewLedgerRepo() *LedgerRepo {
	return &LedgerRepo{
		used:    make(map[string]struct{}),
		claimed: make(map[string]string),
	}
}

func (l *LedgerRepo) Has(_ context.Context, ref string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.used[ref]
	return ok, nil
}

func (l *LedgerRepo) MarkUsed(_ context.Context, ref string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.used[ref] = struct{}{}
	return nil
}

func (l *LedgerRepo) Release(_ context.Context, ref string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.used, ref)
	return nil
}

func (l *LedgerRepo) Claim(_ context.Context, ref string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.used[ref]; ok {
		return "", false, nil
	}
	if _, ok := l.claimed[ref]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	l.claimed[ref] = token
	return token, true, nil
}

func (l *LedgerRepo) Commit(_ context.Context, ref, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.used[ref]; ok {
		return domain.ErrDuplicateTransaction
	}
	if cur, ok := l.claimed[ref]; ok && cur != token {
		return domain.ErrTransactionInFlight
	}
	delete(l.claimed, ref)
	l.used[ref] = struct{}{}
	return nil
}

func (l *LedgerRepo) Abandon(_ context.Context, ref, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.claimed[ref] == token {
		delete(l.claimed, ref)
	}
	return nil
}

// Len returns the number of used references.
func (l *LedgerRepo) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.used)
}
