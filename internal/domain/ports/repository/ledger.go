package repository

import "context"

// LedgerRepository remembers consumed transaction references.
//
// Claim/Commit/Abandon close the window between the duplicate check and the
// gateway call: a reference is claimed before verification, committed on a
// granted purchase and abandoned otherwise. Claim fails for references that are
// already used or claimed by another verification in flight. The returned
// token identifies the claim; Commit and Abandon only act on the claim that
// token belongs to.
type LedgerRepository interface {
	Has(ctx context.Context, ref string) (bool, error)
	MarkUsed(ctx context.Context, ref string) error
	Release(ctx context.Context, ref string) error

	Claim(ctx context.Context, ref string) (token string, ok bool, err error)
	// Commit fails with domain.ErrDuplicateTransaction when the reference is
	// already used and with domain.ErrTransactionInFlight when another claim
	// replaced this one.
	Commit(ctx context.Context, ref, token string) error
	Abandon(ctx context.Context, ref, token string) error
}
