package repository

import "context"

// AdminRepository holds the set of admin telegram ids. The primary admin is
// fixed at construction and is always a member.
type AdminRepository interface {
	Primary() int64
	IsAdmin(ctx context.Context, tgID int64) (bool, error)
	Add(ctx context.Context, tgID int64) error
	Remove(ctx context.Context, tgID int64) error
	List(ctx context.Context) ([]int64, error)
}
