package redis

import (
	"context"
	"fmt"
	"time"

	"telegram-course-bot/internal/domain"
	"telegram-course-bot/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo keeps used references as keys without expiry and claims as
// short-lived keys, so a crashed verification frees its claim after ttl.
type LedgerRepo struct {
	cli *redis.Client
	ttl time.Duration
}

func NewLedgerRepo(c *Client, claimTTL time.Duration) *LedgerRepo {
	if claimTTL <= 0 {
		claimTTL = 2 * time.Minute
	}
	return &LedgerRepo{cli: c.cli, ttl: claimTTL}
}

func usedKey(ref string) string  { return fmt.Sprintf("trx:used:%s", ref) }
func claimKey(ref string) string { return fmt.Sprintf("trx:claim:%s", ref) }

// KEYS[1]=used KEYS[2]=claim ARGV[1]=token ARGV[2]=ttl ms
var luaClaim = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
if redis.call("SET", KEYS[2], ARGV[1], "NX", "PX", ARGV[2]) then
	return 1
end
return 0`)

// KEYS[1]=used KEYS[2]=claim ARGV[1]=token
// 1 committed, 0 already used, -1 claim held by another token
var luaCommit = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
local cur = redis.call("GET", KEYS[2])
if cur and cur ~= ARGV[1] then
	return -1
end
redis.call("SET", KEYS[1], "1")
redis.call("DEL", KEYS[2])
return 1`)

// KEYS[1]=claim ARGV[1]=token
var luaAbandon = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (l *LedgerRepo) Has(ctx context.Context, ref string) (bool, error) {
	n, err := l.cli.Exists(ctx, usedKey(ref)).Result()
	return n > 0, err
}

func (l *LedgerRepo) MarkUsed(ctx context.Context, ref string) error {
	return l.cli.Set(ctx, usedKey(ref), "1", 0).Err()
}

func (l *LedgerRepo) Release(ctx context.Context, ref string) error {
	return l.cli.Del(ctx, usedKey(ref)).Err()
}

func (l *LedgerRepo) Claim(ctx context.Context, ref string) (string, bool, error) {
	token := uuid.NewString()
	n, err := luaClaim.Run(ctx, l.cli,
		[]string{usedKey(ref), claimKey(ref)},
		token, l.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return "", false, err
	}
	if n != 1 {
		return "", false, nil
	}
	return token, true, nil
}

// Commit succeeds for the current claim holder, or when the claim expired and
// nobody took it over.
func (l *LedgerRepo) Commit(ctx context.Context, ref, token string) error {
	n, err := luaCommit.Run(ctx, l.cli, []string{usedKey(ref), claimKey(ref)}, token).Int()
	if err != nil {
		return err
	}
	switch n {
	case 0:
		return domain.ErrDuplicateTransaction
	case -1:
		return domain.ErrTransactionInFlight
	}
	return nil
}

func (l *LedgerRepo) Abandon(ctx context.Context, ref, token string) error {
	_, err := luaAbandon.Run(ctx, l.cli, []string{claimKey(ref)}, token).Result()
	return err
}
