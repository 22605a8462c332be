package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/maze-arcade/game"
	"github.com/beka-birhanu/maze-arcade/service/i"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix     = "arcade"
	defaultSettledTTL = 7 * 24 * time.Hour
	balanceKeyFmt     = "%s:balance:%s"
	settledKeyFmt     = "%s:settled:%s"
	lockKeyFmt        = "%s:lock:%s"

	insufficientCredits = "insufficient credits"
)

var (
	ErrAlreadySettled = errors.New("attempt already settled")
	ErrInvalidAmount  = errors.New("amount must be positive")
)

// Options configures a RedisLedger.
type Options struct {
	Prefix     string
	EntryFee   int64
	WinPrize   int64
	SettledTTL time.Duration // How long settled attempt ids are remembered.
}

// RedisLedger keeps player credit balances in Redis. Every balance mutation
// holds a distributed lock on the player.
type RedisLedger struct {
	client *redis.Client
	locker *redsync.Redsync
	opts   Options
}

// NewRedisLedger initializes a RedisLedger with the provided Redis client.
func NewRedisLedger(client *redis.Client, opts Options) (i.Ledger, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if opts.EntryFee < 0 || opts.WinPrize < 0 {
		return nil, ErrInvalidAmount
	}
	if opts.Prefix == "" {
		opts.Prefix = defaultPrefix
	}
	if opts.SettledTTL <= 0 {
		opts.SettledTTL = defaultSettledTTL
	}

	return &RedisLedger{
		client: client,
		locker: redsync.New(goredis.NewPool(client)),
		opts:   opts,
	}, nil
}

// RequestEntry debits the entry fee when the player can afford it.
func (l *RedisLedger) RequestEntry(ctx context.Context, player, attempt uuid.UUID) (i.Entry, error) {
	var entry i.Entry
	err := l.withLock(ctx, player, func() error {
		balance, err := l.balance(ctx, player)
		if err != nil {
			return err
		}
		if balance < l.opts.EntryFee {
			entry = i.Entry{Granted: false, Reason: insufficientCredits}
			return nil
		}
		if l.opts.EntryFee > 0 {
			if err := l.client.DecrBy(ctx, l.balanceKey(player), l.opts.EntryFee).Err(); err != nil {
				return err
			}
		}
		entry = i.Entry{Granted: true}
		return nil
	})
	if err != nil {
		return i.Entry{}, fmt.Errorf("entry for attempt %s: %w", attempt, err)
	}
	return entry, nil
}

// ReportOutcome pays the prize of a won attempt. Each attempt is settled at
// most once.
func (l *RedisLedger) ReportOutcome(ctx context.Context, player, attempt uuid.UUID, outcome game.Outcome) (i.Payout, error) {
	settledKey := l.settledKey(attempt)
	first, err := l.client.SetNX(ctx, settledKey, player.String(), l.opts.SettledTTL).Result()
	if err != nil {
		return i.Payout{}, err
	}
	if !first {
		return i.Payout{}, ErrAlreadySettled
	}

	if !outcome.Won || l.opts.WinPrize == 0 {
		return i.Payout{}, nil
	}

	err = l.withLock(ctx, player, func() error {
		return l.client.IncrBy(ctx, l.balanceKey(player), l.opts.WinPrize).Err()
	})
	if err != nil {
		// Let a retry settle the attempt.
		_ = l.client.Del(context.Background(), settledKey).Err()
		return i.Payout{}, fmt.Errorf("paying attempt %s: %w", attempt, err)
	}

	return i.Payout{Amount: l.opts.WinPrize}, nil
}

// Deposit credits amount to the player and returns the new balance.
func (l *RedisLedger) Deposit(ctx context.Context, player uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance int64
	err := l.withLock(ctx, player, func() error {
		var err error
		balance, err = l.client.IncrBy(ctx, l.balanceKey(player), amount).Result()
		return err
	})
	return balance, err
}

// Balance returns the credits of the player, zero for unknown players.
func (l *RedisLedger) Balance(ctx context.Context, player uuid.UUID) (int64, error) {
	return l.balance(ctx, player)
}

func (l *RedisLedger) balance(ctx context.Context, player uuid.UUID) (int64, error) {
	balance, err := l.client.Get(ctx, l.balanceKey(player)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return balance, err
}

func (l *RedisLedger) withLock(ctx context.Context, player uuid.UUID, fn func() error) error {
	mutex := l.locker.NewMutex(fmt.Sprintf(lockKeyFmt, l.opts.Prefix, player))
	if err := mutex.LockContext(ctx); err != nil {
		return err
	}
	defer func() {
		_, _ = mutex.UnlockContext(context.Background())
	}()

	return fn()
}

func (l *RedisLedger) balanceKey(player uuid.UUID) string {
	return fmt.Sprintf(balanceKeyFmt, l.opts.Prefix, player)
}

func (l *RedisLedger) settledKey(attempt uuid.UUID) string {
	return fmt.Sprintf(settledKeyFmt, l.opts.Prefix, attempt)
}
