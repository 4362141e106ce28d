package orchestrator

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "vendora/pkg/domain-errors"
	txcontext "vendora/pkg/platform/tx"
	"vendora/pkg/requestcontext"
)

// UnitOfWork is the transactional boundary shared by one domain operation
// and its fan-out decision point. The inner context carries the active
// transaction so stores can join it. A unit of work is never reused across
// calls.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const defaultTxTimeout = 5 * time.Second

// SQLUnitOfWork runs the callback inside a database/sql transaction.
type SQLUnitOfWork struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLUnitOfWork wraps a database handle. A zero timeout falls back to
// the package default.
func NewSQLUnitOfWork(db *sql.DB, timeout time.Duration) *SQLUnitOfWork {
	return &SQLUnitOfWork{db: db, timeout: timeout}
}

func (u *SQLUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := u.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "commit transaction")
	}
	return nil
}

// numShards spreads in-memory transactions across mutexes so unrelated
// actors do not serialize behind a single global lock.
const numShards = 128

// MemoryUnitOfWork provides a transactional boundary for in-memory stores
// using sharded mutexes keyed by the acting user. Stores remain responsible
// for their own conditional writes; the shard lock only bounds the scope of
// one logical transaction.
type MemoryUnitOfWork struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

// NewMemoryUnitOfWork builds an in-memory unit of work for tests and local
// development.
func NewMemoryUnitOfWork() *MemoryUnitOfWork {
	return &MemoryUnitOfWork{}
}

func (u *MemoryUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := u.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := u.selectShard(ctx)
	u.shards[shard].Lock()
	defer u.shards[shard].Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

func (u *MemoryUnitOfWork) selectShard(ctx context.Context) int {
	if actorID := requestcontext.ActorID(ctx); !actorID.IsNil() {
		return int(fnv32(actorID.String()) % numShards)
	}
	return 0
}

// fnv32 is FNV-1a, chosen for distribution over simple multiply-add.
func fnv32(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
