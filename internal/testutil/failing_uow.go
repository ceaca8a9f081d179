package testutil

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/jess/internal/db"
)

// FailingUoW wraps a real UnitOfWork and makes one write inside the
// transaction fail: the FailOn-th ExecContext call (from 1) whose query
// contains Match. An empty Match counts every write.
type FailingUoW struct {
	Inner  db.UnitOfWork
	Match  string
	FailOn int32
	Err    error

	// Execs counts the matching writes seen across transactions.
	Execs atomic.Int32
}

// NewFailingUoW fails the n-th write whose query contains match.
func NewFailingUoW(database *sql.DB, match string, n int32, err error) *FailingUoW {
	return &FailingUoW{Inner: db.NewSQLiteUnitOfWork(database), Match: match, FailOn: n, Err: err}
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return u.Inner.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &failingTx{DBTX: tx, uow: u})
	})
}

type failingTx struct {
	db.DBTX
	uow *FailingUoW
}

func (f *failingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, f.uow.Match) && f.uow.Execs.Add(1) == f.uow.FailOn {
		return nil, f.uow.Err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
