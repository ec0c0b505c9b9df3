// Package postgres implements pkg/ports' repository interfaces against
// PostgreSQL using pgx/v5, with hand-written SQL (no ORM/codegen):
// Interview is a small, hand-rollable aggregate and the core never
// needs arbitrary query composition, so a query builder buys nothing
// here.
package postgres

import (
	"context"
	"fmt"

	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting every
// repository method run either inside a caller-supplied transaction or
// directly against the pool.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgx.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxTx adapts pgx.Tx to ports.Tx.
type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgxTx) Rollback(ctx context.Context) error  { return t.tx.Rollback(ctx) }

// Transactor begins a pgx transaction and hands back the ports.Tx
// handle every repository in this package accepts.
type Transactor struct {
	Pool *pgxpool.Pool
}

// NewTransactor builds a Transactor over the given pool.
func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{Pool: pool}
}

// BeginTx starts a new transaction.
func (t *Transactor) BeginTx(ctx context.Context) (ports.Tx, error) {
	tx, err := t.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin tx: %w", err)
	}
	return &pgxTx{tx: tx}, nil
}

// q resolves the querier to use: the transaction's underlying pgx.Tx if
// one was supplied, otherwise the pool itself.
func q(pool *pgxpool.Pool, tx ports.Tx) querier {
	if tx == nil {
		return pool
	}
	pt, ok := tx.(*pgxTx)
	if !ok {
		panic(fmt.Sprintf("postgres: unexpected Tx implementation %T", tx))
	}
	return pt.tx
}
