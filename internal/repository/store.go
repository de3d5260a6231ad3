package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles every repository bound to the same connection or transaction.
type Store struct {
	Assets     AssetRepository
	Employees  EmployeeRepository
	Categories CategoryRepository
	History    AssetHistoryRepository
	Requests   AssetRequestRepository
	Users      UserRepository
}

// NewStore binds Postgres repositories to db.
func NewStore(db DBTX) *Store {
	return &Store{
		Assets:     NewAssetRepository(db),
		Employees:  NewEmployeeRepository(db),
		Categories: NewCategoryRepository(db),
		History:    NewAssetHistoryRepository(db),
		Requests:   NewAssetRequestRepository(db),
		Users:      NewUserRepository(db),
	}
}

// TxFunc is a unit of work run against a transaction-bound Store.
type TxFunc func(ctx context.Context, store *Store) error

// TxRunner executes units of work atomically.
type TxRunner interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgTxRunner struct {
	db TxBeginner
}

// NewTxRunner returns a TxRunner backed by Postgres transactions.
func NewTxRunner(db TxBeginner) TxRunner {
	return &pgTxRunner{db: db}
}

// WithinTx opens a transaction, runs fn, commits on success and rolls back
// on error or panic. Commit or rollback always returns the connection.
func (r *pgTxRunner) WithinTx(ctx context.Context, fn TxFunc) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, NewStore(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Page normalizes limit and offset values.
func Page(limit, offset, defaultLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns term into an ILIKE pattern matching it as a plain
// substring. Pair it with ESCAPE '\' in the query.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
}
