// Package memory provides an in-process implementation of every repository.
// It backs local development without Postgres and the service and handler
// tests. Transactions are serialized and rolled back by restoring a snapshot
// of the state taken when the transaction began. Until the transaction ends,
// reads outside it see that snapshot, so uncommitted writes stay invisible.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/repository"
)

type state struct {
	assets     map[string]domain.Asset
	employees  map[string]domain.Employee
	categories map[string]domain.Category
	history    map[string]domain.AssetHistory
	requests   map[string]domain.AssetRequest
	users      map[string]domain.User
}

func newState() state {
	return state{
		assets:     map[string]domain.Asset{},
		employees:  map[string]domain.Employee{},
		categories: map[string]domain.Category{},
		history:    map[string]domain.AssetHistory{},
		requests:   map[string]domain.AssetRequest{},
		users:      map[string]domain.User{},
	}
}

// clone copies the maps. Stored records are replaced wholesale on write and
// never mutated in place, so a shallow copy of each value is enough.
func (s state) clone() state {
	c := state{
		assets:     make(map[string]domain.Asset, len(s.assets)),
		employees:  make(map[string]domain.Employee, len(s.employees)),
		categories: make(map[string]domain.Category, len(s.categories)),
		history:    make(map[string]domain.AssetHistory, len(s.history)),
		requests:   make(map[string]domain.AssetRequest, len(s.requests)),
		users:      make(map[string]domain.User, len(s.users)),
	}
	for k, v := range s.assets {
		c.assets[k] = v
	}
	for k, v := range s.employees {
		c.employees[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.history {
		c.history[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

// DB holds the in-memory state shared by all repositories.
type DB struct {
	// txMu serializes writers: a transaction holds it for its whole
	// duration, a write outside a transaction holds it for one call.
	txMu sync.Mutex

	mu    sync.RWMutex
	state state
	// committed is the pre-transaction state while a transaction is open.
	committed *state
	last      time.Time
}

// New returns an empty database.
func New() *DB {
	return &DB{state: newState()}
}

// Store returns repositories operating outside any transaction.
func (db *DB) Store() *repository.Store {
	return db.store(false)
}

// TxRunner returns the transaction runner for db.
func (db *DB) TxRunner() repository.TxRunner {
	return db
}

func (db *DB) store(inTx bool) *repository.Store {
	s := session{db: db, inTx: inTx}
	return &repository.Store{
		Assets:     &assetRepository{s},
		Employees:  &employeeRepository{s},
		Categories: &categoryRepository{s},
		History:    &historyRepository{s},
		Requests:   &requestRepository{s},
		Users:      &userRepository{s},
	}
}

// WithinTx runs fn with exclusive write access. Any error or panic restores
// the state captured before fn started.
func (db *DB) WithinTx(ctx context.Context, fn repository.TxFunc) (err error) {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	snapshot := db.state.clone()
	db.committed = &snapshot
	db.mu.Unlock()

	defer func() {
		p := recover()
		db.mu.Lock()
		if p != nil || err != nil {
			db.state = snapshot
		}
		db.committed = nil
		db.mu.Unlock()
		if p != nil {
			panic(p)
		}
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	return fn(ctx, db.store(true))
}

// now returns a strictly increasing timestamp so records created in quick
// succession keep a stable order.
func (db *DB) now() time.Time {
	t := time.Now().UTC()
	if !t.After(db.last) {
		t = db.last.Add(time.Microsecond)
	}
	db.last = t
	return t
}

// session binds repositories to a DB and records whether the caller already
// holds the transaction lock.
type session struct {
	db   *DB
	inTx bool
}

func (s session) read(fn func(st *state) error) error {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	if !s.inTx && s.db.committed != nil {
		return fn(s.db.committed)
	}
	return fn(&s.db.state)
}

func (s session) write(fn func(st *state) error) error {
	if !s.inTx {
		s.db.txMu.Lock()
		defer s.db.txMu.Unlock()
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(&s.db.state)
}

func newID() string {
	return uuid.NewString()
}

// uniqueViolation mirrors the error Postgres raises for a duplicate key.
func uniqueViolation(column string) error {
	return &pgconn.PgError{
		Code:       "23505",
		Message:    fmt.Sprintf("duplicate key value violates unique constraint on %s", column),
		ColumnName: column,
	}
}

// foreignKeyViolation mirrors the error Postgres raises for a missing or
// still-referenced row.
func foreignKeyViolation(constraint string) error {
	return &pgconn.PgError{
		Code:           "23503",
		Message:        "foreign key violation",
		ConstraintName: constraint,
	}
}

// matchesAny reports whether any value contains search, ignoring case.
func matchesAny(search *string, values ...string) bool {
	if search == nil {
		return true
	}
	term := strings.ToLower(strings.TrimSpace(*search))
	if term == "" {
		return true
	}
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

func page(items int, limit, offset, defaultLimit int) (int, int) {
	limit, offset = repository.Page(limit, offset, defaultLimit)
	if offset > items {
		offset = items
	}
	end := offset + limit
	if end > items {
		end = items
	}
	return offset, end
}
