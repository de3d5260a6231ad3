package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-tracker/internal/config"
	"github.com/spec-kit/asset-tracker/internal/repository"
	"github.com/spec-kit/asset-tracker/internal/repository/memory"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// Postgres holds the pgx pool, or nothing when no DSN is configured.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres opens a pool and waits for the server to answer. An empty DSN
// returns a disabled Postgres.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		return &Postgres{}, nil
	}

	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	backoff := connectBackoff
	for attempt := 1; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			pool.Close()
			return nil, fmt.Errorf("ping postgres after %d attempts: %w", attempt, err)
		}
		logger.Warn("postgres not ready, retrying", zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	logger.Info("connected to postgres",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns))
	return &Postgres{Pool: pool}, nil
}

func poolConfig(cfg config.PostgresConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse POSTGRES_DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = "asset-tracker"
	}
	return poolCfg, nil
}

// Enabled reports whether a pool was opened.
func (p *Postgres) Enabled() bool {
	return p != nil && p.Pool != nil
}

// Ping verifies database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if !p.Enabled() {
		return errors.New("postgres not configured")
	}
	return p.Pool.Ping(ctx)
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p.Enabled() {
		p.Pool.Close()
	}
}

// PoolHandle returns the underlying pgx pool, nil when disabled.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}

// Backend is the repository layer the services run against.
type Backend struct {
	Store    *repository.Store
	Tx       repository.TxRunner
	Postgres *Postgres
}

// OpenBackend connects to Postgres and applies pending migrations when a DSN
// is configured. Without one it returns a process-local in-memory backend.
func OpenBackend(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Backend, error) {
	pg, err := NewPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if !pg.Enabled() {
		logger.Warn("POSTGRES_DSN not set, using in-memory store; data is lost on restart")
		db := memory.New()
		return &Backend{Store: db.Store(), Tx: db.TxRunner(), Postgres: pg}, nil
	}

	if cfg.RunMigrations {
		if err := RunMigrations(ctx, pg.Pool, cfg.MigrationsDir, logger); err != nil {
			pg.Close()
			return nil, err
		}
	}
	return &Backend{
		Store:    repository.NewStore(pg.Pool),
		Tx:       repository.NewTxRunner(pg.Pool),
		Postgres: pg,
	}, nil
}

// Close releases the pool, if any.
func (b *Backend) Close() {
	if b != nil {
		b.Postgres.Close()
	}
}
