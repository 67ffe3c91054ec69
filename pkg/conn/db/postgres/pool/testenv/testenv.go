package testenv

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v4/pgxpool"
	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
)

const (
	// connection string (postgres://...) of a postgres database for testing.
	//
	// Tests requiring postgres are skipped when this envvar is not set.
	//
	// THE DATABASE GETS TRUNCATED. Never point this at a database you care.
	ENV_MLRUN_TEST_DB = "MLRUN_TEST_DB"
)

type pg struct {
	pool *pgxpool.Pool
}

func (p *pg) GetPool(ctx context.Context, t *testing.T) kpool.Pool {
	t.Cleanup(func() {
		t.Helper()
		ClearTables(ctx, p.pool, t)
	})

	ClearTables(ctx, p.pool, t)
	return kpool.Wrap(p.pool)
}

type pgNoClean struct {
	pool *pgxpool.Pool
}

func (p *pgNoClean) GetPool(ctx context.Context, t *testing.T) kpool.Pool {
	return kpool.Wrap(p.pool)
}

// PoolBroaker is a interface to get a pool.
type PoolBroaker interface {
	// GetPool returns a pool.
	//
	// Tables are cleaned up before returning and after t.
	GetPool(ctx context.Context, t *testing.T) kpool.Pool
}

type pgConnOptions struct {
	DoNotCleanup bool
}

type PgConnOption func(*pgConnOptions) *pgConnOptions

func WithDoNotCleanup() PgConnOption {
	return func(o *pgConnOptions) *pgConnOptions {
		o.DoNotCleanup = true
		return o
	}
}

// NewPoolBroaker returns a PoolBroaker.
//
// This function provides a postgres pool connected to the database
// pointed by envvar MLRUN_TEST_DB.
// The database should have the latest schema applied already.
//
// When MLRUN_TEST_DB is not set, the calling test is skipped.
//
// # Args
//
// - ctx: When this context is canceled, the database connection behind the pool will be lost.
//
// - t: scope of the PoolBroaker.
// When this test is finished, the broaker will be shutdown.
func NewPoolBroaker(ctx context.Context, t *testing.T, options ...PgConnOption) PoolBroaker {
	t.Helper()

	dburl := os.Getenv(ENV_MLRUN_TEST_DB)
	if dburl == "" {
		t.Skipf("envvar %s is not set. skipped.", ENV_MLRUN_TEST_DB)
	}

	opts := &pgConnOptions{}
	for _, o := range options {
		opts = o(opts)
	}

	pool, err := pgxpool.Connect(ctx, dburl)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	if opts.DoNotCleanup {
		return &pgNoClean{pool: pool}
	} else {
		return &pg{pool: pool}
	}
}

func ClearTables(ctx context.Context, p *pgxpool.Pool, t *testing.T) {
	t.Helper()

	conn, err := p.Acquire(ctx)
	defer conn.Release()

	if err != nil {
		t.Errorf("fail to clean-up tables.: %v", err)
	}

	for _, command := range []string{
		`truncate "project" RESTART IDENTITY cascade`,
		`truncate "keychain" RESTART IDENTITY cascade`,
		`truncate "garbage" RESTART IDENTITY cascade`,
		// by cascade, all row in tables should be deleted.
	} {
		_, err = conn.Exec(ctx, command)
		if err != nil {
			t.Errorf("fail to clean-up tables.: %v", err)
		}
	}
}
