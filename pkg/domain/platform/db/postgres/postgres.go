package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
	martifact "github.com/quaark/mlrun-remote-project/pkg/domain/artifact/db"
	mpgartifact "github.com/quaark/mlrun-remote-project/pkg/domain/artifact/db/postgres"
	mfunction "github.com/quaark/mlrun-remote-project/pkg/domain/function/db"
	mpgfunction "github.com/quaark/mlrun-remote-project/pkg/domain/function/db/postgres"
	mgarbage "github.com/quaark/mlrun-remote-project/pkg/domain/garbage/db"
	mpggarbage "github.com/quaark/mlrun-remote-project/pkg/domain/garbage/db/postgres"
	mkeychain "github.com/quaark/mlrun-remote-project/pkg/domain/keychain/db"
	mpgkeychain "github.com/quaark/mlrun-remote-project/pkg/domain/keychain/db/postgres"
	dbInterface "github.com/quaark/mlrun-remote-project/pkg/domain/platform/db"
	mproject "github.com/quaark/mlrun-remote-project/pkg/domain/project/db"
	mpgproject "github.com/quaark/mlrun-remote-project/pkg/domain/project/db/postgres"
	mrun "github.com/quaark/mlrun-remote-project/pkg/domain/run/db"
	mpgrun "github.com/quaark/mlrun-remote-project/pkg/domain/run/db/postgres"
	mschema "github.com/quaark/mlrun-remote-project/pkg/domain/schema/db"
	mpgschema "github.com/quaark/mlrun-remote-project/pkg/domain/schema/db/postgres"
	mserving "github.com/quaark/mlrun-remote-project/pkg/domain/serving/db"
	mpgserving "github.com/quaark/mlrun-remote-project/pkg/domain/serving/db/postgres"
	mworkflow "github.com/quaark/mlrun-remote-project/pkg/domain/workflow/db"
	mpgworkflow "github.com/quaark/mlrun-remote-project/pkg/domain/workflow/db/postgres"
	xe "github.com/quaark/mlrun-remote-project/pkg/errors"
)

type mlrunDBPostgres struct {
	pool     *pgxpool.Pool
	project  mproject.Interface
	function mfunction.Interface
	workflow mworkflow.Interface
	runs     mrun.Interface
	artifact martifact.Interface
	serving  mserving.Interface
	garbage  mgarbage.Interface
	schema   mschema.SchemaInterface
	keychain mkeychain.KeychainInterface
}

type Config struct {
	SchemaRepository string
}

type Option func(*Config) *Config

// WithSchemaRepository points the schema gate at the directory
// holding versioned schema definitions.
//
// Without this, the gate is disabled and Upgrade is a no-op.
func WithSchemaRepository(repository string) Option {
	return func(c *Config) *Config {
		c.SchemaRepository = repository
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (dbInterface.Database, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	c := Config{}
	for _, option := range options {
		c = *option(&c)
	}

	p := kpool.Wrap(pool)
	var schema mschema.SchemaInterface = mpgschema.Null()
	if c.SchemaRepository != "" {
		schema = mpgschema.New(p, c.SchemaRepository)
	}

	return &mlrunDBPostgres{
		pool:     pool,
		project:  mpgproject.New(p),
		function: mpgfunction.New(p),
		workflow: mpgworkflow.New(p),
		runs:     mpgrun.New(p),
		artifact: mpgartifact.New(p),
		serving:  mpgserving.New(p),
		garbage:  mpggarbage.New(p),
		schema:   schema,
		keychain: mpgkeychain.New(p),
	}, nil
}

func (m *mlrunDBPostgres) Project() mproject.Interface {
	return m.project
}

func (m *mlrunDBPostgres) Function() mfunction.Interface {
	return m.function
}

func (m *mlrunDBPostgres) Workflow() mworkflow.Interface {
	return m.workflow
}

func (m *mlrunDBPostgres) Run() mrun.Interface {
	return m.runs
}

func (m *mlrunDBPostgres) Artifact() martifact.Interface {
	return m.artifact
}

func (m *mlrunDBPostgres) Serving() mserving.Interface {
	return m.serving
}

func (m *mlrunDBPostgres) Garbage() mgarbage.Interface {
	return m.garbage
}

func (m *mlrunDBPostgres) Schema() mschema.SchemaInterface {
	return m.schema
}

func (m *mlrunDBPostgres) Keychain() mkeychain.KeychainInterface {
	return m.keychain
}

func (m *mlrunDBPostgres) Close() error {
	m.pool.Close()
	return nil
}
