package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kerrpg "github.com/quaark/mlrun-remote-project/pkg/domain/errors/dberrors/postgres"
	kprj "github.com/quaark/mlrun-remote-project/pkg/domain/project/db"
)

type pgProject struct { // implements db.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) kprj.Interface {
	return &pgProject{pool: pool}
}

func (m *pgProject) Register(ctx context.Context, name string, source string) (domain.Project, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	defer conn.Release()

	// insert if needed, and read back whichever row won.
	p := domain.Project{}
	if err := conn.QueryRow(
		ctx,
		`
		with "new_project" as (
			insert into "project" ("name", "source") values ($1, $2)
			on conflict ("name") do nothing
			returning "name", "source", "created_at"
		)
		select "name", "source", "created_at" from "new_project"
		union
		select "name", "source", "created_at" from "project" where "name" = $1
		limit 1
		`,
		name, source,
	).Scan(&p.Name, &p.Source, &p.CreatedAt); err != nil {
		return domain.Project{}, err
	}

	return p, nil
}

func (m *pgProject) Get(ctx context.Context, names []string) (map[string]domain.Project, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "name", "source", "created_at" from "project"
		where "name" = any($1::varchar[])
		`,
		names,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := map[string]domain.Project{}
	for rows.Next() {
		p := domain.Project{}
		if err := rows.Scan(&p.Name, &p.Source, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects[p.Name] = p
	}

	return projects, nil
}

func (m *pgProject) Find(ctx context.Context) ([]string, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx, `select "name" from "project" order by "name"`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, nil
}

func (m *pgProject) Delete(ctx context.Context, name string) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked string
	if err := tx.QueryRow(
		ctx,
		`select "name" from "project" where "name" = $1 for update`,
		name,
	).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kerrpg.Missing{
				Table: "project", Identity: fmt.Sprintf("name='%s'", name),
			}
		}
		return err
	}

	var active int
	if err := tx.QueryRow(
		ctx,
		`
		select count(*) from "run"
		where "project_name" = $1
			and "status" not in ('done', 'failed', 'invalidated')
		`,
		name,
	).Scan(&active); err != nil {
		return err
	}
	if 0 < active {
		return domain.ErrProjectActive
	}

	var endpoints int
	if err := tx.QueryRow(
		ctx,
		`select count(*) from "endpoint" where "project_name" = $1`,
		name,
	).Scan(&endpoints); err != nil {
		return err
	}
	if 0 < endpoints {
		return domain.ErrProjectActive
	}

	// move artifact keys to garbage before cascading delete loses them.
	if _, err := tx.Exec(
		ctx,
		`
		with "del_artifact" as (
			delete from "artifact" where "project_name" = $1
			returning "key", "run_id"
		)
		insert into "garbage" ("key", "run_id")
		select "key", "run_id" from "del_artifact"
		`,
		name,
	); err != nil {
		return err
	}

	// the source archive, if uploaded, lives outside the artifact table.
	// Sweeping a key which was never uploaded is harmless.
	if _, err := tx.Exec(
		ctx,
		`
		insert into "garbage" ("key", "run_id") values ($1, '')
		on conflict ("key") do nothing
		`,
		domain.ProjectSourceKey(name),
	); err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx, `delete from "project" where "name" = $1`, name,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
