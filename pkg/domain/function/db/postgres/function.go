package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kerrpg "github.com/quaark/mlrun-remote-project/pkg/domain/errors/dberrors/postgres"
	kfndb "github.com/quaark/mlrun-remote-project/pkg/domain/function/db"
	kpgintr "github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres"
	"github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres/marshal"
	"github.com/quaark/mlrun-remote-project/pkg/utils"
)

type pgFunction struct { // implements db.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *pgFunction {
	return &pgFunction{pool: pool}
}

func (m *pgFunction) Upsert(ctx context.Context, f domain.FunctionBody) (domain.Function, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.Function{}, err
	}
	defer tx.Rollback(ctx)

	// Take lock so that the project cannot be dropped before commit.
	var projectName string
	if err := tx.QueryRow(
		ctx,
		`select "name" from "project" where "name" = $1 for share`,
		f.ProjectName,
	).Scan(&projectName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Function{}, kerrpg.Missing{
				Table:    "project",
				Identity: fmt.Sprintf("name='%s'", f.ProjectName),
			}
		}
		return domain.Function{}, err
	}

	image, version := "", ""
	if f.Image != nil {
		image, version = f.Image.Image, f.Image.Version
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "function"
		("project_name", "name", "kind", "image", "image_version", "handler", "source", "updated_at")
		values ($1, $2, $3::functionKind, $4, $5, $6, $7, now())
		on conflict ("project_name", "name") do update set
			"kind" = excluded."kind",
			"image" = excluded."image",
			"image_version" = excluded."image_version",
			"handler" = excluded."handler",
			"source" = excluded."source",
			"updated_at" = now()
		`,
		f.ProjectName, f.Name, string(f.Kind),
		image, version, f.Handler, f.Source,
	); err != nil {
		return domain.Function{}, err
	}

	if _, err := tx.Exec(
		ctx,
		`delete from "function_resource" where "project_name" = $1 and "function_name" = $2`,
		f.ProjectName, f.Name,
	); err != nil {
		return domain.Function{}, err
	}

	resourceTypes := []string{}
	resourceValues := []marshal.ResourceQuantity{}
	for typ, val := range f.Resources {
		resourceTypes = append(resourceTypes, typ)
		resourceValues = append(resourceValues, marshal.ResourceQuantity(val))
	}
	if _, err := tx.Exec(
		ctx,
		`
		insert into "function_resource" ("project_name", "function_name", "type", "value")
		select
			$1, $2,
			unnest($3::varchar[]) as "type",
			unnest($4::varchar[]) as "value"
		`,
		f.ProjectName, f.Name, resourceTypes, resourceValues,
	); err != nil {
		return domain.Function{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Function{}, err
	}

	got, err := m.Get(ctx, f.ProjectName, []string{f.Name})
	if err != nil {
		return domain.Function{}, err
	}
	fn, ok := got[f.Name]
	if !ok {
		return domain.Function{}, kerrpg.Missing{
			Table:    "function",
			Identity: fmt.Sprintf("project_name='%s', name='%s'", f.ProjectName, f.Name),
		}
	}
	return fn, nil
}

func (m *pgFunction) Get(ctx context.Context, projectName string, names []string) (map[string]domain.Function, error) {
	if len(names) == 0 {
		return map[string]domain.Function{}, nil
	}

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return kpgintr.GetFunction(ctx, conn, projectName, names)
}

func (m *pgFunction) Find(ctx context.Context, query domain.FunctionFindQuery) ([]domain.Function, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	type key struct {
		projectName string
		name        string
	}
	keys := []key{}
	names := map[string][]string{}
	{
		rows, err := conn.Query(
			ctx,
			`
			select "project_name", "name" from "function"
			where
				($1 or "project_name" = ANY($2::varchar[]))
				and ($3 or "kind" = ANY($4::functionKind[]))
			order by "project_name", "name"
			`,
			len(query.ProjectName) == 0, query.ProjectName,
			len(query.Kind) == 0, utils.Map(
				query.Kind, func(k domain.FunctionKind) string { return string(k) },
			),
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var k key
			if err := rows.Scan(&k.projectName, &k.name); err != nil {
				return nil, err
			}
			keys = append(keys, k)
			names[k.projectName] = append(names[k.projectName], k.name)
		}
	}

	fetched := map[string]map[string]domain.Function{}
	for projectName, ns := range names {
		fns, err := kpgintr.GetFunction(ctx, conn, projectName, ns)
		if err != nil {
			return nil, err
		}
		fetched[projectName] = fns
	}

	result := []domain.Function{}
	for _, k := range keys {
		if f, ok := fetched[k.projectName][k.name]; ok {
			result = append(result, f)
		}
	}
	return result, nil
}

func (m *pgFunction) Delete(ctx context.Context, projectName string, name string) error {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`delete from "function" where "project_name" = $1 and "name" = $2`,
		projectName, name,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kerrpg.Missing{
			Table:    "function",
			Identity: fmt.Sprintf("project_name='%s', name='%s'", projectName, name),
		}
	}
	return nil
}

var _ kfndb.Interface = &pgFunction{}
