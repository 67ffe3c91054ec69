package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kerrpg "github.com/quaark/mlrun-remote-project/pkg/domain/errors/dberrors/postgres"
	kpgintr "github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres"
	kdbserving "github.com/quaark/mlrun-remote-project/pkg/domain/serving/db"
	"github.com/quaark/mlrun-remote-project/pkg/utils"
)

type pgServing struct { // implements db.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *pgServing {
	return &pgServing{pool: pool}
}

func (m *pgServing) Register(ctx context.Context, endpoint domain.Endpoint) (domain.Endpoint, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.Endpoint{}, err
	}
	defer tx.Rollback(ctx)

	// Take lock so that the run cannot be purged before commit.
	var runProject string
	if err := tx.QueryRow(
		ctx,
		`select "project_name" from "run" where "run_id" = $1 for share`,
		endpoint.RunId,
	).Scan(&runProject); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Endpoint{}, kerrpg.Missing{
				Table:    "run",
				Identity: fmt.Sprintf("run_id='%s'", endpoint.RunId),
			}
		}
		return domain.Endpoint{}, err
	}
	if runProject != endpoint.ProjectName {
		return domain.Endpoint{}, fmt.Errorf(
			"endpoint '%s' names project '%s', but run '%s' belongs to '%s'",
			endpoint.Name, endpoint.ProjectName, endpoint.RunId, runProject,
		)
	}

	var stored domain.Endpoint
	var status kpgintr.EndpointStatus
	if err := tx.QueryRow(
		ctx,
		`
		insert into "endpoint"
		("name", "project_name", "model_name", "run_id", "service", "port")
		values ($1, $2, $3, $4, $5, $6)
		on conflict ("name") do update set
			"project_name" = excluded."project_name",
			"model_name" = excluded."model_name",
			"run_id" = excluded."run_id",
			"service" = excluded."service",
			"port" = excluded."port",
			"status" = 'deploying',
			"updated_at" = now()
		returning
			"name", "project_name", "model_name", "run_id",
			"service", "port", "status", "updated_at"
		`,
		endpoint.Name, endpoint.ProjectName, endpoint.ModelName,
		endpoint.RunId, endpoint.Service, endpoint.Port,
	).Scan(
		&stored.Name, &stored.ProjectName, &stored.ModelName, &stored.RunId,
		&stored.Service, &stored.Port, &status, &stored.UpdatedAt,
	); err != nil {
		return domain.Endpoint{}, err
	}
	stored.Status = domain.EndpointStatus(status)

	if err := tx.Commit(ctx); err != nil {
		return domain.Endpoint{}, err
	}
	return stored, nil
}

func (m *pgServing) Get(ctx context.Context, names []string) (map[string]domain.Endpoint, error) {
	if len(names) == 0 {
		return map[string]domain.Endpoint{}, nil
	}

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return kpgintr.GetEndpoint(ctx, conn, names)
}

func (m *pgServing) Find(ctx context.Context, query domain.EndpointFindQuery) ([]string, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "name" from "endpoint"
		where
			($1 or "project_name" = ANY($2::varchar[]))
			and ($3 or "model_name" = ANY($4::varchar[]))
			and ($5 or "status" = ANY($6::endpointStatus[]))
		order by "updated_at", "name"
		`,
		len(query.ProjectName) == 0, query.ProjectName,
		len(query.ModelName) == 0, query.ModelName,
		len(query.Status) == 0, utils.Map(
			query.Status, func(s domain.EndpointStatus) string { return string(s) },
		),
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

// rank orders statuses along the endpoint lifecycle.
func rank(s domain.EndpointStatus) int {
	switch s {
	case domain.Deploying:
		return 0
	case domain.EndpointReady:
		return 1
	case domain.Retired:
		return 2
	}
	return -1
}

func (m *pgServing) SetStatus(ctx context.Context, name string, status domain.EndpointStatus) (domain.Endpoint, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.Endpoint{}, err
	}
	defer tx.Rollback(ctx)

	var current kpgintr.EndpointStatus
	if err := tx.QueryRow(
		ctx,
		`select "status" from "endpoint" where "name" = $1 for update`,
		name,
	).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Endpoint{}, kerrpg.Missing{
				Table:    "endpoint",
				Identity: fmt.Sprintf("name='%s'", name),
			}
		}
		return domain.Endpoint{}, err
	}

	if rank(status) < rank(domain.EndpointStatus(current)) {
		return domain.Endpoint{}, domain.NewErrInvalidEndpointStateChanging(
			domain.EndpointStatus(current), status,
		)
	}

	if domain.EndpointStatus(current) != status {
		if _, err := tx.Exec(
			ctx,
			`update "endpoint" set "status" = $1::endpointStatus, "updated_at" = now() where "name" = $2`,
			string(status), name,
		); err != nil {
			return domain.Endpoint{}, err
		}
	}

	endpoints, err := kpgintr.GetEndpoint(ctx, tx, []string{name})
	if err != nil {
		return domain.Endpoint{}, err
	}
	stored, ok := endpoints[name]
	if !ok {
		return domain.Endpoint{}, kerrpg.Missing{
			Table:    "endpoint",
			Identity: fmt.Sprintf("name='%s'", name),
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Endpoint{}, err
	}
	return stored, nil
}

func (m *pgServing) Delete(ctx context.Context, name string) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var current kpgintr.EndpointStatus
	if err := tx.QueryRow(
		ctx,
		`select "status" from "endpoint" where "name" = $1 for update`,
		name,
	).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kerrpg.Missing{
				Table:    "endpoint",
				Identity: fmt.Sprintf("name='%s'", name),
			}
		}
		return err
	}
	if domain.EndpointStatus(current) != domain.Retired {
		return fmt.Errorf(
			"%w: endpoint '%s' is %s: cannot be deleted",
			domain.ErrInvalidEndpointStateChanging, name, current,
		)
	}

	if _, err := tx.Exec(
		ctx, `delete from "endpoint" where "name" = $1`, name,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

var _ kdbserving.Interface = &pgServing{}
