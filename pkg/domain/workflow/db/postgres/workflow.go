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
	kwfdb "github.com/quaark/mlrun-remote-project/pkg/domain/workflow/db"
)

type pgWorkflow struct { // implements db.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *pgWorkflow {
	return &pgWorkflow{pool: pool}
}

func (m *pgWorkflow) Upsert(ctx context.Context, w domain.Workflow) (domain.Workflow, error) {
	if err := domain.ValidateSteps(w.Steps); err != nil {
		return domain.Workflow{}, err
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.Workflow{}, err
	}
	defer tx.Rollback(ctx)

	// Take lock so that the project cannot be dropped before commit.
	var projectName string
	if err := tx.QueryRow(
		ctx,
		`select "name" from "project" where "name" = $1 for share`,
		w.ProjectName,
	).Scan(&projectName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Workflow{}, kerrpg.Missing{
				Table:    "project",
				Identity: fmt.Sprintf("name='%s'", w.ProjectName),
			}
		}
		return domain.Workflow{}, err
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "workflow" ("project_name", "name", "updated_at")
		values ($1, $2, now())
		on conflict ("project_name", "name") do update set "updated_at" = now()
		`,
		w.ProjectName, w.Name,
	); err != nil {
		return domain.Workflow{}, err
	}

	// replace the whole step graph. step_need, step_param and step_model
	// records follow workflow_step by cascade.
	if _, err := tx.Exec(
		ctx,
		`delete from "workflow_step" where "project_name" = $1 and "workflow_name" = $2`,
		w.ProjectName, w.Name,
	); err != nil {
		return domain.Workflow{}, err
	}

	stepNames := make([]string, len(w.Steps))
	stepFunctions := make([]string, len(w.Steps))
	stepHandlers := make([]string, len(w.Steps))
	stepSeqs := make([]int, len(w.Steps))
	needSteps, needNames := []string{}, []string{}
	paramSteps, paramKeys, paramValues := []string{}, []string{}, []string{}
	modelSteps, modelNames, modelArtifacts := []string{}, []string{}, []string{}
	for i, s := range w.Steps {
		stepNames[i] = s.Name
		stepFunctions[i] = s.FunctionName
		stepHandlers[i] = s.Handler
		stepSeqs[i] = i
		for _, n := range s.Needs {
			needSteps = append(needSteps, s.Name)
			needNames = append(needNames, n)
		}
		for key, value := range s.Params {
			paramSteps = append(paramSteps, s.Name)
			paramKeys = append(paramKeys, key)
			paramValues = append(paramValues, value)
		}
		for model, artifact := range s.Models {
			modelSteps = append(modelSteps, s.Name)
			modelNames = append(modelNames, model)
			modelArtifacts = append(modelArtifacts, artifact)
		}
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "workflow_step"
		("project_name", "workflow_name", "name", "function_name", "handler", "seq")
		select
			$1, $2,
			unnest($3::varchar[]) as "name",
			unnest($4::varchar[]) as "function_name",
			unnest($5::varchar[]) as "handler",
			unnest($6::int[]) as "seq"
		`,
		w.ProjectName, w.Name, stepNames, stepFunctions, stepHandlers, stepSeqs,
	); err != nil {
		return domain.Workflow{}, err
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "step_need" ("project_name", "workflow_name", "step_name", "needs")
		select
			$1, $2,
			unnest($3::varchar[]) as "step_name",
			unnest($4::varchar[]) as "needs"
		`,
		w.ProjectName, w.Name, needSteps, needNames,
	); err != nil {
		return domain.Workflow{}, err
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "step_param" ("project_name", "workflow_name", "step_name", "key", "value")
		select
			$1, $2,
			unnest($3::varchar[]) as "step_name",
			unnest($4::varchar[]) as "key",
			unnest($5::varchar[]) as "value"
		`,
		w.ProjectName, w.Name, paramSteps, paramKeys, paramValues,
	); err != nil {
		return domain.Workflow{}, err
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "step_model" ("project_name", "workflow_name", "step_name", "model", "artifact")
		select
			$1, $2,
			unnest($3::varchar[]) as "step_name",
			unnest($4::varchar[]) as "model",
			unnest($5::varchar[]) as "artifact"
		`,
		w.ProjectName, w.Name, modelSteps, modelNames, modelArtifacts,
	); err != nil {
		return domain.Workflow{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Workflow{}, err
	}

	got, err := m.Get(ctx, w.ProjectName, []string{w.Name})
	if err != nil {
		return domain.Workflow{}, err
	}
	stored, ok := got[w.Name]
	if !ok {
		return domain.Workflow{}, kerrpg.Missing{
			Table:    "workflow",
			Identity: fmt.Sprintf("project_name='%s', name='%s'", w.ProjectName, w.Name),
		}
	}
	return stored, nil
}

func (m *pgWorkflow) Get(ctx context.Context, projectName string, names []string) (map[string]domain.Workflow, error) {
	if len(names) == 0 {
		return map[string]domain.Workflow{}, nil
	}

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return kpgintr.GetWorkflow(ctx, conn, projectName, names)
}

func (m *pgWorkflow) Find(ctx context.Context, projectName string) ([]string, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`select "name" from "workflow" where "project_name" = $1 order by "name"`,
		projectName,
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

func (m *pgWorkflow) Delete(ctx context.Context, projectName string, name string) error {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`delete from "workflow" where "project_name" = $1 and "name" = $2`,
		projectName, name,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kerrpg.Missing{
			Table:    "workflow",
			Identity: fmt.Sprintf("project_name='%s', name='%s'", projectName, name),
		}
	}
	return nil
}

var _ kwfdb.Interface = &pgWorkflow{}
