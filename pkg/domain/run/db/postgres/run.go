package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kerrpg "github.com/quaark/mlrun-remote-project/pkg/domain/errors/dberrors/postgres"
	kpgintr "github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres"
	krundb "github.com/quaark/mlrun-remote-project/pkg/domain/run/db"
	"github.com/quaark/mlrun-remote-project/pkg/utils"
)

type NamingConvention interface {
	Worker(runId string) (workerName string, err error)
}

type PrefixNamingConvention struct {
	PrefixWorker string
}

func (p PrefixNamingConvention) Worker(runId string) (string, error) {
	return p.PrefixWorker + runId, nil
}

var defaultRunNamingConvention = PrefixNamingConvention{
	PrefixWorker: "worker-run-",
}

func DefaultNamingConvention() NamingConvention {
	return defaultRunNamingConvention
}

// a struct for DB operations related to Run
type runPG struct { // implements db.Interface
	// Db connection pool
	pool kpool.Pool
	// Naming convention object for worker name
	naming NamingConvention
}

type Option func(*runPG) *runPG

func WithNamingConvention(n NamingConvention) Option {
	return func(r *runPG) *runPG {
		r.naming = n
		return r
	}
}

func New(pool kpool.Pool, options ...Option) *runPG {
	r := &runPG{
		pool:   pool,
		naming: DefaultNamingConvention(),
	}
	for _, o := range options {
		r = o(r)
	}
	return r
}

// &runPG implements db.Interface
var _ krundb.Interface = &runPG{}

func (m *runPG) NewPipeline(
	ctx context.Context, projectName string, workflowName string,
	params map[string]map[string]string,
) (string, error) {

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	// Take lock so that the workflow cannot be dropped before commit.
	var locked string
	if err := tx.QueryRow(
		ctx,
		`select "name" from "workflow" where "project_name" = $1 and "name" = $2 for share`,
		projectName, workflowName,
	).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", kerrpg.Missing{
				Table:    "workflow",
				Identity: fmt.Sprintf("project_name='%s', name='%s'", projectName, workflowName),
			}
		}
		return "", err
	}

	wfs, err := kpgintr.GetWorkflow(ctx, tx, projectName, []string{workflowName})
	if err != nil {
		return "", err
	}
	wf, ok := wfs[workflowName]
	if !ok {
		return "", kerrpg.Missing{
			Table:    "workflow",
			Identity: fmt.Sprintf("project_name='%s', name='%s'", projectName, workflowName),
		}
	}

	fns, err := kpgintr.GetFunction(
		ctx, tx, projectName,
		utils.Map(wf.Steps, func(s domain.WorkflowStep) string { return s.FunctionName }),
	)
	if err != nil {
		return "", err
	}
	for _, step := range wf.Steps {
		if _, ok := fns[step.FunctionName]; !ok {
			return "", kerrpg.Missing{
				Table: "function",
				Identity: fmt.Sprintf(
					"project_name='%s', name='%s' (wanted by step '%s')",
					projectName, step.FunctionName, step.Name,
				),
			}
		}
	}

	pipelineRunId := uuid.NewString()
	if _, err := tx.Exec(
		ctx,
		`insert into "run" ("run_id", "project_name", "workflow_name") values ($1, $2, $3)`,
		pipelineRunId, projectName, workflowName,
	); err != nil {
		return "", err
	}

	stepRunIds := map[string]string{}
	for _, step := range wf.Steps {
		stepRunIds[step.Name] = uuid.NewString()
	}

	for _, step := range wf.Steps {
		runId := stepRunIds[step.Name]
		fn := fns[step.FunctionName]

		if _, err := tx.Exec(
			ctx,
			`insert into "run" ("run_id", "project_name", "workflow_name") values ($1, $2, $3)`,
			runId, projectName, workflowName,
		); err != nil {
			return "", err
		}

		image, version := "", ""
		if fn.Image != nil {
			image, version = fn.Image.Image, fn.Image.Version
		}
		handler := step.Handler
		if handler == "" {
			handler = fn.Handler
		}
		if _, err := tx.Exec(
			ctx,
			`
			insert into "run_step"
			("run_id", "pipeline_run_id", "step_name", "function_name", "function_kind", "image", "image_version", "handler", "source")
			values ($1, $2, $3, $4, $5::functionKind, $6, $7, $8, $9)
			`,
			runId, pipelineRunId, step.Name,
			fn.Name, string(fn.Kind), image, version, handler, fn.Source,
		); err != nil {
			return "", err
		}

		for _, needs := range step.Needs {
			if _, err := tx.Exec(
				ctx,
				`insert into "run_dep" ("run_id", "needs_run_id") values ($1, $2)`,
				runId, stepRunIds[needs],
			); err != nil {
				return "", err
			}
		}

		merged := map[string]string{}
		for key, value := range step.Params {
			merged[key] = value
		}
		for key, value := range params[step.Name] {
			merged[key] = value
		}
		for key, value := range merged {
			if _, err := tx.Exec(
				ctx,
				`insert into "run_param" ("run_id", "key", "value") values ($1, $2, $3)`,
				runId, key, value,
			); err != nil {
				return "", err
			}
		}

		for model, artifact := range step.Models {
			if _, err := tx.Exec(
				ctx,
				`insert into "run_model" ("run_id", "model", "artifact") values ($1, $2, $3)`,
				runId, model, artifact,
			); err != nil {
				return "", err
			}
		}

		// resource requirements follow the function, frozen as of now.
		if _, err := tx.Exec(
			ctx,
			`
			insert into "run_resource" ("run_id", "type", "value")
			select $1, "type", "value" from "function_resource"
			where "project_name" = $2 and "function_name" = $3
			`,
			runId, projectName, fn.Name,
		); err != nil {
			return "", err
		}
	}

	if err := m.setWorker(ctx, tx, utils.ValuesOf(stepRunIds)...); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}

	return pipelineRunId, nil
}

// reserve worker names for step runs.
func (m *runPG) setWorker(ctx context.Context, conn kpool.Queryer, runId ...string) error {
	for _, r := range runId {
		workerName, err := m.naming.Worker(r)
		if err != nil {
			return err
		}
		if _, err := conn.Exec(
			ctx,
			`
			insert into "worker" ("run_id", "name")
			select "run_id", $2 as "name"
			from "run_step" where "run_id" = $1
			on conflict do nothing
			`,
			r, workerName,
		); err != nil {
			return err
		}
	}
	return nil
}

func (m *runPG) Get(ctx context.Context, runId []string) (map[string]domain.Run, error) {
	if len(runId) == 0 {
		return map[string]domain.Run{}, nil
	}

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return kpgintr.GetRun(ctx, conn, runId)
}

func (m *runPG) GetPipeline(ctx context.Context, runId string) (domain.PipelineRun, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.PipelineRun{}, err
	}
	defer conn.Release()

	stepIds := []string{}
	{
		rows, err := conn.Query(
			ctx,
			`
			select "run_id" from "run_step"
			inner join "run" using ("run_id")
			where "pipeline_run_id" = $1
			order by "updated_at", "run_id"
			`,
			runId,
		)
		if err != nil {
			return domain.PipelineRun{}, err
		}
		defer rows.Close()
		for rows.Next() {
			var stepId string
			if err := rows.Scan(&stepId); err != nil {
				return domain.PipelineRun{}, err
			}
			stepIds = append(stepIds, stepId)
		}
	}

	runs, err := kpgintr.GetRun(ctx, conn, append(stepIds, runId))
	if err != nil {
		return domain.PipelineRun{}, err
	}
	pipeline, ok := runs[runId]
	if !ok || pipeline.PipelineRunId != "" {
		return domain.PipelineRun{}, kerrpg.Missing{
			Table:    "run",
			Identity: fmt.Sprintf("pipeline run_id=%s", runId),
		}
	}

	return domain.PipelineRun{
		Run:   pipeline,
		Steps: utils.Map(stepIds, func(stepId string) domain.Run { return runs[stepId] }),
	}, nil
}

func (m *runPG) Find(ctx context.Context, query domain.RunFindQuery) ([]string, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	runIds := []string{}
	rows, err := conn.Query(
		ctx,
		`
		select "run"."run_id"
		from "run"
		left outer join "run_step" using ("run_id")
		where
			($1 or "project_name" = ANY($2::varchar[]))
			and ($3 or "workflow_name" = ANY($4::varchar[]))
			and ($5 or "status" = ANY($6::runStatus[]))
			and ($7::timestamp with time zone is null or "updated_at" >= $7::timestamp with time zone)
			and ($8::timestamp with time zone is null or "updated_at" < $8::timestamp with time zone)
			and (not $9 or "run_step"."run_id" is null)
			and (not $10 or "run_step"."run_id" is not null)
		order by "updated_at", "run"."run_id"
		`,
		len(query.ProjectName) == 0, query.ProjectName,
		len(query.WorkflowName) == 0, query.WorkflowName,
		len(query.Status) == 0, utils.Map(query.Status, domain.RunStatus.String),
		query.UpdatedSince, query.UpdatedUntil,
		query.Scope == domain.ScopePipeline,
		query.Scope == domain.ScopeStep,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var runId string
		if err := rows.Scan(&runId); err != nil {
			return nil, err
		}
		runIds = append(runIds, runId)
	}

	return runIds, nil
}

func (m *runPG) SetStatus(ctx context.Context, runId string, newStatus domain.RunStatus) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := m.setStatus(ctx, tx, runId, newStatus, 0); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (m *runPG) setStatus(
	ctx context.Context, tx kpool.Tx, runId string,
	newStatus domain.RunStatus, debounceIfNotChanged time.Duration,
) (bool, error) {
	var current domain.RunStatus
	{
		var _current kpgintr.RunStatus
		if err := tx.QueryRow(
			ctx,
			`select "status" from "run" where "run_id" = $1 for update`,
			runId,
		).Scan(&_current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, kerrpg.Missing{
					Table:    "run",
					Identity: fmt.Sprintf("run_id=%s", runId),
				}
			}
			return false, err
		}
		current = domain.RunStatus(_current)
	}

	allowed := false
	switch current {
	case domain.Invalidated, domain.Done, domain.Failed:
		allowed = false
	case newStatus:
		// keep the status. just suspend the next pick for a while.
		if _, err := tx.Exec(
			ctx,
			`
			update "run" set
				"lifecycle_suspend_until" = now() + $1
			where "run_id" = $2
			`,
			debounceIfNotChanged, runId,
		); err != nil {
			return false, err
		}

		return false, nil
	case domain.Waiting:
		switch newStatus {
		case domain.Ready, domain.Running, domain.Aborting:
			allowed = true
		}
	case domain.Ready:
		switch newStatus {
		case domain.Starting, domain.Running, domain.Aborting, domain.Completing:
			allowed = true
		}
	case domain.Starting:
		switch newStatus {
		case domain.Running, domain.Aborting, domain.Completing:
			allowed = true
		}
	case domain.Running:
		switch newStatus {
		case domain.Aborting, domain.Completing:
			allowed = true
		}
	case domain.Aborting:
		if newStatus == domain.Failed {
			if err := m.finish(ctx, tx, runId); err != nil {
				return false, err
			}
			return true, nil
		}
	case domain.Completing:
		if newStatus == domain.Done {
			if err := m.finish(ctx, tx, runId); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	if !allowed {
		return false, fmt.Errorf(
			"%w: %s -> %s",
			domain.ErrInvalidRunStateChanging, current, newStatus,
		)
	}

	cmd, err := tx.Exec(
		ctx,
		`
		update "run" set
			"status" = $1,
			"updated_at" = now(),
			"lifecycle_suspend_until" = now()
		where "run_id" = $2
		`,
		newStatus, runId,
	)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 0 {
		return false, kerrpg.Missing{
			Table:    "run",
			Identity: fmt.Sprintf("updating run_id='%s'", runId),
		}
	}

	return true, nil
}

// finish specified run.
//
// # Args
//
// - context.Context
//
// - Tx
//
// - runId string: runId of finishing run.
// YOU SHOULD TAKE LOCK OF IT BEFORE CALL.
func (m *runPG) finish(ctx context.Context, tx kpool.Tx, runId string) error {
	var runStatus kpgintr.RunStatus
	if err := tx.QueryRow(
		ctx,
		`select "status" from "run" where "run_id" = $1`,
		runId,
	).Scan(&runStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kerrpg.Missing{
				Table:    "run",
				Identity: fmt.Sprintf("Run (id='%s')", runId),
			}
		}
		return err
	}

	var statusShouldBe domain.RunStatus = domain.Failed
	switch s := domain.RunStatus(runStatus); s {
	case domain.Completing:
		statusShouldBe = domain.Done
	case domain.Aborting:
		statusShouldBe = domain.Failed
	default:
		return fmt.Errorf(
			`%w: run (id='%s', status='%s') has not started and stopped`,
			domain.NewErrInvalidRunStateChanging(s, domain.Done),
			runId, s,
		)
	}

	// stamp artifacts with the settled time.
	if _, err := tx.Exec(
		ctx,
		`update "artifact" set "updated_at" = now() where "run_id" = $1`,
		runId,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "run"
		set
			"updated_at" = now(),
			"lifecycle_suspend_until" = now(),
			"status" = $1
		where "status" = $2 and "run_id" = $3
		`,
		statusShouldBe, runStatus, runId,
	); err != nil {
		return err
	}

	return nil
}

func (m *runPG) Finish(ctx context.Context, runId string) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	{
		// take lock.
		var locked string
		if err := tx.QueryRow(
			ctx,
			`select "run_id" from "run" where "run_id" = $1 for update`,
			runId,
		).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return kerrpg.Missing{
					Table:    "run",
					Identity: fmt.Sprintf("Run (id='%s')", runId),
				}
			}
			return err
		}
	}

	if err := m.finish(ctx, tx, runId); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// select the run which satisfies the specified condition, and change its status.
func (m *runPG) PickAndSetStatus(
	ctx context.Context,
	cursor domain.RunCursor,
	task func(r domain.Run) (domain.RunStatus, error),
) (domain.RunCursor, bool, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return cursor, false, err
	}
	defer tx.Rollback(ctx)

	var run domain.Run
	{
		var runId string
		if err := tx.QueryRow(
			ctx,
			`
			with
			"_run" as (
				select "run"."run_id"
				from "run"
				left outer join "run_step" using ("run_id")
				where
					"status" = any($1::runStatus[])
					and "lifecycle_suspend_until" < now()
					and (not $2 or "run_step"."run_id" is null)
					and (not $3 or "run_step"."run_id" is not null)
			),
			"target_run" as (
				select "run_id" from "run"
				where "run_id" in (table "_run")
				order by "run_id" <= $4, "run_id"
				limit 1
				for no key update skip locked
			)
			select "run_id" from "target_run"
			`,
			utils.Map(cursor.Status, domain.RunStatus.String),
			cursor.Scope == domain.ScopePipeline,
			cursor.Scope == domain.ScopeStep,
			cursor.Head,
		).Scan(&runId); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return cursor, false, nil
			}
			return cursor, false, err
		}

		r, err := kpgintr.GetRun(ctx, tx, []string{runId})
		if err != nil {
			return cursor, false, err
		}
		run = r[runId]

		// cursor is moved!
		cursor = domain.RunCursor{
			Head:     runId,
			Status:   cursor.Status,
			Scope:    cursor.Scope,
			Debounce: cursor.Debounce,
		}
	}

	// exec task() and get its result.
	newStatus, err := task(run)
	if err != nil {
		return cursor, false, err
	}
	// according to the result above, reflect the new status to the database.
	statusChanged, err := m.setStatus(ctx, tx, run.Id, newStatus, cursor.Debounce)
	if err != nil {
		return cursor, false, err
	}
	// commit the transaction
	if err := tx.Commit(ctx); err != nil {
		return cursor, false, err
	}
	return cursor, statusChanged, nil
}

func (m *runPG) SetExit(ctx context.Context, runId string, exit domain.RunExit) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(
		ctx,
		`
		insert into "run_exit" ("run_id", "exit_code", "message")
		select "run_id", $2, $3 from "run" where "run_id" = $1
		on conflict ("run_id") do update
		set
			"exit_code" = $2,
			"message" = $3
		`,
		runId, exit.Code, exit.Message,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return kerrpg.Missing{
			Table:    "run",
			Identity: fmt.Sprintf("run_id=%s", runId),
		}
	}

	return tx.Commit(ctx)
}

type member struct {
	RunId  string
	Status domain.RunStatus
}

// lock the step runs of the pipeline run, in run id order.
//
// Invalidated step runs left by Retry are contained, too.
func (m *runPG) lockMembers(ctx context.Context, tx kpool.Tx, pipelineRunId string) ([]member, error) {
	members := []member{}
	rows, err := tx.Query(
		ctx,
		`
		select "run_id", "status" from "run_step"
		inner join "run" using ("run_id")
		where "pipeline_run_id" = $1
		order by "run_id"
		for update of "run"
		`,
		pipelineRunId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var mem member
		if err := rows.Scan(&mem.RunId, (*kpgintr.RunStatus)(&mem.Status)); err != nil {
			return nil, err
		}
		members = append(members, mem)
	}
	return members, nil
}

// protect returns error when the runs have workers or model endpoints.
func (m *runPG) protect(ctx context.Context, tx kpool.Tx, runIds []string) error {
	var endpoints, workers int
	if err := tx.QueryRow(
		ctx,
		`
		select
			(select count(*) from "endpoint" where "run_id" = any($1::varchar[])) as "n_endpoints",
			(select count(*) from "worker" where "run_id" = any($1::varchar[])) as "n_workers"
		`,
		runIds,
	).Scan(&endpoints, &workers); err != nil {
		return err
	}

	if 0 < endpoints {
		return fmt.Errorf(
			"%w: runId=%s: model endpoints are pointing at it",
			domain.ErrRunIsProtected, runIds[0],
		)
	}
	if 0 < workers {
		return fmt.Errorf(
			"%w: runId=%s: workers are not removed",
			domain.ErrWorkerActive, runIds[0],
		)
	}
	return nil
}

// move artifact records of the runs out to "garbage".
func (m *runPG) artifactsToGarbage(ctx context.Context, tx kpool.Tx, runIds []string) error {
	if _, err := tx.Exec(
		ctx,
		`
		with "dropped" as (
			delete from "artifact" where "run_id" = any($1::varchar[])
			returning "key", "run_id"
		)
		insert into "garbage" ("key", "run_id")
		select "key", "run_id" from "dropped"
		`,
		runIds,
	); err != nil {
		return err
	}
	return nil
}

func (m *runPG) delete(ctx context.Context, tx kpool.Tx, runId string) error {
	var status domain.RunStatus
	var isStep bool
	{
		var _status kpgintr.RunStatus
		if err := tx.QueryRow(
			ctx,
			`
			select
				"status",
				exists (select 1 from "run_step" where "run_id" = $1) as "is_step"
			from "run"
			where "run_id" = $1
			for update
			`,
			runId,
		).Scan(&_status, &isStep); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return kerrpg.Missing{
					Table:    "run",
					Identity: fmt.Sprintf("run_id=%s", runId),
				}
			}
			return err
		}
		status = domain.RunStatus(_status)
	}

	members, err := m.lockMembers(ctx, tx, runId)
	if err != nil {
		return err
	}
	family := append(
		[]string{runId},
		utils.Map(members, func(mem member) string { return mem.RunId })...,
	)

	if status == domain.Invalidated {
		// purge. workers on the cluster should be cleaned up beforehand.
		if err := m.protect(ctx, tx, family); err != nil {
			return err
		}
		if err := m.artifactsToGarbage(ctx, tx, family); err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx,
			`delete from "run" where "run_id" = any($1::varchar[])`,
			family,
		); err != nil {
			return err
		}
		return nil
	}

	if isStep {
		return fmt.Errorf(
			"%w: runId=%s: step runs follow their pipeline run",
			domain.ErrRunIsProtected, runId,
		)
	}

	switch status {
	case domain.Done, domain.Failed:
		// ok. it can be invalidated.
	default:
		return fmt.Errorf(
			"%w: runId=%s: cannot be deleted (current status: %s)",
			domain.ErrInvalidRunStateChanging, runId, status,
		)
	}

	if err := m.protect(ctx, tx, family); err != nil {
		return err
	}
	if err := m.artifactsToGarbage(ctx, tx, family); err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "run" set
			"status" = $1,
			"updated_at" = DEFAULT,
			"lifecycle_suspend_until" = now()
		where "run_id" = any($2::varchar[]) and "status" != 'invalidated'
		`,
		domain.Invalidated, family,
	); err != nil {
		return err
	}
	return nil
}

func (m *runPG) Delete(ctx context.Context, runId string) error {
	tx, err := m.pool.BeginTx(
		ctx, pgx.TxOptions{IsoLevel: pgx.Serializable},
		// Just in case, this runs in 'Serializable'.
		// Maybe a weaker level is enough.
	)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := m.delete(ctx, tx, runId); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (m *runPG) DeleteWorker(ctx context.Context, runId string) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(
		ctx,
		`delete from "worker" where "run_id" = $1`,
		runId,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (m *runPG) Retry(ctx context.Context, runId string) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status domain.RunStatus
	var isStep bool
	{
		var _status kpgintr.RunStatus
		if err := tx.QueryRow(
			ctx,
			`
			select
				"status",
				exists (select 1 from "run_step" where "run_id" = $1) as "is_step"
			from "run"
			where "run_id" = $1
			for update
			`,
			runId,
		).Scan(&_status, &isStep); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return kerrpg.Missing{
					Table:    "run",
					Identity: fmt.Sprintf("run_id=%s", runId),
				}
			}
			return err
		}
		status = domain.RunStatus(_status)
	}

	if isStep {
		return fmt.Errorf(
			"%w: runId=%s: retry the pipeline run instead",
			domain.ErrRunIsProtected, runId,
		)
	}

	switch status {
	case domain.Done, domain.Failed:
		// ok
	case domain.Invalidated:
		return kerrpg.Missing{
			Table:    "run",
			Identity: fmt.Sprintf("run_id=%s", runId),
		}
	default:
		return fmt.Errorf(
			"%w: runId=%s: cannot be retried (current status: %s)",
			domain.ErrInvalidRunStateChanging, runId, status,
		)
	}

	members, err := m.lockMembers(ctx, tx, runId)
	if err != nil {
		return err
	}
	alive := utils.Map(
		utils.Filter(members, func(mem member) bool { return mem.Status != domain.Invalidated }),
		func(mem member) string { return mem.RunId },
	)
	family := append([]string{runId}, alive...)

	if err := m.protect(ctx, tx, family); err != nil {
		return err
	}
	if err := m.artifactsToGarbage(ctx, tx, family); err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx, `delete from "run_exit" where "run_id" = $1`, runId,
	); err != nil {
		return err
	}

	// the step runs so far retire. fresh ones take over their frozen records.
	if _, err := tx.Exec(
		ctx,
		`
		update "run" set
			"status" = $1,
			"updated_at" = DEFAULT,
			"lifecycle_suspend_until" = now()
		where "run_id" = any($2::varchar[])
		`,
		domain.Invalidated, alive,
	); err != nil {
		return err
	}

	newIds := map[string]string{}
	for _, old := range alive {
		newIds[old] = uuid.NewString()
	}

	for _, old := range alive {
		newId := newIds[old]
		if _, err := tx.Exec(
			ctx,
			`
			insert into "run" ("run_id", "project_name", "workflow_name")
			select $1, "project_name", "workflow_name" from "run" where "run_id" = $2
			`,
			newId, old,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx,
			`
			insert into "run_step"
			("run_id", "pipeline_run_id", "step_name", "function_name", "function_kind", "image", "image_version", "handler", "source")
			select $1, "pipeline_run_id", "step_name", "function_name", "function_kind", "image", "image_version", "handler", "source"
			from "run_step" where "run_id" = $2
			`,
			newId, old,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx,
			`
			insert into "run_param" ("run_id", "key", "value")
			select $1, "key", "value" from "run_param" where "run_id" = $2
			`,
			newId, old,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx,
			`
			insert into "run_model" ("run_id", "model", "artifact")
			select $1, "model", "artifact" from "run_model" where "run_id" = $2
			`,
			newId, old,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx,
			`
			insert into "run_resource" ("run_id", "type", "value")
			select $1, "type", "value" from "run_resource" where "run_id" = $2
			`,
			newId, old,
		); err != nil {
			return err
		}
	}

	// dependency edges, rewired to the fresh step runs.
	{
		type edge struct {
			RunId      string
			NeedsRunId string
		}
		edges := []edge{}
		rows, err := tx.Query(
			ctx,
			`select "run_id", "needs_run_id" from "run_dep" where "run_id" = any($1::varchar[])`,
			alive,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var e edge
			if err := rows.Scan(&e.RunId, &e.NeedsRunId); err != nil {
				return err
			}
			edges = append(edges, e)
		}

		for _, e := range edges {
			if _, err := tx.Exec(
				ctx,
				`insert into "run_dep" ("run_id", "needs_run_id") values ($1, $2)`,
				newIds[e.RunId], newIds[e.NeedsRunId],
			); err != nil {
				return err
			}
		}
	}

	if err := m.setWorker(ctx, tx, utils.ValuesOf(newIds)...); err != nil {
		return err
	}

	// okay, verified. it can be restarted.
	if _, err := tx.Exec(
		ctx,
		`
		update "run" set
			"status" = $1,
			"updated_at" = now(),
			"lifecycle_suspend_until" = now()
		where "run_id" = $2
		`,
		domain.Waiting, runId,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
