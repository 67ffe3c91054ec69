// manupirate records to postgres.
package tables

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/jackc/pgconn"

	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
)

func withCause(v any, reason error) error {
	return fmt.Errorf("error caused inserting record %+v: %w", v, reason)
}

// table-level operations for PostgreSQL.
//
// Note: this package DOES NOT verify/guarantee consistencies of records.
//
// naming convention:
//
//	method of Tables are named according convention below:
//
//	- `Insert...` : insert a record into a table
//	    for example, `InsertRun` inserts a record into `"run"` table only.
//	    (So, it will cause error when no `"project"` record for that does not exist. Baware.)
type Tables struct {
	ctx  context.Context
	pool kpool.Pool
}

func New(ctx context.Context, pool kpool.Pool) *Tables {
	return &Tables{
		ctx: ctx, pool: pool,
	}
}

func (f *Tables) acquire() (kpool.Conn, error) {
	return f.pool.Acquire(f.ctx)
}

func shouldEffect(ctag pgconn.CommandTag, require int) error {
	aff := ctag.RowsAffected()
	if int64(require) <= aff {
		return nil
	}
	_, file, line, ok := runtime.Caller(1)
	if ok {
		return fmt.Errorf("added rows are not enough @ %s:%d", file, line)
	} else {
		return errors.New("added rows are not enough")
	}
}

func (f *Tables) InsertProject(p *Project) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "project" ("name", "source", "created_at")
		values ($1, $2, $3);
		`,
		p.Name, p.Source, p.CreatedAt,
	)
	if err != nil {
		return withCause(p, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertFunction(fn *Function) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "function"
		("project_name", "name", "kind", "image", "image_version", "handler", "source", "updated_at")
		values ($1, $2, $3, $4, $5, $6, $7, $8);
		`,
		fn.ProjectName, fn.Name, fn.Kind, fn.Image, fn.ImageVersion,
		fn.Handler, fn.Source, fn.UpdatedAt,
	)
	if err != nil {
		return withCause(fn, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertFunctionResource(res FunctionResource) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "function_resource" ("project_name", "function_name", "type", "value")
		values ($1, $2, $3, $4);
		`,
		res.ProjectName, res.FunctionName, res.Type, res.Value,
	)
	if err != nil {
		return withCause(res, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertWorkflow(w *Workflow) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "workflow" ("project_name", "name", "updated_at")
		values ($1, $2, $3);
		`,
		w.ProjectName, w.Name, w.UpdatedAt,
	)
	if err != nil {
		return withCause(w, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertWorkflowStep(ws *WorkflowStep) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "workflow_step"
		("project_name", "workflow_name", "name", "function_name", "handler", "seq")
		values ($1, $2, $3, $4, $5, $6);
		`,
		ws.ProjectName, ws.WorkflowName, ws.Name, ws.FunctionName, ws.Handler, ws.Seq,
	)
	if err != nil {
		return withCause(ws, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertStepNeed(sn *StepNeed) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "step_need" ("project_name", "workflow_name", "step_name", "needs")
		values ($1, $2, $3, $4);
		`,
		sn.ProjectName, sn.WorkflowName, sn.StepName, sn.Needs,
	)
	if err != nil {
		return withCause(sn, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertStepParam(sp *StepParam) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "step_param" ("project_name", "workflow_name", "step_name", "key", "value")
		values ($1, $2, $3, $4, $5);
		`,
		sp.ProjectName, sp.WorkflowName, sp.StepName, sp.Key, sp.Value,
	)
	if err != nil {
		return withCause(sp, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertStepModel(sm *StepModel) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "step_model" ("project_name", "workflow_name", "step_name", "model", "artifact")
		values ($1, $2, $3, $4, $5);
		`,
		sm.ProjectName, sm.WorkflowName, sm.StepName, sm.Model, sm.Artifact,
	)
	if err != nil {
		return withCause(sm, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertRun(r *Run) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "run"
		("run_id", "project_name", "workflow_name", "status", "lifecycle_suspend_until", "updated_at")
		values ($1, $2, $3, $4, $5, $6);
		`,
		r.RunId, r.ProjectName, r.WorkflowName, r.Status, r.LifecycleSuspendUntil, r.UpdatedAt,
	)
	if err != nil {
		return withCause(r, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertRunStep(rs *RunStep) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "run_step"
		("run_id", "pipeline_run_id", "step_name", "function_name", "function_kind",
		 "image", "image_version", "handler", "source")
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9);
		`,
		rs.RunId, rs.PipelineRunId, rs.StepName, rs.FunctionName, rs.FunctionKind,
		rs.Image, rs.ImageVersion, rs.Handler, rs.Source,
	)
	if err != nil {
		return withCause(rs, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertRunDep(rd *RunDep) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`insert into "run_dep" ("run_id", "needs_run_id") values ($1, $2);`,
		rd.RunId, rd.NeedsRunId,
	)
	if err != nil {
		return withCause(rd, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertRunParam(rp *RunParam) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`insert into "run_param" ("run_id", "key", "value") values ($1, $2, $3);`,
		rp.RunId, rp.Key, rp.Value,
	)
	if err != nil {
		return withCause(rp, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertRunModel(rm *RunModel) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`insert into "run_model" ("run_id", "model", "artifact") values ($1, $2, $3);`,
		rm.RunId, rm.Model, rm.Artifact,
	)
	if err != nil {
		return withCause(rm, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertRunResource(res RunResource) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`insert into "run_resource" ("run_id", "type", "value") values ($1, $2, $3);`,
		res.RunId, res.Type, res.Value,
	)
	if err != nil {
		return withCause(res, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertRunExit(re *RunExit) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "run_exit" ("run_id", "exit_code", "message")
		values ($1, $2, $3);
		`,
		re.RunId, re.ExitCode, re.Message,
	)
	if err != nil {
		return withCause(re, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertWorker(w *Worker) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`insert into "worker" ("run_id", "name") values ($1, $2)`,
		w.RunId, w.Name,
	)

	if err != nil {
		return withCause(w, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertArtifact(a *Artifact) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "artifact"
		("key", "project_name", "name", "kind", "run_id", "size", "updated_at")
		values ($1, $2, $3, $4, $5, $6, $7);
		`,
		a.Key, a.ProjectName, a.Name, a.Kind, a.RunId, a.Size, a.UpdatedAt,
	)
	if err != nil {
		return withCause(a, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertEndpoint(ep *Endpoint) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`
		insert into "endpoint"
		("name", "project_name", "model_name", "run_id", "service", "port", "status", "updated_at")
		values ($1, $2, $3, $4, $5, $6, $7, $8);
		`,
		ep.Name, ep.ProjectName, ep.ModelName, ep.RunId, ep.Service, ep.Port,
		ep.Status, ep.UpdatedAt,
	)
	if err != nil {
		return withCause(ep, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertKeychain(name string) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`insert into "keychain" ("name") values ($1)`,
		name,
	)
	if err != nil {
		return withCause(struct{ Name string }{Name: name}, err)
	}
	return shouldEffect(ctag, 1)
}

func (f *Tables) InsertGarbage(garbage *Garbage) error {
	conn, err := f.acquire()
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		f.ctx,
		`insert into "garbage" ("key", "run_id") values ($1, $2);`,
		garbage.Key, garbage.RunId,
	)
	if err != nil {
		return withCause(garbage, err)
	}

	return shouldEffect(ctag, 1)
}
