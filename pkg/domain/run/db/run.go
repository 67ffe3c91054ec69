package db

import (
	"context"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
)

type Interface interface {
	// NewPipeline creates a new pipeline run and its step runs,
	// triggered from a workflow.
	//
	// The workflow's step graph and the functions it invokes are
	// frozen into the run records, so that later updates of the
	// workflow or the functions do not affect runs already triggered.
	//
	// All created runs start as domain.Waiting.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - projectName string : name of the project owning the workflow
	//
	// - workflowName string : name of the workflow to be triggered
	//
	// - params map[string]map[string]string : step name -> param key -> value.
	// These values overwrite the params declared in the workflow steps.
	//
	// # Returns
	//
	// - string : id of the new pipeline run
	//
	// - error : kerr.ErrMissing when the workflow or a function
	// invoked from its steps is not found.
	NewPipeline(ctx context.Context, projectName string, workflowName string, params map[string]map[string]string) (string, error)

	// Retreive runs by Ids.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - runId []string : Ids of runs to be searched
	//
	// # Returns
	//
	// - map[string]domain.Run : mapping runId->Run.
	// Runs not found are just omitted, without error.
	//
	// - error
	Get(ctx context.Context, runId []string) (map[string]domain.Run, error)

	// Retreive a pipeline run with its step runs.
	//
	// Step runs invalidated by Retry are contained, too.
	// Callers should check the status of each step run.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - runId string : id of the pipeline run
	//
	// # Returns
	//
	// - domain.PipelineRun
	//
	// - error : kerr.ErrMissing when no such pipeline run exists.
	GetPipeline(ctx context.Context, runId string) (domain.PipelineRun, error)

	// Find runs matching the query.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - query domain.RunFindQuery
	//
	// # Returns
	//
	// - []string : ids of runs matching the query,
	// ordered by update timestamp (and run id, as tie breaker)
	//
	// - error
	Find(ctx context.Context, query domain.RunFindQuery) ([]string, error)

	// SetStatus changes the status of the run.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - runId string
	//
	// - newStatus domain.RunStatus : status to be set.
	// When it is domain.Done or domain.Failed, use Finish instead.
	//
	// # Returns
	//
	// - error : kerr.ErrMissing when no such run exists,
	// domain.ErrInvalidRunStateChanging when the run cannot move
	// to newStatus from its current status.
	SetStatus(ctx context.Context, runId string, newStatus domain.RunStatus) error

	// SetExit records the exit status of the run.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - runId string
	//
	// - exit domain.RunExit
	//
	// # Returns
	//
	// - error : kerr.ErrMissing when no such run exists.
	SetExit(ctx context.Context, runId string, exit domain.RunExit) error

	// PickAndSetStatus picks a run which is in a status of the cursor,
	// and change its status with the task.
	//
	// Runs updated more recently than cursor's Debounce ago are not picked.
	//
	// This method picks a run and locks it until the transaction ends.
	// When no runs can be picked, this method returns immediately.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - cursor domain.RunCursor : cursor where the previous pick stopped
	//
	// - task func(domain.Run) (domain.RunStatus, error) : some task
	// should be done before changing the status of the run.
	// The status of the picked run is changed to the returned status.
	// When the task returns an error, the status is left as it is,
	// and the error is returned from this method.
	//
	// # Returns
	//
	// - domain.RunCursor : cursor pointing the run picked in this call.
	// When no runs can be picked, the passed cursor is returned as it is.
	//
	// - bool : true when the status of the picked run has been changed.
	//
	// - error : error from the task, or domain.ErrInvalidRunStateChanging
	// when the task has returned a status the run cannot move to.
	// Even when this method returns an error, the cursor is updated,
	// so that the caller can continue to the next run.
	PickAndSetStatus(ctx context.Context, cursor domain.RunCursor, task func(domain.Run) (domain.RunStatus, error)) (domain.RunCursor, bool, error)

	// Finish settles the status of the run.
	//
	// domain.Completing runs become domain.Done,
	// and domain.Aborting runs become domain.Failed.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - runId string
	//
	// # Returns
	//
	// - error : kerr.ErrMissing when no such run exists,
	// domain.ErrInvalidRunStateChanging when the run is in other statuses.
	Finish(ctx context.Context, runId string) error

	// Retry retries the pipeline run.
	//
	// The step runs of the pipeline run are invalidated, and new step runs
	// are created from the frozen records of the invalidated ones.
	// The pipeline run itself is reset to domain.Waiting.
	//
	// Invalidated step runs are left until garbage collection deletes them.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - runId string : id of the pipeline run to be retried
	//
	// # Returns
	//
	// - error :
	// kerr.ErrMissing when no such pipeline run exists,
	// domain.ErrInvalidRunStateChanging when the run is not done nor failed,
	// domain.ErrRunIsProtected when the run is a step run
	// or model endpoints from the run are still alive,
	// domain.ErrWorkerActive when workers of the run are still alive.
	Retry(ctx context.Context, runId string) error

	// Delete removes the run.
	//
	// For a done or failed pipeline run, it invalidates the pipeline run
	// and its step runs, and moves their artifacts out to garbage.
	// Invalidated runs wait for garbage collection.
	//
	// For an invalidated run, it deletes the record itself.
	// Pass runs here again after cleaning their workers up,
	// to purge them from the database.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - runId string
	//
	// # Returns
	//
	// - error :
	// kerr.ErrMissing when no such run exists,
	// domain.ErrInvalidRunStateChanging when the run has not stopped,
	// domain.ErrRunIsProtected when the run is a non-invalidated step run
	// or model endpoints from the run are still alive,
	// domain.ErrWorkerActive when workers of the run are still alive.
	Delete(ctx context.Context, runId string) error

	// DeleteWorker removes the worker record of the run.
	//
	// Call this after the worker on the cluster is removed.
	// It is not an error when the run or its worker is already gone.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - runId string
	//
	// # Returns
	//
	// - error
	DeleteWorker(ctx context.Context, runId string) error
}
