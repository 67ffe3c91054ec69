package finishing

import (
	"context"
	"errors"
	"time"

	"github.com/quaark/mlrun-remote-project/cmd/loops/hook"
	"github.com/quaark/mlrun-remote-project/cmd/loops/loop/recurring"
	bindruns "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/runs"
	apiruns "github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kerr "github.com/quaark/mlrun-remote-project/pkg/domain/errors"
	k8serrors "github.com/quaark/mlrun-remote-project/pkg/domain/errors/k8serrors"
	kdbrun "github.com/quaark/mlrun-remote-project/pkg/domain/run/db"
	k8srun "github.com/quaark/mlrun-remote-project/pkg/domain/run/k8s"
	kdbserving "github.com/quaark/mlrun-remote-project/pkg/domain/serving/db"
)

// initial value for task
func Seed() domain.RunCursor {
	return domain.RunCursor{
		// statuses of the target runs for finishing
		Status:   []domain.RunStatus{domain.Completing, domain.Aborting},
		Scope:    domain.ScopeAny,
		Debounce: 30 * time.Second,
	}
}

// Task for finishing loop.
//
//	Let runs finish (completing -> done, aborting -> failed) while
//	releasing their cluster resources.
//
// Step runs of serving Functions which completed keep their model server
// up: the task registers an endpoint pointing at it instead of closing it.
// Pipeline runs wait until all of their step runs have settled.
//
// return:
//
// - task: settle runs and update run status.
func Task(
	irun kdbrun.Interface,
	ik8s k8srun.Interface,
	iendpoint kdbserving.Interface,
	servePort int32,
	hook hook.Hook[apiruns.Summary, struct{}],
) recurring.Task[domain.RunCursor] {
	return func(ctx context.Context, cursor domain.RunCursor) (domain.RunCursor, bool, error) {
		nextCursor, statusChanged, err := irun.PickAndSetStatus(
			ctx, cursor,
			func(r domain.Run) (domain.RunStatus, error) {
				var nextState domain.RunStatus
				switch r.Status {
				case domain.Completing:
					nextState = domain.Done
				case domain.Aborting:
					nextState = domain.Failed
				default:
					// fatal
					return r.Status, errors.New("unexpected run status: assertion error")
				}

				if r.Scope() == domain.ScopePipeline {
					// pipeline runs settle after the last of their steps.
					pl, err := irun.GetPipeline(ctx, r.Id)
					if err != nil {
						return r.Status, err
					}
					for _, s := range pl.Steps {
						switch s.Status {
						case domain.Done, domain.Failed, domain.Invalidated:
							// settled.
						default:
							return r.Status, nil
						}
					}

					if _, err := hook.Before(bindruns.ComposeSummary(r.RunBody)); err != nil {
						return r.Status, err
					}
					return nextState, nil
				}

				if _, err := hook.Before(bindruns.ComposeSummary(r.RunBody)); err != nil {
					return r.Status, err
				}

				if nextState == domain.Done &&
					r.Function != nil && r.Function.Kind == domain.KindServing {
					// The model server outlives its run, behind an endpoint.
					return nextState, publishEndpoint(ctx, iendpoint, r, servePort)
				}

				// (1) Remove the worker on the cluster, if it is still there
				if name := r.WorkerName; name != "" {
					w, err := ik8s.FindWorker(ctx, r.RunBody)
					if k8serrors.AsMissingError(err) {
						// NOP: no worker exists.
					} else if err != nil {
						return r.Status, err
					} else {
						if err := w.Close(); err != nil {
							return r.Status, err
						}
					}

					// (2) Remove the worker record of the run
					if err := irun.DeleteWorker(ctx, r.Id); err != nil {
						return r.Status, err
					}
				}

				return nextState, nil
			},
		)

		if statusChanged {
			if runs, _ := irun.Get(ctx, []string{nextCursor.Head}); runs != nil {
				if r, ok := runs[nextCursor.Head]; ok {
					hook.After(bindruns.ComposeSummary(r.RunBody))

					if aerr := advanceParent(ctx, irun, r); aerr != nil && err == nil {
						err = aerr
					}
				}
			}
		}

		cursorMoved := !cursor.Equal(nextCursor)
		// Context cancelled/deadline exceeded are okay. It will be retried.
		if err != nil && !(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return nextCursor, cursorMoved, err
		}
		return nextCursor, cursorMoved, nil
	}
}

// publishEndpoint registers the model endpoint of a completed serving run
// and opens it for inference.
func publishEndpoint(
	ctx context.Context,
	iendpoint kdbserving.Interface,
	r domain.Run,
	servePort int32,
) error {
	if r.Step == nil {
		return errors.New("unexpected run status: assertion error")
	}
	modelName, _, err := r.Step.Model()
	if err != nil {
		return err
	}

	ep := domain.Endpoint{
		Name:        modelName,
		ProjectName: r.ProjectName,
		ModelName:   modelName,
		RunId:       r.Id,
		Service:     r.WorkerName,
		Port:        servePort,
	}
	if _, err := iendpoint.Register(ctx, ep); err != nil {
		return err
	}
	if _, err := iendpoint.SetStatus(ctx, ep.Name, domain.EndpointReady); err != nil {
		return err
	}
	return nil
}

// advanceParent drives the parent pipeline run of a settled step run, so
// that pipelines settle without waiting for the next scheduling pass.
//
// The scheduling loop makes the same decision on its own pace.
// Losing the race against it is fine.
func advanceParent(ctx context.Context, irun kdbrun.Interface, settled domain.Run) error {
	if settled.PipelineRunId == "" {
		return nil
	}

	pl, err := irun.GetPipeline(ctx, settled.PipelineRunId)
	if err != nil {
		if errors.Is(err, kerr.ErrMissing) {
			return nil
		}
		return err
	}

	next, exit, ok := pl.NextStatus()
	if !ok {
		return nil
	}
	if exit != nil {
		if err := irun.SetExit(ctx, pl.Id, *exit); err != nil {
			return err
		}
	}
	if err := irun.SetStatus(ctx, pl.Id, next); err != nil &&
		!errors.Is(err, domain.ErrInvalidRunStateChanging) {
		return err
	}
	return nil
}
