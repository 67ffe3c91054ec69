package gc

import (
	"context"
	"errors"

	"github.com/quaark/mlrun-remote-project/cmd/loops/loop/recurring"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kerr "github.com/quaark/mlrun-remote-project/pkg/domain/errors"
	k8serrors "github.com/quaark/mlrun-remote-project/pkg/domain/errors/k8serrors"
	kdbgarbage "github.com/quaark/mlrun-remote-project/pkg/domain/garbage/db"
	storegarbage "github.com/quaark/mlrun-remote-project/pkg/domain/garbage/store"
	kdbrun "github.com/quaark/mlrun-remote-project/pkg/domain/run/db"
	k8srun "github.com/quaark/mlrun-remote-project/pkg/domain/run/k8s"
	kdbserving "github.com/quaark/mlrun-remote-project/pkg/domain/serving/db"
)

// initial value for task
func Seed() any {
	return nil
}

// Task for gc loop.
//
// Each pass sweeps, in order:
//
//  1. one garbage record: the object behind it is removed from the
//     artifact store.
//
//  2. retired endpoints: their model servers are shut down, the worker
//     records are released, and the endpoint records are deleted.
//
//  3. invalidated runs: leftover workers are shut down, then the run
//     records are purged. Runs still protected (by siblings, workers or
//     endpoints not swept yet) are left for a later pass.
//
// return:
//
// - task: remove objects, workloads and records nothing points at anymore.
func Task(
	garbageDb kdbgarbage.Interface,
	garbageStore storegarbage.Interface,
	irun kdbrun.Interface,
	ik8s k8srun.Interface,
	iendpoint kdbserving.Interface,
) recurring.Task[any] {
	return func(ctx context.Context, value any) (any, bool, error) {
		popped, err := garbageDb.Pop(ctx, func(g domain.Garbage) error {
			return garbageStore.DestroyGarbage(ctx, g)
		})
		if err != nil {
			return value, popped, err
		}

		retired, err := sweepRetiredEndpoints(ctx, irun, ik8s, iendpoint)
		if err != nil {
			return value, popped || retired, err
		}

		purged, err := purgeInvalidatedRuns(ctx, irun, ik8s)
		return value, popped || retired || purged, err
	}
}

// sweepRetiredEndpoints shuts down the model servers behind retired
// endpoints and deletes their records.
//
// Deleting the worker record here lifts the run's deletion protection,
// so the run itself becomes deletable once its endpoint is gone.
func sweepRetiredEndpoints(
	ctx context.Context,
	irun kdbrun.Interface,
	ik8s k8srun.Interface,
	iendpoint kdbserving.Interface,
) (bool, error) {
	names, err := iendpoint.Find(ctx, domain.EndpointFindQuery{
		Status: []domain.EndpointStatus{domain.Retired},
	})
	if err != nil || len(names) == 0 {
		return false, err
	}
	endpoints, err := iendpoint.Get(ctx, names)
	if err != nil {
		return false, err
	}

	didSomething := false
	for _, name := range names {
		ep, ok := endpoints[name]
		if !ok {
			continue
		}

		runs, err := irun.Get(ctx, []string{ep.RunId})
		if err != nil {
			return didSomething, err
		}
		// The run row knows the workload best. Orphaned endpoints fall
		// back to their own record.
		rb := domain.RunBody{
			Id:         ep.RunId,
			WorkerName: ep.Service,
			Function:   &domain.FunctionBody{Kind: domain.KindServing},
		}
		if r, ok := runs[ep.RunId]; ok && r.Function != nil && r.WorkerName != "" {
			rb = r.RunBody
		}

		if rb.WorkerName != "" {
			w, err := ik8s.FindWorker(ctx, rb)
			if err == nil {
				if err := w.Close(); err != nil {
					return didSomething, err
				}
			} else if !k8serrors.AsMissingError(err) {
				return didSomething, err
			}
			if err := irun.DeleteWorker(ctx, ep.RunId); err != nil {
				return didSomething, err
			}
		}

		if err := iendpoint.Delete(ctx, ep.Name); err != nil {
			return didSomething, err
		}
		didSomething = true
	}
	return didSomething, nil
}

// purgeInvalidatedRuns removes leftover workers of invalidated runs and
// deletes the run records.
//
// A pipeline run purges together with its step runs, so its deletion
// keeps failing with domain.ErrRunIsProtected until every member's
// worker and endpoint is swept. Such runs are just skipped.
func purgeInvalidatedRuns(
	ctx context.Context,
	irun kdbrun.Interface,
	ik8s k8srun.Interface,
) (bool, error) {
	ids, err := irun.Find(ctx, domain.RunFindQuery{
		Status: []domain.RunStatus{domain.Invalidated},
	})
	if err != nil || len(ids) == 0 {
		return false, err
	}
	runs, err := irun.Get(ctx, ids)
	if err != nil {
		return false, err
	}

	didSomething := false
	for _, id := range ids {
		r, ok := runs[id]
		if !ok {
			continue
		}

		if r.WorkerName != "" && r.Function != nil {
			w, err := ik8s.FindWorker(ctx, r.RunBody)
			if err == nil {
				if err := w.Close(); err != nil {
					return didSomething, err
				}
			} else if !k8serrors.AsMissingError(err) {
				return didSomething, err
			}
			if err := irun.DeleteWorker(ctx, r.Id); err != nil {
				return didSomething, err
			}
			didSomething = true
		}

		if err := irun.Delete(ctx, r.Id); err != nil {
			if errors.Is(err, domain.ErrRunIsProtected) ||
				errors.Is(err, kerr.ErrMissing) {
				// not yet. some later pass purges it.
				continue
			}
			return didSomething, err
		}
		didSomething = true
	}
	return didSomething, nil
}
