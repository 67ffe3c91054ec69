package housekeeping

import (
	"context"
	"errors"
	"time"

	"github.com/quaark/mlrun-remote-project/cmd/loops/loop/recurring"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	k8serrors "github.com/quaark/mlrun-remote-project/pkg/domain/errors/k8serrors"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform/k8s/cluster"
	kdbrun "github.com/quaark/mlrun-remote-project/pkg/domain/run/db"
	k8srun "github.com/quaark/mlrun-remote-project/pkg/domain/run/k8s"
)

// initial value for task
func Seed() domain.RunCursor {
	return domain.RunCursor{
		// statuses of the target runs for housekeeping
		Status: []domain.RunStatus{domain.Starting},
		Scope:  domain.ScopeStep,

		// Runs in starting are mostly healthy. Do not pick them too often.
		Debounce: 30 * time.Second,
	}
}

// Task for housekeeping loop.
//
//	Abort step runs which stay in starting beyond startTimeout.
//
// A run is given up only when its worker has not reached the cluster or
// its pod is still pending. Workers which made it any further are the run
// management loop's business, whatever their deadline.
//
// return:
//
// - task: terminate runs whose worker did not start in time.
func Task(
	irun kdbrun.Interface,
	ik8s k8srun.Interface,
	startTimeout time.Duration,
) recurring.Task[domain.RunCursor] {
	return func(ctx context.Context, cursor domain.RunCursor) (domain.RunCursor, bool, error) {
		nextCursor, _, err := irun.PickAndSetStatus(
			ctx, cursor,
			func(r domain.Run) (domain.RunStatus, error) {
				if startTimeout <= 0 || time.Since(r.UpdatedAt) < startTimeout {
					// not yet. re-queue it for a later pass.
					return r.Status, nil
				}

				w, err := ik8s.FindWorker(ctx, r.RunBody)
				if err != nil {
					if !k8serrors.AsMissingError(err) {
						return r.Status, err
					}
					// The worker never reached the cluster. Give up the run.
				} else {
					switch s := w.JobStatus(ctx); s.Type {
					case cluster.Pending:
						// stuck before starting. Release the worker now,
						// not to hold the cluster until finishing sweeps it.
						if err := w.Close(); err != nil {
							return r.Status, err
						}
					default:
						return r.Status, nil
					}
				}

				if err := irun.DeleteWorker(ctx, r.Id); err != nil {
					return r.Status, err
				}
				if err := irun.SetExit(ctx, r.Id, domain.RunExit{
					Code: 255, Message: "worker did not start in time",
				}); err != nil {
					return r.Status, err
				}
				return domain.Aborting, nil
			},
		)

		// Context cancelled/deadline exceeded are okay. It will be retried.
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			err = nil
		}
		return nextCursor, !cursor.Equal(nextCursor), err
	}
}
