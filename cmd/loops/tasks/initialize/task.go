package initialize

import (
	"context"
	"errors"

	"github.com/quaark/mlrun-remote-project/cmd/loops/hook"
	"github.com/quaark/mlrun-remote-project/cmd/loops/loop/recurring"
	bindruns "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/runs"
	apiruns "github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kdbrun "github.com/quaark/mlrun-remote-project/pkg/domain/run/db"
	k8srun "github.com/quaark/mlrun-remote-project/pkg/domain/run/k8s"
)

// initial value for task
func Seed() domain.RunCursor {
	return domain.RunCursor{
		Status: []domain.RunStatus{domain.Ready},
		Scope:  domain.ScopeStep,
	}
}

// Task for the initialize loop.
//
// # Params
//
// - irun: run records in the database
//
// - init: cluster-side preparation of the run.
// It makes sure the key signing run tokens exists, so the worker
// spawned later can authenticate against the artifact routes.
//
// # Return
//
// - task : promote ready runs to starting.
func Task(
	irun kdbrun.Interface,
	init k8srun.Interface,
	hook hook.Hook[apiruns.Summary, struct{}],
) recurring.Task[domain.RunCursor] {
	return func(ctx context.Context, value domain.RunCursor) (domain.RunCursor, bool, error) {
		nextCursor, statusChanged, err := irun.PickAndSetStatus(
			ctx, value,
			func(r domain.Run) (domain.RunStatus, error) {
				if _, err := hook.Before(bindruns.ComposeSummary(r.RunBody)); err != nil {
					return r.Status, err
				}

				if err := init.Initialize(ctx, r); err != nil {
					return r.Status, err
				}
				return domain.Starting, nil
			},
		)

		if statusChanged {
			if runs, _ := irun.Get(ctx, []string{nextCursor.Head}); runs != nil {
				if r, ok := runs[nextCursor.Head]; ok {
					hook.After(bindruns.ComposeSummary(r.RunBody))
				}
			}
		}

		cursorMoved := !value.Equal(nextCursor)
		// Context cancelled/deadline exceeded are okay. It will be retried.
		if err != nil && !(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return nextCursor, cursorMoved, err
		}
		return nextCursor, cursorMoved, nil
	}
}
