package runManagement

import (
	"context"
	"errors"
	"time"

	"github.com/quaark/mlrun-remote-project/cmd/loops/loop/recurring"
	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/runManagement/manager"
	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/runManagement/runManagementHook"
	bindruns "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/runs"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kdbrun "github.com/quaark/mlrun-remote-project/pkg/domain/run/db"
)

// Return initial RunCursor value for task
func Seed() domain.RunCursor {
	return domain.RunCursor{
		// Status of the runs to be monitored
		Status: []domain.RunStatus{domain.Starting, domain.Running},
		Scope:  domain.ScopeStep,

		// Workload watching is polling. Do not pick the same run too often.
		Debounce: 30 * time.Second,
	}
}

// return:
//
// - task: watch workers of starting/running step runs, spawn them when
// missing, and track their status into run status
// (starting -> running -> completing/aborting).
func Task(
	irun kdbrun.Interface,
	jobManager manager.Manager,
	servingManager manager.Manager,
	hooks runManagementHook.Hooks,
) recurring.Task[domain.RunCursor] {
	return func(ctx context.Context, value domain.RunCursor) (domain.RunCursor, bool, error) {
		nextCursor, statusChanged, err := irun.PickAndSetStatus(
			ctx, value,
			// The last Status set by PickAndSetStatus() is the return value of func() below.
			func(r domain.Run) (domain.RunStatus, error) {
				if r.Function == nil {
					return r.Status, errors.New("unexpected run status: assertion error")
				}
				if r.Function.Kind == domain.KindServing {
					return servingManager(ctx, hooks, r)
				}
				return jobManager(ctx, hooks, r)
			},
		)

		if statusChanged {
			if runs, _ := irun.Get(ctx, []string{nextCursor.Head}); runs != nil {
				if r, ok := runs[nextCursor.Head]; ok {
					hookval := bindruns.ComposeSummary(r.RunBody)
					switch r.Status {
					case domain.Running:
						hooks.ToRunning.After(hookval)
					case domain.Completing:
						hooks.ToCompleting.After(hookval)
					case domain.Aborting:
						hooks.ToAborting.After(hookval)
					}
				}
			}
		}

		cursorMoved := !value.Equal(nextCursor)
		// Context cancelled/deadline exceeded are okay. It will be retried.
		if err != nil &&
			!(errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(err, domain.ErrInvalidRunStateChanging)) {
			return nextCursor, cursorMoved, err
		}
		return nextCursor, cursorMoved, nil
	}
}
