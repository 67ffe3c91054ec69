package job

import (
	"context"

	manager "github.com/quaark/mlrun-remote-project/cmd/loops/tasks/runManagement/manager"
	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/runManagement/runManagementHook"
	bindruns "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/runs"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	k8serrors "github.com/quaark/mlrun-remote-project/pkg/domain/errors/k8serrors"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform/k8s/cluster"
	kw "github.com/quaark/mlrun-remote-project/pkg/domain/run/k8s/worker"
)

// Returns a manager watching the worker of a job step run.
//
// While the run is starting and no worker exists yet, it spawns one.
// Once a worker is there, the run status follows the workload status.
func New(
	getWorker func(context.Context, domain.RunBody) (kw.Worker, error),
	startWorker func(context.Context, domain.Run, map[string]string) error,
	setExit func(ctx context.Context, runId string, exit domain.RunExit) error,
) manager.Manager {
	return func(
		ctx context.Context,
		hooks runManagementHook.Hooks,
		r domain.Run,
	) (
		domain.RunStatus,
		error,
	) {
		w, err := getWorker(ctx, r.RunBody)
		if err != nil {
			if !k8serrors.AsMissingError(err) {
				return r.Status, err
			}

			if r.Status == domain.Starting {
				resp, err := hooks.ToStarting.Before(bindruns.ComposeSummary(r.RunBody))
				if err != nil {
					return r.Status, err
				}
				if err := startWorker(ctx, r, resp.MlrunExtension.Env); err != nil && !k8serrors.AsConflict(err) {
					return r.Status, err
				}
				return domain.Starting, nil
			}

			// The worker has gone without leaving its result.
			if _, err := hooks.ToAborting.Before(bindruns.ComposeSummary(r.RunBody)); err != nil {
				return r.Status, err
			}
			if err := setExit(ctx, r.Id, domain.RunExit{
				Code:    254,
				Message: "worker for the run is not found",
			}); err != nil {
				return r.Status, err
			}
			return domain.Aborting, nil
		}

		var newStatus domain.RunStatus

		s := w.JobStatus(ctx)

		switch ty := s.Type; ty {
		case cluster.Pending:
			newStatus = domain.Starting
		case cluster.Running:
			newStatus = domain.Running
		case cluster.Failed, cluster.Stucking:
			newStatus = domain.Aborting
		case cluster.Succeeded:
			newStatus = domain.Completing
		default:
			return r.Status, nil
		}

		if newStatus == r.Status {
			// no changes.
			return r.Status, nil
		}

		switch newStatus {
		case domain.Starting:
			// ignore. Since worker is already started, it should not be started again.
		case domain.Running:
			if _, err := hooks.ToRunning.Before(bindruns.ComposeSummary(r.RunBody)); err != nil {
				return r.Status, err
			}
		case domain.Aborting, domain.Completing:
			if newStatus == domain.Completing {
				if _, err := hooks.ToCompleting.Before(bindruns.ComposeSummary(r.RunBody)); err != nil {
					return r.Status, err
				}
			} else {
				if _, err := hooks.ToAborting.Before(bindruns.ComposeSummary(r.RunBody)); err != nil {
					return r.Status, err
				}
			}

			exit := domain.RunExit{
				Code:    s.Code,
				Message: s.Message,
			}
			if err := setExit(ctx, r.Id, exit); err != nil {
				return r.Status, err
			}
		}

		return newStatus, nil
	}
}
