package serving

import (
	"context"
	"fmt"

	manager "github.com/quaark/mlrun-remote-project/cmd/loops/tasks/runManagement/manager"
	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/runManagement/runManagementHook"
	bindruns "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/runs"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	k8serrors "github.com/quaark/mlrun-remote-project/pkg/domain/errors/k8serrors"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform/k8s/cluster"
	kw "github.com/quaark/mlrun-remote-project/pkg/domain/run/k8s/worker"
)

// Returns a manager watching the model server of a serving step run.
//
// While the run is starting and no server exists yet, it resolves the
// step's model binding against the artifacts published in the same
// pipeline run and stands the server. The run completes when the server
// gets ready; the server itself lives on behind the endpoint.
func New(
	getWorker func(context.Context, domain.RunBody) (kw.Worker, error),
	startServing func(context.Context, domain.Run, kw.ModelAssignment, map[string]string) error,
	getPipeline func(ctx context.Context, pipelineRunId string) (domain.PipelineRun, error),
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
				pl, err := getPipeline(ctx, r.PipelineRunId)
				if err != nil {
					return r.Status, err
				}

				model, bindErr := assignModel(pl, r)
				if bindErr != nil {
					// the binding never resolves by retrying. Give up the run.
					if _, err := hooks.ToAborting.Before(bindruns.ComposeSummary(r.RunBody)); err != nil {
						return r.Status, err
					}
					if err := setExit(ctx, r.Id, domain.RunExit{
						Code:    1,
						Message: bindErr.Error(),
					}); err != nil {
						return r.Status, err
					}
					return domain.Aborting, nil
				}

				resp, err := hooks.ToStarting.Before(bindruns.ComposeSummary(r.RunBody))
				if err != nil {
					return r.Status, err
				}
				if err := startServing(ctx, r, model, resp.MlrunExtension.Env); err != nil && !k8serrors.AsConflict(err) {
					return r.Status, err
				}
				return domain.Starting, nil
			}

			// The server has gone without leaving its result.
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
			// ignore. Since the server is already started, it should not be started again.
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

// assignModel resolves the step's model binding to the object key of
// the artifact a sibling step run has published.
func assignModel(pl domain.PipelineRun, r domain.Run) (kw.ModelAssignment, error) {
	modelName, artifactName, err := r.Step.Model()
	if err != nil {
		return kw.ModelAssignment{}, err
	}

	for _, step := range pl.Steps {
		if step.Status == domain.Invalidated {
			continue
		}
		for _, a := range step.Artifacts {
			if a.ArtifactName() == artifactName {
				return kw.ModelAssignment{
					Name:        modelName,
					ArtifactKey: a.Key,
				}, nil
			}
		}
	}

	return kw.ModelAssignment{}, fmt.Errorf(
		`model "%s": artifact "%s" is not published in pipeline run "%s"`,
		modelName, artifactName, r.PipelineRunId,
	)
}
