package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quaark/mlrun-remote-project/cmd/loops/loop/recurring"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kdbrun "github.com/quaark/mlrun-remote-project/pkg/domain/run/db"
)

// ExitUpstreamFailed is recorded on step runs which never get to run
// because a step they need has failed.
var ExitUpstreamFailed = domain.RunExit{
	Code:    252,
	Message: "upstream step failed",
}

// Seeds are the cursors of the scheduling loop, one per run scope.
//
// Step runs and pipeline runs are scheduled by different rules,
// so they are cursored separately.
type Seeds struct {
	Steps     domain.RunCursor
	Pipelines domain.RunCursor
}

func (s Seeds) Equal(o Seeds) bool {
	return s.Steps.Equal(o.Steps) && s.Pipelines.Equal(o.Pipelines)
}

// initial value for task
func Seed() Seeds {
	return Seeds{
		Steps: domain.RunCursor{
			Status:   []domain.RunStatus{domain.Waiting},
			Scope:    domain.ScopeStep,
			Debounce: 15 * time.Second,
		},
		Pipelines: domain.RunCursor{
			Status:   []domain.RunStatus{domain.Waiting, domain.Running},
			Scope:    domain.ScopePipeline,
			Debounce: 15 * time.Second,
		},
	}
}

// Task for the scheduling loop.
//
// It promotes waiting step runs whose needs are all done to ready,
// aborts waiting step runs whose upstream has failed, and drives
// pipeline runs after their steps
// (waiting -> running -> completing/aborting).
func Task(irun kdbrun.Interface) recurring.Task[Seeds] {
	return func(ctx context.Context, value Seeds) (Seeds, bool, error) {
		next := value

		nextSteps, _, err := irun.PickAndSetStatus(
			ctx, value.Steps, stepState(ctx, irun),
		)
		next.Steps = nextSteps
		if err != nil &&
			!errors.Is(err, context.Canceled) &&
			!errors.Is(err, context.DeadlineExceeded) {
			return next, !value.Equal(next), err
		}

		nextPipelines, _, err := irun.PickAndSetStatus(
			ctx, value.Pipelines, pipelineState(ctx, irun),
		)
		next.Pipelines = nextPipelines

		moved := !value.Equal(next)
		// Context cancelled/deadline exceeded are okay. It will be retried.
		if err != nil &&
			!errors.Is(err, context.Canceled) &&
			!errors.Is(err, context.DeadlineExceeded) {
			return next, moved, err
		}
		return next, moved, nil
	}
}

// stepState decides the next status of a waiting step run.
func stepState(ctx context.Context, irun kdbrun.Interface) func(domain.Run) (domain.RunStatus, error) {
	return func(r domain.Run) (domain.RunStatus, error) {
		if r.Step == nil {
			return r.Status, fmt.Errorf("run %s is not a step run: assertion error", r.Id)
		}

		pl, err := irun.GetPipeline(ctx, r.PipelineRunId)
		if err != nil {
			return r.Status, err
		}

		switch pl.Status {
		case domain.Aborting, domain.Failed:
			// the pipeline is going down. this step never runs.
			if err := irun.SetExit(ctx, r.Id, ExitUpstreamFailed); err != nil {
				return r.Status, err
			}
			return domain.Aborting, nil
		}

		statusByStep := map[string]domain.RunStatus{}
		for _, s := range pl.Steps {
			if s.Status == domain.Invalidated || s.Step == nil {
				continue
			}
			statusByStep[s.Step.Name] = s.Status
		}

		for _, need := range r.Step.Needs {
			switch statusByStep[need] {
			case domain.Done:
				// satisfied.
			case domain.Failed, domain.Aborting:
				if err := irun.SetExit(ctx, r.Id, ExitUpstreamFailed); err != nil {
					return r.Status, err
				}
				return domain.Aborting, nil
			default:
				// still on its way. come back later.
				return r.Status, nil
			}
		}

		return domain.Ready, nil
	}
}

// pipelineState decides the next status of a pipeline run from its steps.
func pipelineState(ctx context.Context, irun kdbrun.Interface) func(domain.Run) (domain.RunStatus, error) {
	return func(r domain.Run) (domain.RunStatus, error) {
		pl, err := irun.GetPipeline(ctx, r.Id)
		if err != nil {
			return r.Status, err
		}

		next, exit, ok := pl.NextStatus()
		if !ok {
			return r.Status, nil
		}
		if exit != nil {
			if err := irun.SetExit(ctx, r.Id, *exit); err != nil {
				return r.Status, err
			}
		}
		return next, nil
	}
}
