package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/quaark/mlrun-remote-project/pkg/utils/cmp"
)

type RunStatus string

const (
	// This Run is waiting for its dependencies to be done.
	Waiting RunStatus = "waiting"

	// This Run has all dependencies done, and can be prepared to start.
	Ready RunStatus = "ready"

	// This Run is starting.
	//
	// - Run token is minted
	// - WorkerName is decided
	Starting RunStatus = "starting"

	// This Run is running.
	Running RunStatus = "running"

	// It is observed that the run's worker has stopped successfully.
	Completing RunStatus = "completing"

	// It is observed, or should be done, that the run's worker has stopped insuccessfully.
	Aborting RunStatus = "aborting"

	// This Run has been done, successfully.
	Done RunStatus = "done"

	// This Run stopped with error.
	Failed RunStatus = "failed"

	// This run was discarded.
	Invalidated RunStatus = "invalidated"
)

func (rs RunStatus) String() string {
	return string(rs)
}

func AsRunStatus(status string) (RunStatus, error) {
	switch status {
	case string(Waiting):
		return Waiting, nil
	case string(Ready):
		return Ready, nil
	case string(Starting):
		return Starting, nil
	case string(Running):
		return Running, nil
	case string(Completing):
		return Completing, nil
	case string(Aborting):
		return Aborting, nil
	case string(Done):
		return Done, nil
	case string(Failed):
		return Failed, nil
	case string(Invalidated):
		return Invalidated, nil
	default:
		return "", fmt.Errorf("'%s' is not RunStatus", status)
	}
}

func (rs RunStatus) HasStarted() bool {
	switch rs {
	case Waiting, Ready, Starting:
		return false
	default:
		return true
	}
}

func (rs RunStatus) Processing() bool {
	switch rs {
	case Running, Completing, Aborting:
		return true
	default:
		return false
	}
}

// true when no loop will move the run anymore.
func (rs RunStatus) IsTerminal() bool {
	switch rs {
	case Done, Failed, Invalidated:
		return true
	default:
		return false
	}
}

// RunScope limits which kind of run rows a query or cursor picks.
type RunScope string

const (
	ScopeAny      RunScope = ""
	ScopePipeline RunScope = "pipeline"
	ScopeStep     RunScope = "step"
)

type RunCursor struct {
	// Id of run which is picked at last time
	Head string

	// interval to pick same run without changing status.
	Debounce time.Duration

	// status of run which is picked
	Status []RunStatus

	// pick only pipeline runs, only step runs, or both.
	Scope RunScope
}

func (r RunCursor) Equal(other RunCursor) bool {
	return r.Head == other.Head &&
		r.Scope == other.Scope &&
		cmp.SliceContentEq(r.Status, other.Status)
}

// parameter to query runs
//
// When all dimensions match a run, this query matches the run.
type RunFindQuery struct {
	// match if run's project is one of these.
	//
	// If it is nil or empty, it means "match any".
	ProjectName []string

	// match if run's workflow is one of these.
	//
	// If it is nil or empty, it means "match any".
	WorkflowName []string

	// match if run's status is one of these statuses.
	//
	// If it is nil or empty, it means "match any".
	Status []RunStatus

	// match if run's updated time is equal or later than this UpdatedSince.
	UpdatedSince *time.Time

	// match if run's updated time is earlier than this UpdatedUntil.
	UpdatedUntil *time.Time

	Scope RunScope
}

func (rfq RunFindQuery) Equal(other RunFindQuery) bool {
	return cmp.SliceContentEq(rfq.ProjectName, other.ProjectName) &&
		cmp.SliceContentEq(rfq.WorkflowName, other.WorkflowName) &&
		cmp.SliceContentEq(rfq.Status, other.Status) &&
		rfq.Scope == other.Scope &&
		((rfq.UpdatedSince == nil && other.UpdatedSince == nil) ||
			(rfq.UpdatedSince != nil && other.UpdatedSince != nil && rfq.UpdatedSince.Equal(*other.UpdatedSince))) &&
		((rfq.UpdatedUntil == nil && other.UpdatedUntil == nil) ||
			(rfq.UpdatedUntil != nil && other.UpdatedUntil != nil && rfq.UpdatedUntil.Equal(*other.UpdatedUntil)))
}

type RunExit struct {
	Code    uint8
	Message string
}

func (re *RunExit) Equal(o *RunExit) bool {
	if (re == nil) || (o == nil) {
		return (re == nil) && (o == nil)
	}
	return *re == *o
}

// Core part of run, shared by pipeline runs and step runs.
type RunBody struct {
	Id     string
	Status RunStatus

	// Name of worker, if any.
	//
	// When there are no worker for the run, this is left as zero-value.
	// Pipeline runs never have workers.
	WorkerName string

	// last update timestamp.
	UpdatedAt time.Time

	// Exit status of the run, if any.
	Exit *RunExit

	// project this run belongs to.
	ProjectName string

	// name of the triggered workflow.
	WorkflowName string

	// id of the owning pipeline run.
	//
	// Set for step runs, empty for pipeline runs.
	PipelineRunId string

	// the step definition, frozen at trigger time
	// (params already merged with trigger overrides).
	//
	// Step runs only. Nil for pipeline runs.
	Step *WorkflowStep

	// the function invoked, frozen at trigger time.
	//
	// Step runs only. Nil for pipeline runs.
	Function *FunctionBody
}

func (rb RunBody) Scope() RunScope {
	if rb.PipelineRunId == "" {
		return ScopePipeline
	}
	return ScopeStep
}

func (rb *RunBody) Equal(o *RunBody) bool {
	if (rb == nil) || (o == nil) {
		return (rb == nil) && (o == nil)
	}

	stepEq := (rb.Step == nil) == (o.Step == nil) &&
		(rb.Step == nil || rb.Step.Equal(*o.Step))

	return rb.Id == o.Id &&
		rb.Status == o.Status &&
		rb.WorkerName == o.WorkerName &&
		rb.UpdatedAt.Equal(o.UpdatedAt) &&
		rb.Exit.Equal(o.Exit) &&
		rb.ProjectName == o.ProjectName &&
		rb.WorkflowName == o.WorkflowName &&
		rb.PipelineRunId == o.PipelineRunId &&
		stepEq &&
		rb.Function.Equal(o.Function)
}

// Run is one record of the run table, either a pipeline run or a step run.
type Run struct {
	RunBody

	// artifacts published by this run, if any. Step runs only.
	Artifacts []ArtifactBody
}

func (r *Run) Equal(o *Run) bool {
	if (r == nil) || (o == nil) {
		return (r == nil) && (o == nil)
	}
	return r.RunBody.Equal(&o.RunBody) &&
		cmp.SliceContentEqWith(
			r.Artifacts, o.Artifacts,
			func(a, b ArtifactBody) bool { return a.Equal(&b) },
		)
}

// PipelineRun is one execution of a Workflow, together with its step runs.
type PipelineRun struct {
	Run

	Steps []Run
}

func (pr *PipelineRun) Equal(o *PipelineRun) bool {
	if (pr == nil) || (o == nil) {
		return (pr == nil) && (o == nil)
	}
	return pr.Run.Equal(&o.Run) &&
		cmp.SliceContentEqWith(
			pr.Steps, o.Steps,
			func(a, b Run) bool { return a.Equal(&b) },
		)
}

// NextStatus decides how the pipeline run should move, looking at its
// step runs. Invalidated steps (leftovers of retries) do not count.
//
// # Returns
//
// - RunStatus : the status the pipeline run should move to.
//
// - *RunExit : the exit to be recorded before moving, if any.
//
// - bool : false when the pipeline run should stay as it is.
func (pr PipelineRun) NextStatus() (RunStatus, *RunExit, bool) {
	allDone := true
	anyMoved := false
	var failed *Run
	for i, s := range pr.Steps {
		if s.Status == Invalidated {
			continue
		}
		if s.Status != Waiting {
			anyMoved = true
		}
		if s.Status != Done {
			allDone = false
		}
		if failed == nil &&
			(s.Status == Failed || s.Status == Aborting) {
			failed = &pr.Steps[i]
		}
	}

	switch pr.Status {
	case Waiting, Running:
		// the pipeline run is still in flight.
	default:
		return pr.Status, nil, false
	}

	if failed != nil {
		exit := RunExit{Code: 1, Message: "a step failed"}
		if failed.Step != nil {
			exit.Message = fmt.Sprintf(`step "%s" failed`, failed.Step.Name)
		}
		if fx := failed.Exit; fx != nil && fx.Code != 0 {
			exit.Code = fx.Code
		}
		return Aborting, &exit, true
	}

	if pr.Status == Waiting && anyMoved {
		return Running, nil, true
	}
	if pr.Status == Running && allDone {
		return Completing, &RunExit{Code: 0, Message: "all steps done"}, true
	}

	return pr.Status, nil, false
}

var (
	ErrRunIsProtected = errors.New("the run is protected")
	ErrWorkerActive   = fmt.Errorf("%w: possibly running", ErrRunIsProtected)

	ErrInvalidRunStateChanging = errors.New("cannot change run state")
)

func NewErrInvalidRunStateChanging(from, to RunStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidRunStateChanging, from, to)
}
