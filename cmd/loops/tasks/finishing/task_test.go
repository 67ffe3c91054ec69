package finishing_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/quaark/mlrun-remote-project/cmd/loops/hook"
	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/finishing"
	bindruns "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/runs"
	apiruns "github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kerr "github.com/quaark/mlrun-remote-project/pkg/domain/errors"
	k8serrors "github.com/quaark/mlrun-remote-project/pkg/domain/errors/k8serrors"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform/k8s/cluster"
	kdbmock "github.com/quaark/mlrun-remote-project/pkg/domain/run/db/mock"
	mockK8sRun "github.com/quaark/mlrun-remote-project/pkg/domain/run/k8s/mock"
	"github.com/quaark/mlrun-remote-project/pkg/domain/run/k8s/worker"
	servingmock "github.com/quaark/mlrun-remote-project/pkg/domain/serving/db/mock"
)

const servePort int32 = 8501

func jobStep(id string, status domain.RunStatus) domain.Run {
	return domain.Run{
		RunBody: domain.RunBody{
			Id:            id,
			Status:        status,
			WorkerName:    "worker-run-" + id,
			ProjectName:   "breast-cancer",
			WorkflowName:  "main",
			PipelineRunId: "pipeline-run-1",
			Step: &domain.WorkflowStep{
				Name: "train", FunctionName: "trainer",
			},
			Function: &domain.FunctionBody{
				ProjectName: "breast-cancer", Name: "trainer", Kind: domain.KindJob,
				Image: &domain.ImageIdentifier{Image: "mlrun/mlrun", Version: "1.0.0"},
			},
		},
	}
}

func servingStep(id string, status domain.RunStatus) domain.Run {
	return domain.Run{
		RunBody: domain.RunBody{
			Id:            id,
			Status:        status,
			WorkerName:    "worker-run-" + id,
			ProjectName:   "breast-cancer",
			WorkflowName:  "main",
			PipelineRunId: "pipeline-run-1",
			Step: &domain.WorkflowStep{
				Name: "serve", FunctionName: "server",
				Models: map[string]string{"cancer-classifier": "model.pkl"},
			},
			Function: &domain.FunctionBody{
				ProjectName: "breast-cancer", Name: "server", Kind: domain.KindServing,
				Image: &domain.ImageIdentifier{Image: "mlrun/mlserve", Version: "1.0.0"},
			},
		},
	}
}

func pipeRun(id string, status domain.RunStatus) domain.Run {
	return domain.Run{
		RunBody: domain.RunBody{
			Id:           id,
			Status:       status,
			ProjectName:  "breast-cancer",
			WorkflowName: "main",
		},
	}
}

func TestTaskFinishing_Outside_PickAndSetStatus(t *testing.T) {

	type When struct {
		newCursor     domain.RunCursor
		statusChanged bool
		err           error

		settledRun     domain.Run
		parent         domain.PipelineRun
		errGetPipeline error
		errSetStatus   error
	}

	type Then struct {
		wantedCursor           domain.RunCursor
		wantedOk               bool
		wantedErr              error
		hookAfterHasBeenCalled bool

		wantParentExit   *domain.RunExit
		wantParentStatus domain.RunStatus
	}

	givenCursor := domain.RunCursor{
		Head:   "run-id-0",
		Status: []domain.RunStatus{domain.Completing, domain.Aborting},
		Scope:  domain.ScopeAny,
	}

	theory := func(when When, then Then) func(t *testing.T) {
		return func(t *testing.T) {
			ctx := context.Background()

			iDbRun := kdbmock.NewRunInterface()
			iDbRun.Impl.PickAndSetStatus = func(
				ctx context.Context, cursor domain.RunCursor,
				_ func(domain.Run) (domain.RunStatus, error),
			) (domain.RunCursor, bool, error) {
				return when.newCursor, when.statusChanged, when.err
			}
			iDbRun.Impl.Get = func(ctx context.Context, runIds []string) (map[string]domain.Run, error) {
				if len(runIds) != 1 || runIds[0] != when.newCursor.Head {
					t.Errorf("runIds: actual=%+v, expect=%+v", runIds, []string{when.newCursor.Head})
				}
				return map[string]domain.Run{when.settledRun.Id: when.settledRun}, nil
			}
			iDbRun.Impl.GetPipeline = func(ctx context.Context, runId string) (domain.PipelineRun, error) {
				if runId != when.settledRun.PipelineRunId {
					t.Errorf("runId: actual=%+v, expect=%+v", runId, when.settledRun.PipelineRunId)
				}
				return when.parent, when.errGetPipeline
			}
			iDbRun.Impl.SetExit = func(ctx context.Context, runId string, exit domain.RunExit) error {
				return nil
			}
			iDbRun.Impl.SetStatus = func(ctx context.Context, runId string, newStatus domain.RunStatus) error {
				return when.errSetStatus
			}

			hookAfterHasBeenCalled := false
			testee := finishing.Task(iDbRun, nil, servingmock.NewServingInterface(), servePort, hook.Func[apiruns.Summary, struct{}]{
				AfterFn: func(hookValue apiruns.Summary) error {
					hookAfterHasBeenCalled = true
					if want := bindruns.ComposeSummary(when.settledRun.RunBody); !hookValue.Equal(want) {
						t.Errorf("hookValue: actual=%+v, expect=%+v", hookValue, want)
					}
					return errors.New("hook.After: should be ignored")
				},
			})
			cursor, ok, err := testee(ctx, givenCursor)

			if !cursor.Equal(then.wantedCursor) {
				t.Errorf("cursor: actual=%+v, expect=%+v", cursor, then.wantedCursor)
			}
			if ok != then.wantedOk {
				t.Errorf("ok: actual=%+v, expect=%+v", ok, then.wantedOk)
			}
			if !errors.Is(err, then.wantedErr) {
				t.Errorf("err: actual=%+v, expect=%+v", err, then.wantedErr)
			}
			if hookAfterHasBeenCalled != then.hookAfterHasBeenCalled {
				t.Errorf(
					"hookAfter: called=%+v, want=%+v",
					hookAfterHasBeenCalled, then.hookAfterHasBeenCalled,
				)
			}

			if then.wantParentExit == nil {
				if 0 < len(iDbRun.Calls.SetExit) {
					t.Errorf("SetExit: called=%+v", iDbRun.Calls.SetExit)
				}
			} else {
				if len(iDbRun.Calls.SetExit) != 1 {
					t.Fatalf("SetExit: called %d times", len(iDbRun.Calls.SetExit))
				}
				got := iDbRun.Calls.SetExit[0]
				if got.RunId != when.settledRun.PipelineRunId || got.Exit != *then.wantParentExit {
					t.Errorf(
						"SetExit: actual=%+v, expect={%s %+v}",
						got, when.settledRun.PipelineRunId, *then.wantParentExit,
					)
				}
			}

			if then.wantParentStatus == "" {
				if 0 < len(iDbRun.Calls.SetStatus) {
					t.Errorf("SetStatus: called=%+v", iDbRun.Calls.SetStatus)
				}
			} else {
				if len(iDbRun.Calls.SetStatus) != 1 {
					t.Fatalf("SetStatus: called %d times", len(iDbRun.Calls.SetStatus))
				}
				got := iDbRun.Calls.SetStatus[0]
				if got.RunId != when.settledRun.PipelineRunId || got.NewStatus != then.wantParentStatus {
					t.Errorf(
						"SetStatus: actual=%+v, expect={%s %s}",
						got, when.settledRun.PipelineRunId, then.wantParentStatus,
					)
				}
			}
		}
	}

	movedCursor := domain.RunCursor{
		Head:   "run-id-1",
		Status: []domain.RunStatus{domain.Completing, domain.Aborting},
		Scope:  domain.ScopeAny,
	}

	t.Run("when the last step of a pipeline run gets done, it completes the parent", theory(
		When{
			newCursor:     movedCursor,
			statusChanged: true,
			settledRun:    jobStep("run-id-1", domain.Done),
			parent: domain.PipelineRun{
				Run: pipeRun("pipeline-run-1", domain.Running),
				Steps: []domain.Run{
					jobStep("run-id-1", domain.Done),
					jobStep("run-id-2", domain.Done),
				},
			},
		},
		Then{
			wantedCursor:           movedCursor,
			wantedOk:               true,
			hookAfterHasBeenCalled: true,
			wantParentExit:         &domain.RunExit{Code: 0, Message: "all steps done"},
			wantParentStatus:       domain.Completing,
		},
	))

	t.Run("when a step of a pipeline run fails, it aborts the parent", theory(
		When{
			newCursor:     movedCursor,
			statusChanged: true,
			settledRun:    jobStep("run-id-1", domain.Failed),
			parent: func() domain.PipelineRun {
				failed := jobStep("run-id-1", domain.Failed)
				failed.Exit = &domain.RunExit{Code: 137, Message: "killed"}
				return domain.PipelineRun{
					Run: pipeRun("pipeline-run-1", domain.Running),
					Steps: []domain.Run{
						failed,
						jobStep("run-id-2", domain.Running),
					},
				}
			}(),
		},
		Then{
			wantedCursor:           movedCursor,
			wantedOk:               true,
			hookAfterHasBeenCalled: true,
			wantParentExit:         &domain.RunExit{Code: 137, Message: `step "train" failed`},
			wantParentStatus:       domain.Aborting,
		},
	))

	t.Run("when other steps are still on their way, it leaves the parent alone", theory(
		When{
			newCursor:     movedCursor,
			statusChanged: true,
			settledRun:    jobStep("run-id-1", domain.Done),
			parent: domain.PipelineRun{
				Run: pipeRun("pipeline-run-1", domain.Running),
				Steps: []domain.Run{
					jobStep("run-id-1", domain.Done),
					jobStep("run-id-2", domain.Running),
				},
			},
		},
		Then{
			wantedCursor:           movedCursor,
			wantedOk:               true,
			hookAfterHasBeenCalled: true,
		},
	))

	t.Run("when losing the race against the scheduling loop, it ignores the invalid transition", theory(
		When{
			newCursor:     movedCursor,
			statusChanged: true,
			settledRun:    jobStep("run-id-1", domain.Done),
			parent: domain.PipelineRun{
				Run: pipeRun("pipeline-run-1", domain.Running),
				Steps: []domain.Run{
					jobStep("run-id-1", domain.Done),
				},
			},
			errSetStatus: domain.NewErrInvalidRunStateChanging(domain.Completing, domain.Completing),
		},
		Then{
			wantedCursor:           movedCursor,
			wantedOk:               true,
			wantedErr:              nil,
			hookAfterHasBeenCalled: true,
			wantParentExit:         &domain.RunExit{Code: 0, Message: "all steps done"},
			wantParentStatus:       domain.Completing,
		},
	))

	t.Run("when the parent pipeline run is gone, it carries on", theory(
		When{
			newCursor:      movedCursor,
			statusChanged:  true,
			settledRun:     jobStep("run-id-1", domain.Done),
			errGetPipeline: kerr.ErrMissing,
		},
		Then{
			wantedCursor:           movedCursor,
			wantedOk:               true,
			wantedErr:              nil,
			hookAfterHasBeenCalled: true,
		},
	))

	t.Run("when a pipeline run settles, it has no parent to advance", theory(
		When{
			newCursor:     movedCursor,
			statusChanged: true,
			settledRun:    pipeRun("run-id-1", domain.Done),
		},
		Then{
			wantedCursor:           movedCursor,
			wantedOk:               true,
			hookAfterHasBeenCalled: true,
		},
	))

	t.Run("when no run could be picked, it stops", theory(
		When{
			newCursor:     givenCursor,
			statusChanged: false,
		},
		Then{
			wantedCursor: givenCursor,
			wantedOk:     false,
		},
	))

	t.Run("it ignores context.Canceled", theory(
		When{
			newCursor:     movedCursor,
			statusChanged: false,
			err:           context.Canceled,
		},
		Then{
			wantedCursor: movedCursor,
			wantedOk:     true,
			wantedErr:    nil,
		},
	))

	t.Run("it ignores context.DeadlineExceeded", theory(
		When{
			newCursor:     movedCursor,
			statusChanged: false,
			err:           context.DeadlineExceeded,
		},
		Then{
			wantedCursor: movedCursor,
			wantedOk:     true,
			wantedErr:    nil,
		},
	))

	{
		expectedErr := errors.New("fake error")
		t.Run("when PickAndSetStatus returns error, the task should return the error", theory(
			When{
				newCursor:     movedCursor,
				statusChanged: false,
				err:           expectedErr,
			},
			Then{
				wantedCursor: movedCursor,
				wantedOk:     true,
				wantedErr:    expectedErr,
			},
		))
	}
}

type FakeWorker struct {
	runId    string
	closed   bool
	closeErr error
}

func (fw *FakeWorker) RunId() string {
	return fw.runId
}

func (fw *FakeWorker) JobStatus(context.Context) cluster.JobStatus {
	return cluster.JobStatus{Type: cluster.Succeeded}
}

func (fw *FakeWorker) Log(ctx context.Context) (io.ReadCloser, error) {
	return nil, nil
}

func (fw *FakeWorker) Close() error {
	fw.closed = true
	return fw.closeErr
}

var _ worker.Worker = &FakeWorker{}

func TestTaskFinishing_Inside_PickAndSetStatus(t *testing.T) {

	type When struct {
		runPassedToCallback domain.Run
		pipeline            domain.PipelineRun
		errGetPipeline      error
		workerFromFind      *FakeWorker
		errBefore           error
		errFromFind         error
		errFromDeleteWorker error
		errFromRegister     error
	}

	type Then struct {
		runStatus            domain.RunStatus
		wantError            error
		wantAnyError         bool
		wantHookBeforeCalled bool
		wantFindCalled       bool
		wantWorkerClosed     bool
		wantDeleteWorker     bool
		wantEndpoint         *domain.Endpoint
	}

	theory := func(when When, then Then) func(t *testing.T) {
		return func(t *testing.T) {
			iDbRun := kdbmock.NewRunInterface()
			iDbRun.Impl.PickAndSetStatus = func(
				ctx context.Context, cursor domain.RunCursor,
				callback func(domain.Run) (domain.RunStatus, error),
			) (domain.RunCursor, bool, error) {
				newStatus, err := callback(when.runPassedToCallback)

				if then.wantAnyError && (err == nil) {
					t.Errorf("err: actual=nil, expect an error")
				}
				if !then.wantAnyError && !errors.Is(err, then.wantError) {
					t.Errorf("err: actual=%+v, expect=%+v", err, then.wantError)
				}
				if newStatus != then.runStatus {
					t.Errorf("runStatus: actual=%+v, expect=%+v", newStatus, then.runStatus)
				}

				return cursor, true, nil
			}
			iDbRun.Impl.GetPipeline = func(ctx context.Context, runId string) (domain.PipelineRun, error) {
				if runId != when.runPassedToCallback.Id {
					t.Errorf("runId: actual=%+v, expect=%+v", runId, when.runPassedToCallback.Id)
				}
				return when.pipeline, when.errGetPipeline
			}
			iDbRun.Impl.DeleteWorker = func(ctx context.Context, runId string) error {
				if runId != when.runPassedToCallback.Id {
					t.Errorf("runId: actual=%+v, expect=%+v", runId, when.runPassedToCallback.Id)
				}
				return when.errFromDeleteWorker
			}
			iDbRun.Impl.Get = func(ctx context.Context, runIds []string) (map[string]domain.Run, error) {
				return map[string]domain.Run{}, nil
			}

			findHasBeenCalled := false
			iK8sRun := mockK8sRun.New(t)
			iK8sRun.Impl.FindWorker = func(ctx context.Context, runBody domain.RunBody) (worker.Worker, error) {
				findHasBeenCalled = true
				if !runBody.Equal(&when.runPassedToCallback.RunBody) {
					t.Errorf("find: runBody: actual=%+v, expect=%+v", runBody, when.runPassedToCallback.RunBody)
				}
				if when.errFromFind != nil {
					return nil, when.errFromFind
				}
				return when.workerFromFind, nil
			}

			iServing := servingmock.NewServingInterface()
			iServing.Impl.Register = func(ctx context.Context, ep domain.Endpoint) (domain.Endpoint, error) {
				if then.wantEndpoint == nil {
					t.Errorf("Register: it should not be called")
					return ep, nil
				}
				if !ep.Equal(then.wantEndpoint) {
					t.Errorf("Register: actual=%+v, expect=%+v", ep, *then.wantEndpoint)
				}
				return ep, when.errFromRegister
			}
			iServing.Impl.SetStatus = func(ctx context.Context, name string, status domain.EndpointStatus) (domain.Endpoint, error) {
				if then.wantEndpoint == nil {
					t.Errorf("SetStatus: it should not be called")
				} else if name != then.wantEndpoint.Name || status != domain.EndpointReady {
					t.Errorf("SetStatus: actual=(%s, %s), expect=(%s, %s)", name, status, then.wantEndpoint.Name, domain.EndpointReady)
				}
				return domain.Endpoint{}, nil
			}

			beforeHasBeenCalled := false
			testee := finishing.Task(iDbRun, iK8sRun, iServing, servePort, hook.Func[apiruns.Summary, struct{}]{
				BeforeFn: func(hookValue apiruns.Summary) (struct{}, error) {
					beforeHasBeenCalled = true
					if want := bindruns.ComposeSummary(when.runPassedToCallback.RunBody); !hookValue.Equal(want) {
						t.Errorf("hookValue: actual=%+v, expect=%+v", hookValue, want)
					}
					return struct{}{}, when.errBefore
				},
			})
			testee(context.Background(), domain.RunCursor{
				Head:   "run-id-0",
				Status: []domain.RunStatus{domain.Completing, domain.Aborting},
				Scope:  domain.ScopeAny,
			})

			if len(iDbRun.Calls.PickAndSetStatus) < 1 {
				t.Errorf("callback: not called")
			}

			if beforeHasBeenCalled != then.wantHookBeforeCalled {
				t.Errorf("before: called=%+v, want=%+v", beforeHasBeenCalled, then.wantHookBeforeCalled)
			}

			if then.wantFindCalled != findHasBeenCalled {
				t.Errorf("find: called=%+v", findHasBeenCalled)
			}

			if then.wantDeleteWorker {
				if len(iDbRun.Calls.DeleteWorker) < 1 {
					t.Errorf("deleteWorker: not called")
				}
			} else {
				if 0 < len(iDbRun.Calls.DeleteWorker) {
					t.Errorf("deleteWorker: called")
				}
			}

			if w := when.workerFromFind; w != nil && w.closed != then.wantWorkerClosed {
				t.Errorf(
					"workerClosed: actual=%+v, expect=%+v",
					when.workerFromFind.closed, then.wantWorkerClosed,
				)
			}

			if then.wantEndpoint != nil {
				if len(iServing.Calls.Register) != 1 {
					t.Errorf("Register: called %d times", len(iServing.Calls.Register))
				}
				if when.errFromRegister == nil && len(iServing.Calls.SetStatus) != 1 {
					t.Errorf("SetStatus: called %d times", len(iServing.Calls.SetStatus))
				}
			} else {
				if 0 < len(iServing.Calls.Register) {
					t.Errorf("Register: called")
				}
			}
		}
	}

	t.Run("for a completing job step run, it closes the worker and returns Done", theory(
		When{
			runPassedToCallback: jobStep("run-id-0", domain.Completing),
			workerFromFind:      &FakeWorker{runId: "run-id-0"},
		},
		Then{
			runStatus:            domain.Done,
			wantHookBeforeCalled: true,
			wantFindCalled:       true,
			wantWorkerClosed:     true,
			wantDeleteWorker:     true,
		},
	))

	t.Run("for an aborting job step run, it closes the worker and returns Failed", theory(
		When{
			runPassedToCallback: jobStep("run-id-0", domain.Aborting),
			workerFromFind:      &FakeWorker{runId: "run-id-0"},
		},
		Then{
			runStatus:            domain.Failed,
			wantHookBeforeCalled: true,
			wantFindCalled:       true,
			wantWorkerClosed:     true,
			wantDeleteWorker:     true,
		},
	))

	t.Run("when the worker is already gone, it still clears the worker record", theory(
		When{
			runPassedToCallback: jobStep("run-id-0", domain.Completing),
			errFromFind:         k8serrors.NewMissing("job worker-run-run-id-0"),
		},
		Then{
			runStatus:            domain.Done,
			wantHookBeforeCalled: true,
			wantFindCalled:       true,
			wantDeleteWorker:     true,
		},
	))

	{
		wantErr := errors.New("fake error (find)")
		t.Run("when finding the worker fails, it keeps the run as it is", theory(
			When{
				runPassedToCallback: jobStep("run-id-0", domain.Completing),
				errFromFind:         wantErr,
			},
			Then{
				runStatus:            domain.Completing,
				wantError:            wantErr,
				wantHookBeforeCalled: true,
				wantFindCalled:       true,
			},
		))
	}

	{
		wantErr := errors.New("fake error (close)")
		t.Run("when closing the worker fails, it keeps the run as it is", theory(
			When{
				runPassedToCallback: jobStep("run-id-0", domain.Completing),
				workerFromFind:      &FakeWorker{runId: "run-id-0", closeErr: wantErr},
			},
			Then{
				runStatus:            domain.Completing,
				wantError:            wantErr,
				wantHookBeforeCalled: true,
				wantFindCalled:       true,
				wantWorkerClosed:     true,
			},
		))
	}

	{
		wantErr := errors.New("fake error (delete worker)")
		t.Run("when clearing the worker record fails, it keeps the run as it is", theory(
			When{
				runPassedToCallback: jobStep("run-id-0", domain.Completing),
				workerFromFind:      &FakeWorker{runId: "run-id-0"},
				errFromDeleteWorker: wantErr,
			},
			Then{
				runStatus:            domain.Completing,
				wantError:            wantErr,
				wantHookBeforeCalled: true,
				wantFindCalled:       true,
				wantWorkerClosed:     true,
				wantDeleteWorker:     true,
			},
		))
	}

	{
		wantErr := errors.New("fake error (before)")
		t.Run("when the before hook fails, it touches nothing", theory(
			When{
				runPassedToCallback: jobStep("run-id-0", domain.Completing),
				errBefore:           wantErr,
			},
			Then{
				runStatus:            domain.Completing,
				wantError:            wantErr,
				wantHookBeforeCalled: true,
			},
		))
	}

	t.Run("for a completing serving step run, it publishes the endpoint and keeps the server", theory(
		When{
			runPassedToCallback: servingStep("run-id-0", domain.Completing),
		},
		Then{
			runStatus:            domain.Done,
			wantHookBeforeCalled: true,
			wantFindCalled:       false,
			wantDeleteWorker:     false,
			wantEndpoint: &domain.Endpoint{
				Name:        "cancer-classifier",
				ProjectName: "breast-cancer",
				ModelName:   "cancer-classifier",
				RunId:       "run-id-0",
				Service:     "worker-run-run-id-0",
				Port:        servePort,
			},
		},
	))

	t.Run("for an aborting serving step run, it closes the server", theory(
		When{
			runPassedToCallback: servingStep("run-id-0", domain.Aborting),
			workerFromFind:      &FakeWorker{runId: "run-id-0"},
		},
		Then{
			runStatus:            domain.Failed,
			wantHookBeforeCalled: true,
			wantFindCalled:       true,
			wantWorkerClosed:     true,
			wantDeleteWorker:     true,
		},
	))

	{
		wantErr := errors.New("fake error (register)")
		t.Run("when registering the endpoint fails, it keeps the run as it is", theory(
			When{
				runPassedToCallback: servingStep("run-id-0", domain.Completing),
				errFromRegister:     wantErr,
			},
			Then{
				runStatus:            domain.Completing,
				wantError:            wantErr,
				wantHookBeforeCalled: true,
				wantEndpoint: &domain.Endpoint{
					Name:        "cancer-classifier",
					ProjectName: "breast-cancer",
					ModelName:   "cancer-classifier",
					RunId:       "run-id-0",
					Service:     "worker-run-run-id-0",
					Port:        servePort,
				},
			},
		))
	}

	t.Run("a completing pipeline run waits for its steps to settle", theory(
		When{
			runPassedToCallback: pipeRun("run-id-0", domain.Completing),
			pipeline: domain.PipelineRun{
				Run: pipeRun("run-id-0", domain.Completing),
				Steps: []domain.Run{
					jobStep("run-id-1", domain.Done),
					jobStep("run-id-2", domain.Completing),
				},
			},
		},
		Then{
			runStatus:            domain.Completing,
			wantHookBeforeCalled: false,
		},
	))

	t.Run("a completing pipeline run settles to Done after its steps", theory(
		When{
			runPassedToCallback: pipeRun("run-id-0", domain.Completing),
			pipeline: domain.PipelineRun{
				Run: pipeRun("run-id-0", domain.Completing),
				Steps: []domain.Run{
					jobStep("run-id-1", domain.Done),
					jobStep("run-id-2", domain.Done),
				},
			},
		},
		Then{
			runStatus:            domain.Done,
			wantHookBeforeCalled: true,
		},
	))

	t.Run("an aborting pipeline run settles to Failed after its steps", theory(
		When{
			runPassedToCallback: pipeRun("run-id-0", domain.Aborting),
			pipeline: domain.PipelineRun{
				Run: pipeRun("run-id-0", domain.Aborting),
				Steps: []domain.Run{
					jobStep("run-id-1", domain.Done),
					jobStep("run-id-2", domain.Failed),
					jobStep("run-id-3", domain.Invalidated),
				},
			},
		},
		Then{
			runStatus:            domain.Failed,
			wantHookBeforeCalled: true,
		},
	))

	{
		wantErr := errors.New("fake error (get pipeline)")
		t.Run("when fetching the pipeline fails, it keeps the run as it is", theory(
			When{
				runPassedToCallback: pipeRun("run-id-0", domain.Completing),
				errGetPipeline:      wantErr,
			},
			Then{
				runStatus: domain.Completing,
				wantError: wantErr,
			},
		))
	}

	t.Run("a run in an unexpected status is left with an assertion error", theory(
		When{
			runPassedToCallback: jobStep("run-id-0", domain.Running),
		},
		Then{
			runStatus:    domain.Running,
			wantAnyError: true,
		},
	))
}
