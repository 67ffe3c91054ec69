package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/quaark/mlrun-remote-project/cmd/loops/hook"
	"github.com/quaark/mlrun-remote-project/cmd/loops/loop"
	"github.com/quaark/mlrun-remote-project/cmd/loops/loop/recurring"
	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/finishing"
	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/gc"
	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/housekeeping"
	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/initialize"
	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/runManagement"
	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/runManagement/manager/job"
	servingManager "github.com/quaark/mlrun-remote-project/cmd/loops/tasks/runManagement/manager/serving"
	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/runManagement/runManagementHook"
	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/scheduling"
	cfg_hook "github.com/quaark/mlrun-remote-project/pkg/configs/hook"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform"
	kw "github.com/quaark/mlrun-remote-project/pkg/domain/run/k8s/worker"
	"github.com/quaark/mlrun-remote-project/pkg/domain/run/token"
)

type LoggerOptions func(*log.Logger) *log.Logger

func byLogger(l *log.Logger, opt ...LoggerOptions) *log.Logger {
	for _, o := range opt {
		l = o(l)
	}
	return l
}

func Copied() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		return log.New(l.Writer(), l.Prefix(), l.Flags())
	}
}

func WithPrefix(pre string) LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetPrefix(pre)
		return l
	}
}

func WithTimestamp() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetFlags(l.Flags() | log.Ldate | log.Ltime | log.Lmicroseconds)
		return l
	}
}

// Wrapper for monitoring loop tasks
//
//	Log the start and end of each time a task is executed. Essentially, it executes a task.
func monitor[T any](logger *log.Logger, task loop.Task[T]) loop.Task[T] {
	// counter for execution of the task
	var counter uint64
	return func(ctx context.Context, t T) (ret T, next loop.Next) {
		// func() capture the 'counter' variable
		counter += 1
		timestamp := time.Now()

		logger.Printf("task start: #0x%X: ", counter)

		// log at the end of the task
		defer func() {
			logger.Printf(
				"task end: #0x%X (takes %s): %s\n with value = %#v",
				counter, time.Since(timestamp), next, ret,
			)
		}()

		// execute the task specified by the argument
		ret, next = task(ctx, t)
		return
	}
}

// Manifest for starting a loop, which determines how the loop should behave.
type LoopManifest struct {
	// Which loop to run
	Type domain.LoopType

	// Policy for the looping
	Policy recurring.Policy

	// Hooks for the looping
	Hooks cfg_hook.Config
}

func mergeEmptyStruct(a, b struct{}) struct{} {
	return struct{}{}
}

// StartLoop runs the loop named by manifest.Type against the platform
// and blocks until the loop stops.
//
// Args:
//
// - ctx
//
// - logger : logger for monitoring loop.
//
// - pla : handle of the mlrun platform
//
// - manifest
func StartLoop(
	ctx context.Context,
	logger *log.Logger,
	pla platform.Platform,
	manifest LoopManifest,
) error {
	switch manifest.Type {
	case domain.Scheduling:
		return StartSchedulingLoop(ctx, logger, pla, manifest)
	case domain.Initialize:
		return StartInitializeLoop(ctx, logger, pla, manifest)
	case domain.RunManagement:
		return StartRunManagementLoop(ctx, logger, pla, manifest)
	case domain.Finishing:
		return StartFinishingLoop(ctx, logger, pla, manifest)
	case domain.GarbageCollection:
		return StartGarbageCollectionLoop(ctx, logger, pla, manifest)
	case domain.Housekeeping:
		return StartHousekeepingLoop(ctx, logger, pla, manifest)
	default:
		return fmt.Errorf(`%w: "%s"`, domain.ErrUnknownLoopType, manifest.Type)
	}
}

// Start scheduling loop, generating step runs for runnable workflow steps
// and pipeline runs for submitted workflows.
func StartSchedulingLoop(
	ctx context.Context,
	logger *log.Logger,
	pla platform.Platform,
	manifest LoopManifest,
) error {
	_, err := loop.Start(
		ctx, scheduling.Seed(),
		monitor(
			byLogger(logger, Copied(), WithPrefix("[scheduling loop]")),
			scheduling.Task(
				pla.Run().Database(),
			).Applied(manifest.Policy),
		),
	)
	return err
}

func StartInitializeLoop(
	ctx context.Context,
	logger *log.Logger,
	pla platform.Platform,
	manifest LoopManifest,
) error {
	_, err := loop.Start(
		ctx, initialize.Seed(),
		monitor(
			byLogger(logger, Copied(), WithPrefix("[initialize loop]")),
			initialize.Task(
				pla.Run().Database(),
				pla.Run().K8s(),
				hook.Build(manifest.Hooks.Lifecycle, mergeEmptyStruct),
			).Applied(manifest.Policy),
		),
		loop.WithTimeout(30*time.Second),
	)
	return err
}

func StartRunManagementLoop(
	ctx context.Context,
	logger *log.Logger,
	pla platform.Platform,
	manifest LoopManifest,
) error {
	irun := pla.Run()

	// workerEnvvars mints the variables a worker needs to reach back
	// into the mlrun API. Hooks may extend the environment but never
	// shadow these.
	workerEnvvars := func(ctx context.Context, r domain.Run, hookEnv map[string]string) (map[string]string, error) {
		tok, err := token.Sign(ctx, pla.RunTokenKeys(), r.Id, r.ProjectName)
		if err != nil {
			return nil, err
		}
		envvars := map[string]string{}
		for k, v := range hookEnv {
			envvars[k] = v
		}
		envvars["MLRUN_API_ROOT"] = pla.Config().ApiRoot()
		envvars["MLRUN_PROJECT"] = r.ProjectName
		envvars["MLRUN_RUN_ID"] = r.Id
		envvars["MLRUN_RUN_TOKEN"] = tok
		return envvars, nil
	}

	_, err := loop.Start(
		ctx,
		// Initial RunCursor
		runManagement.Seed(),
		monitor(
			byLogger(logger, Copied(), WithPrefix("[run management loop]")),
			// loop body
			runManagement.Task(
				// Runs from DB
				irun.Database(),
				// A manager spawning and watching k8s Jobs for job step runs.
				job.New(
					irun.K8s().FindWorker,
					func(ctx context.Context, r domain.Run, hookEnv map[string]string) error {
						envvars, err := workerEnvvars(ctx, r, hookEnv)
						if err != nil {
							return err
						}
						_, err = irun.K8s().SpawnWorker(ctx, r, envvars)
						return err
					},
					irun.Database().SetExit,
				),
				// A manager standing model servers for serving step runs.
				servingManager.New(
					irun.K8s().FindWorker,
					func(ctx context.Context, r domain.Run, model kw.ModelAssignment, hookEnv map[string]string) error {
						envvars, err := workerEnvvars(ctx, r, hookEnv)
						if err != nil {
							return err
						}
						_, err = irun.K8s().SpawnServing(ctx, r, model, envvars)
						return err
					},
					irun.Database().GetPipeline,
					irun.Database().SetExit,
				),

				runManagementHook.Hooks{
					ToStarting:   hook.Build(manifest.Hooks.Lifecycle, runManagementHook.Merge), // ready -> starting
					ToRunning:    hook.Build(manifest.Hooks.Lifecycle, mergeEmptyStruct),        // starting -> running
					ToCompleting: hook.Build(manifest.Hooks.Lifecycle, mergeEmptyStruct),        // running -> completing
					ToAborting:   hook.Build(manifest.Hooks.Lifecycle, mergeEmptyStruct),        // running -> aborting
				},
			).Applied(manifest.Policy),
		),
		loop.WithTimeout(30*time.Second),
	)
	return err
}

func StartFinishingLoop(
	ctx context.Context,
	logger *log.Logger,
	pla platform.Platform,
	manifest LoopManifest,
) error {
	_, err := loop.Start(
		ctx, finishing.Seed(),
		monitor(
			byLogger(logger, Copied(), WithPrefix("[finishing loop]")),
			// loop body
			finishing.Task(
				pla.Run().Database(),
				pla.Run().K8s(),
				pla.Serving().Database(),
				pla.Config().Serve().Port(),
				hook.Build(manifest.Hooks.Lifecycle, mergeEmptyStruct),
			).Applied(manifest.Policy),
		),
	)
	return err
}

func StartGarbageCollectionLoop(
	ctx context.Context,
	logger *log.Logger,
	pla platform.Platform,
	manifest LoopManifest,
) error {
	_, err := loop.Start(
		ctx, gc.Seed(),
		monitor(
			byLogger(logger, Copied(), WithPrefix("[gc loop]")),
			gc.Task(
				pla.Garbage().Database(),
				pla.Garbage().Store(),
				pla.Run().Database(),
				pla.Run().K8s(),
				pla.Serving().Database(),
			).Applied(manifest.Policy),
		),
	)
	return err
}

func StartHousekeepingLoop(
	ctx context.Context,
	logger *log.Logger,
	pla platform.Platform,
	manifest LoopManifest,
) error {
	_, err := loop.Start(
		ctx, housekeeping.Seed(),
		monitor(
			byLogger(logger, Copied(), WithPrefix("[housekeeping loop]")),
			housekeeping.Task(
				pla.Run().Database(),
				pla.Run().K8s(),
				pla.Config().Worker().StartTimeout(),
			).Applied(manifest.Policy),
		),
	)
	return err
}
