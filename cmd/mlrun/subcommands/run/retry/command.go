package retry

import (
	"context"
	"log"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	"github.com/youta-t/flarc"
)

const ARG_RUNID = "RUN_ID"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Retry a finished Run.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_RUNID, Required: true,
				Help: "Run Id to retry",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Retry a Run.

Retriable Runs are finished ones: Runs whose status is "done" or "failed".
Retrying resets the pipeline Run and its Step Runs, and the scheduler
starts them over.
`),
	)
}

func Task() common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		mlrunEnv kenv.Env,
		client krst.Client,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		runId := cl.Args()[ARG_RUNID][0]

		if err := client.Retry(ctx, runId); err != nil {
			return err
		}
		logger.Println("requested to retry Run:", runId)
		return nil
	}
}
