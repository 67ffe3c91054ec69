package stop

import (
	"context"
	"log"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Fail bool `flag:"fail" alias:"x" help:"Abort Run and let it be failed. Otherwise it will be done as succeeded."`
}

const ARG_RUNID = "RUN_ID"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Stop a running Run.",
		Flags{Fail: false},
		flarc.Args{
			{
				Name: ARG_RUNID, Required: true,
				Help: "Run Id to be stopped",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Stop a Run and let it be done successfully.
If you want to stop a Run and let it be failed, use --fail option.
`),
	)
}

func Task() common.Task[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		mlrunEnv kenv.Env,
		client krst.Client,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		runId := cl.Args()[ARG_RUNID][0]

		if cl.Flags().Fail {
			_, err := client.Abort(ctx, runId)
			if err == nil {
				logger.Printf("Run Id: %s is aborting.", runId)
			}
			return err
		}

		_, err := client.Tearoff(ctx, runId)
		if err == nil {
			logger.Printf("Run Id: %s is stopping.", runId)
		}
		return err
	}
}
