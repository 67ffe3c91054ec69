package rm

import (
	"context"
	"log"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	"github.com/youta-t/flarc"
)

type Option struct {
	remove func(
		ctx context.Context,
		client krst.Client,
		runId string,
	) error
}

func WithRemover(
	remove func(
		ctx context.Context,
		client krst.Client,
		runId string,
	) error,
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.remove = remove
		return opt
	}
}

const ARG_RUNID = "RUN_ID"

func New(
	options ...func(*Option) *Option,
) (flarc.Command, error) {
	option := &Option{
		remove: RunDeleteRun,
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Delete Run for the specified Run Id.",
		struct{}{},
		flarc.Args{
			{
				Name:       ARG_RUNID,
				Required:   true,
				Repeatable: false,
				Help:       "Id of the Run to be deleted. The Run must be finished.",
			},
		},
		common.NewTask(Task(option.remove)),
	)
}

func Task(
	remove func(context.Context, krst.Client, string) error,
) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		mlrunEnv kenv.Env,
		client krst.Client,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {

		runId := cl.Args()[ARG_RUNID][0]
		if err := remove(ctx, client, runId); err == nil {
			logger.Printf("deleted Run Id:%v", runId)
		} else {
			return err
		}
		return nil
	}
}

func RunDeleteRun(ctx context.Context, client krst.Client, runId string) error {
	return client.DeleteRun(ctx, runId)
}
