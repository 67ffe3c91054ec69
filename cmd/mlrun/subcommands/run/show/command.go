package show

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	apiruns "github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
	"github.com/youta-t/flarc"
)

type Option struct {
	showInfo ShowInfo
	showLog  ShowLog
}

type ShowInfo func(
	ctx context.Context,
	client krst.Client,
	runId string,
) (apiruns.Detail, error)

type ShowLog func(
	ctx context.Context,
	client krst.Client,
	out io.Writer,
	runId string,
	follow bool,
) error

type Flags struct {
	Log    bool `flag:"log" help:"display the log of that Run"`
	Follow bool `flag:"follow" alias:"f" help:"follow log if Run is running"`
}

func WithRunner(
	showInfo ShowInfo, showLog ShowLog,
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.showInfo = showInfo
		opt.showLog = showLog
		return opt
	}
}

const ARG_RUNID = "RUN_ID"

func New(
	options ...func(*Option) *Option,
) (flarc.Command, error) {
	option := &Option{
		showInfo: RunShowRunForInfo,
		showLog:  RunShowRunForLog,
	}

	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Return the Run information for the specified Run Id.",
		Flags{
			Log:    false,
			Follow: false,
		},
		flarc.Args{
			{
				Name: ARG_RUNID, Required: true,
				Help: "Id of the Run to be shown",
			},
		},
		common.NewTask(Task(option.showInfo, option.showLog)),
		flarc.WithDescription(`
Return the Run information for the specified Run Id:
its status, and the status and Artifacts of each of its Steps.

when --log is passed, it displays the log of that Run on the console.
--follow keeps the log open while the Run is in progress.
`),
	)
}

func Task(showInfo ShowInfo, showLog ShowLog) common.Task[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		mlrunEnv kenv.Env,
		client krst.Client,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		runId := cl.Args()[ARG_RUNID][0]

		flags := cl.Flags()
		if !flags.Log {
			data, err := showInfo(ctx, client, runId)
			if err != nil {
				return fmt.Errorf("%w: Run Id:%s", err, runId)
			}
			enc := json.NewEncoder(cl.Stdout())
			enc.SetIndent("", "    ")
			if err := enc.Encode(data); err != nil {
				logger.Panicf("fail to dump found Run")
			}
		} else {
			if err := showLog(ctx, client, cl.Stdout(), runId, flags.Follow); err != nil {
				return err
			}
		}
		return nil
	}
}

func RunShowRunForInfo(
	ctx context.Context, client krst.Client, runId string,
) (apiruns.Detail, error) {
	result, err := client.GetRun(ctx, runId)
	if err != nil {
		return apiruns.Detail{}, err
	}
	return result, nil
}

func RunShowRunForLog(
	ctx context.Context, client krst.Client, out io.Writer, runId string, follow bool,
) error {
	r, err := client.GetRunLog(ctx, runId, follow)
	if err != nil {
		return err
	}
	defer r.Close()

	if _, err := io.Copy(out, r); err != nil {
		return err
	}
	return nil
}
