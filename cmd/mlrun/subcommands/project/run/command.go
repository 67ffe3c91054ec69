package run

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/projectfile"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	apiruns "github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
	kargs "github.com/quaark/mlrun-remote-project/pkg/utils/args"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Project string           `flag:"project" metavar:"NAME" help:"Project name. Default: the name in DIR/project.yaml."`
	Context string           `flag:"context" alias:"C" metavar:"DIR" help:"Project context directory. Default: current directory."`
	Param   *kargs.KeyValues `flag:"param" alias:"p" metavar:"KEY=VALUE..." help:"Override Step params. Repeatable. KEY can be scoped as STEP.KEY."`
	Watch   bool             `flag:"watch" alias:"w" help:"Poll the Run until the pipeline finishes."`
}

type Option struct {
	trigger func(context.Context, krst.Client, string, string, apiruns.Trigger) (apiruns.Detail, error)
	get     func(context.Context, krst.Client, string) (apiruns.Detail, error)

	pollInterval time.Duration
}

func WithRunner(
	trigger func(context.Context, krst.Client, string, string, apiruns.Trigger) (apiruns.Detail, error),
	get func(context.Context, krst.Client, string) (apiruns.Detail, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.trigger = trigger
		opt.get = get
		return opt
	}
}

func WithPollInterval(d time.Duration) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.pollInterval = d
		return opt
	}
}

const ARG_WORKFLOW = "WORKFLOW"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		trigger:      RunTriggerRun,
		get:          RunGetRun,
		pollInterval: 3 * time.Second,
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Trigger a pipeline Run of a Workflow.",
		Flags{Context: "."},
		flarc.Args{
			{
				Name: ARG_WORKFLOW, Required: true,
				Help: "Name of the Workflow to be run.",
			},
		},
		common.NewTask(Task(option.trigger, option.get, option.pollInterval)),
		flarc.WithDescription(`
Trigger a pipeline Run of a Workflow, remotely.

	{{ .Command }} main
	{{ .Command }} main -p rows=200 -p ingest.label=demo
	{{ .Command }} main --watch

Params in the mlrunenv file are applied first; --param (-p) wins over them.
Without --watch, the new Run is printed and the command returns at once.
With --watch, the Run status is polled until the pipeline finishes, and the
command fails when the pipeline does.
`),
	)
}

func Task(
	trigger func(context.Context, krst.Client, string, string, apiruns.Trigger) (apiruns.Detail, error),
	get func(context.Context, krst.Client, string) (apiruns.Detail, error),
	pollInterval time.Duration,
) common.Task[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		mlrunEnv kenv.Env,
		client krst.Client,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		flags := cl.Flags()
		workflow := cl.Args()[ARG_WORKFLOW][0]

		project, err := projectfile.ResolveName(flags.Project, flags.Context)
		if err != nil {
			return err
		}

		p := map[string]string{}
		for k, v := range mlrunEnv.Params {
			p[k] = v
		}
		if flags.Param != nil {
			for k, v := range *flags.Param {
				p[k] = v
			}
		}

		detail, err := trigger(ctx, client, project, workflow, apiruns.Trigger{Params: p})
		if err != nil {
			return fmt.Errorf("failed to run Workflow %s: %w", workflow, err)
		}
		logger.Printf("triggered Run:%s of Workflow %s/%s", detail.RunId, project, workflow)

		if flags.Watch {
			d, err := watch(ctx, logger, client, get, detail, pollInterval)
			if err != nil {
				return err
			}
			detail = d
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}

		if flags.Watch && detail.Status == "failed" {
			message := "pipeline failed"
			if detail.Exit != nil {
				message = fmt.Sprintf("pipeline failed: %s", detail.Exit.Message)
			}
			return fmt.Errorf("%s (Run:%s)", message, detail.RunId)
		}
		return nil
	}
}

func watch(
	ctx context.Context,
	logger *log.Logger,
	client krst.Client,
	get func(context.Context, krst.Client, string) (apiruns.Detail, error),
	last apiruns.Detail,
	pollInterval time.Duration,
) (apiruns.Detail, error) {
	logger.Printf("watching Run:%s (status: %s) ...", last.RunId, last.Status)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for !isSettled(last.Status) {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}

		detail, err := get(ctx, client, last.RunId)
		if err != nil {
			return last, err
		}
		if detail.Status != last.Status {
			logger.Printf("Run:%s is now %s", detail.RunId, detail.Status)
		}
		for _, step := range detail.Steps {
			before, ok := stepStatus(last, step.Step)
			if !ok || before != step.Status {
				logger.Printf("  step %s (Run:%s) is now %s", step.Step, step.RunId, step.Status)
			}
		}
		last = detail
	}

	return last, nil
}

func isSettled(status string) bool {
	switch status {
	case "done", "failed", "invalidated":
		return true
	}
	return false
}

func stepStatus(detail apiruns.Detail, step string) (string, bool) {
	for _, s := range detail.Steps {
		if s.Step == step {
			return s.Status, true
		}
	}
	return "", false
}

func RunTriggerRun(
	ctx context.Context, client krst.Client, project string, workflow string, trigger apiruns.Trigger,
) (apiruns.Detail, error) {
	return client.TriggerRun(ctx, project, workflow, trigger)
}

func RunGetRun(
	ctx context.Context, client krst.Client, runId string,
) (apiruns.Detail, error) {
	return client.GetRun(ctx, runId)
}
