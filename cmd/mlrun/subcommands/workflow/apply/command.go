package apply

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/projectfile"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	apiworkflows "github.com/quaark/mlrun-remote-project/pkg/api/types/workflows"
	"github.com/youta-t/flarc"
	"gopkg.in/yaml.v3"
)

type Flags struct {
	Project string `flag:"project" metavar:"NAME" help:"Project name. Default: the name in DIR/project.yaml."`
	Context string `flag:"context" alias:"C" metavar:"DIR" help:"Project context directory. Default: current directory."`
}

type Option struct {
	apply func(context.Context, krst.Client, string, apiworkflows.Spec) (apiworkflows.Detail, error)
}

func WithApply(
	apply func(context.Context, krst.Client, string, apiworkflows.Spec) (apiworkflows.Detail, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.apply = apply
		return opt
	}
}

const (
	ARG_NAME = "NAME"
	ARG_FILE = "FILE"
)

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		apply: RunPutWorkflow,
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Register (or update) a Workflow of a Project.",
		Flags{Context: "."},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Workflow.",
			},
			{
				Name: ARG_FILE, Required: true,
				Help: `Workflow definition file (yaml). "-" means stdin.`,
			},
		},
		common.NewTask(Task(option.apply)),
		flarc.WithDescription(`
Register a Workflow: a DAG of Steps, each invoking a registered Function.

	{{ .Command }} main workflow.yaml

The Workflow file lists steps with their function, params and
dependencies ("needs"). The name given on the command line wins over
the one in the file.
`),
	)
}

func Task(
	apply func(context.Context, krst.Client, string, apiworkflows.Spec) (apiworkflows.Detail, error),
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
		args := cl.Args()

		project, err := projectfile.ResolveName(flags.Project, flags.Context)
		if err != nil {
			return err
		}

		var content []byte
		if file := args[ARG_FILE][0]; file == "-" {
			content, err = io.ReadAll(cl.Stdin())
		} else {
			content, err = os.ReadFile(file)
		}
		if err != nil {
			return fmt.Errorf("cannot read Workflow file: %w", err)
		}

		spec := apiworkflows.Spec{}
		if err := yaml.Unmarshal(content, &spec); err != nil {
			return fmt.Errorf("broken Workflow file: %w", err)
		}
		spec.Name = args[ARG_NAME][0]
		if len(spec.Steps) == 0 {
			return fmt.Errorf("%w: Workflow has no steps", flarc.ErrUsage)
		}

		detail, err := apply(ctx, client, project, spec)
		if err != nil {
			return err
		}

		logger.Printf(
			"registered Workflow %s/%s (%d steps)",
			detail.Project, detail.Name, len(detail.Steps),
		)

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}
		return nil
	}
}

func RunPutWorkflow(
	ctx context.Context, client krst.Client, project string, spec apiworkflows.Spec,
) (apiworkflows.Detail, error) {
	return client.PutWorkflow(ctx, project, spec)
}
