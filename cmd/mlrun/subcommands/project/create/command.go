package create

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/projectfile"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	apiprojects "github.com/quaark/mlrun-remote-project/pkg/api/types/projects"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Source  string `flag:"source" metavar:"GIT_URL" help:"Remote git URL the project source is synced from."`
	Context string `flag:"context" alias:"C" metavar:"DIR" help:"Project context directory to write the project file into."`
}

type Option struct {
	register func(context.Context, krst.Client, apiprojects.Spec) (apiprojects.Detail, error)
}

func WithRegister(
	register func(context.Context, krst.Client, apiprojects.Spec) (apiprojects.Detail, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.register = register
		return opt
	}
}

const ARG_NAME = "NAME"

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		register: RunRegisterProject,
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Create a new Project (or load the existing one with the same name).",
		Flags{Context: "."},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Project to be created.",
			},
		},
		common.NewTask(Task(option.register)),
		flarc.WithDescription(`
Create a new Project.

When a Project with the same name exists already, it is returned as it is.
The Project is written down to DIR/project.yaml (--context DIR; default: current
directory), so that other subcommands know which Project you are working on.
`),
	)
}

func Task(
	register func(context.Context, krst.Client, apiprojects.Spec) (apiprojects.Detail, error),
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
		spec := apiprojects.Spec{
			Name:   cl.Args()[ARG_NAME][0],
			Source: flags.Source,
		}

		detail, err := register(ctx, client, spec)
		if err != nil {
			return fmt.Errorf("failed to create Project: %w", err)
		}

		if err := projectfile.Save(flags.Context, apiprojects.Spec{
			Name:   detail.Name,
			Source: detail.Source,
		}); err != nil {
			return fmt.Errorf("failed to write %s: %w", projectfile.Filename, err)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}
		return nil
	}
}

func RunRegisterProject(
	ctx context.Context, client krst.Client, spec apiprojects.Spec,
) (apiprojects.Detail, error) {
	return client.RegisterProject(ctx, spec)
}
