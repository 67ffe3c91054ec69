package show

import (
	"context"
	"encoding/json"
	"log"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/projectfile"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Project string `flag:"project" metavar:"NAME" help:"Project name. Default: the name in DIR/project.yaml."`
	Context string `flag:"context" alias:"C" metavar:"DIR" help:"Project context directory. Default: current directory."`
}

const ARG_NAME = "NAME"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show a Workflow of a Project.",
		Flags{Context: "."},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Workflow to show.",
			},
		},
		common.NewTask(Task()),
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
		flags := cl.Flags()

		project, err := projectfile.ResolveName(flags.Project, flags.Context)
		if err != nil {
			return err
		}

		detail, err := client.GetWorkflow(ctx, project, cl.Args()[ARG_NAME][0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}
		return nil
	}
}
