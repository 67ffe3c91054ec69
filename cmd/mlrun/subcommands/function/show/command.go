package show

import (
	"context"
	"encoding/json"
	"fmt"
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
		"Show a Function of a Project.",
		Flags{Context: "."},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Function to be shown.",
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
		name := cl.Args()[ARG_NAME][0]

		project, err := projectfile.ResolveName(flags.Project, flags.Context)
		if err != nil {
			return err
		}

		detail, err := client.GetFunction(ctx, project, name)
		if err != nil {
			return fmt.Errorf("%w: Function:%s/%s", err, project, name)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}
		return nil
	}
}
