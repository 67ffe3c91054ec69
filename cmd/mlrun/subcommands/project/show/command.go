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
	Context string `flag:"context" alias:"C" metavar:"DIR" help:"Project context directory. Default: current directory."`
}

const ARG_NAME = "NAME"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show a Project with its Functions and Workflows.",
		Flags{Context: "."},
		flarc.Args{
			{
				Name: ARG_NAME, Required: false,
				Help: "Name of the Project to be shown. Default: the name in DIR/project.yaml.",
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
		name := ""
		if a := cl.Args()[ARG_NAME]; 0 < len(a) {
			name = a[0]
		}
		name, err := projectfile.ResolveName(name, cl.Flags().Context)
		if err != nil {
			return err
		}

		detail, err := client.GetProject(ctx, name)
		if err != nil {
			return fmt.Errorf("%w: Project:%s", err, name)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}
		return nil
	}
}
