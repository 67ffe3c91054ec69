package find

import (
	"context"
	"encoding/json"
	"log"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	kargs "github.com/quaark/mlrun-remote-project/pkg/utils/args"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Name *kargs.Argslice `flag:"name" alias:"n" metavar:"NAME..." help:"Find Projects with this name. Repeatable; empty means all Projects."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Find Projects.",
		Flags{
			Name: &kargs.Argslice{},
		},
		flarc.Args{},
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
		names := []string{}
		if n := cl.Flags().Name; n != nil {
			names = *n
		}

		found, err := client.FindProject(ctx, names)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(found); err != nil {
			return err
		}
		return nil
	}
}
