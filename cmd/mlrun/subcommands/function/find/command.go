package find

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/projectfile"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	apifunctions "github.com/quaark/mlrun-remote-project/pkg/api/types/functions"
	kargs "github.com/quaark/mlrun-remote-project/pkg/utils/args"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Project string          `flag:"project" metavar:"NAME" help:"Project name. Default: the name in DIR/project.yaml."`
	Context string          `flag:"context" alias:"C" metavar:"DIR" help:"Project context directory. Default: current directory."`
	Kind    *kargs.Argslice `flag:"kind" alias:"k" metavar:"job|serving" help:"Find Functions with this kind. Repeatable; empty means any kind."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Find Functions of a Project.",
		Flags{
			Kind: &kargs.Argslice{},
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
		flags := cl.Flags()

		project, err := projectfile.ResolveName(flags.Project, flags.Context)
		if err != nil {
			return err
		}

		kinds := []apifunctions.Kind{}
		if flags.Kind != nil {
			for _, k := range *flags.Kind {
				kind, err := apifunctions.ParseKind(k)
				if err != nil {
					return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
				}
				kinds = append(kinds, kind)
			}
		}

		found, err := client.FindFunction(ctx, project, kinds)
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
