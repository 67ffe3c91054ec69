package find

import (
	"context"
	"encoding/json"
	"log"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	kargs "github.com/quaark/mlrun-remote-project/pkg/utils/args"
	ptr "github.com/quaark/mlrun-remote-project/pkg/utils/pointer"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Project *kargs.Argslice `flag:"project" alias:"p" metavar:"NAME" help:"Find Endpoints of this Project. Repeatable."`
	Model   *kargs.Argslice `flag:"model" alias:"m" metavar:"NAME" help:"Find Endpoints serving this model. Repeatable."`
	Status  *kargs.Argslice `flag:"status" alias:"s" metavar:"ready|retired..." help:"Find Endpoints in this status. Repeatable."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Find model Endpoints that satisfy all specified conditions.",
		Flags{
			Project: &kargs.Argslice{},
			Model:   &kargs.Argslice{},
			Status:  &kargs.Argslice{},
		},
		flarc.Args{},
		common.NewTask(Task()),
		flarc.WithDescription(`
Find model Endpoints that satisfy all specified conditions.
If the same flag is passed multiple times, Endpoints satisfying any of its values are found.

	{{ .Command }} --project breast-cancer --status ready
`),
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

		found, err := client.FindEndpoint(ctx, krst.FindEndpointParameter{
			ProjectName: ptr.SafeDeref(flags.Project),
			ModelName:   ptr.SafeDeref(flags.Model),
			Status:      ptr.SafeDeref(flags.Status),
		})
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
