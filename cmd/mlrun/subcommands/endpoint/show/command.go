package show

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	"github.com/youta-t/flarc"
)

const ARG_NAME = "NAME"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show a model Endpoint.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Endpoint to show.",
			},
		},
		common.NewTask(Task()),
	)
}

func Task() common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		mlrunEnv kenv.Env,
		client krst.Client,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		name := cl.Args()[ARG_NAME][0]

		detail, err := client.GetEndpoint(ctx, name)
		if err != nil {
			return fmt.Errorf("%w: Endpoint:%s", err, name)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}
		return nil
	}
}
