package retire

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
		"Take a model Endpoint out of service.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Endpoint to retire.",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Take a model Endpoint out of service.

The serving Run behind the Endpoint is stopped, and the Endpoint stops
accepting inference requests. Records about the Endpoint are kept.
`),
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

		detail, err := client.RetireEndpoint(ctx, name)
		if err != nil {
			return fmt.Errorf("%w: Endpoint:%s", err, name)
		}
		logger.Printf("Endpoint %s is retired.", detail.Name)

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}
		return nil
	}
}
