package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	apiserving "github.com/quaark/mlrun-remote-project/pkg/api/types/serving"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Input string `flag:"input" alias:"i" metavar:"path/to/payload.json" help:"File containing the inference payload. \"-\" means stdin."`
}

type Option struct {
	infer func(
		ctx context.Context,
		client krst.Client,
		name string,
		payload io.Reader,
	) (apiserving.InferResponse, error)
}

func WithInfer(
	infer func(
		ctx context.Context,
		client krst.Client,
		name string,
		payload io.Reader,
	) (apiserving.InferResponse, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.infer = infer
		return opt
	}
}

const (
	ARG_NAME    = "NAME"
	ARG_PAYLOAD = "PAYLOAD"
)

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		infer: RunInfer,
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Invoke a model Endpoint with an inference payload.",
		Flags{},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Endpoint to invoke.",
			},
			{
				Name: ARG_PAYLOAD, Required: false,
				Help: `Inference payload as a JSON literal, like '{"inputs": [[1.0, 2.0]]}'.
--input and PAYLOAD are exclusive.`,
			},
		},
		common.NewTask(Task(option.infer)),
		flarc.WithDescription(`
Invoke a model Endpoint: POST samples and receive one prediction per sample.

	{{ .Command }} breast-cancer-serving '{"inputs": [[1.0, 2.0, 3.0]]}'
	{{ .Command }} breast-cancer-serving --input samples.json
	cat samples.json | {{ .Command }} breast-cancer-serving --input -

The payload lists samples under "inputs"; each sample is a vector of features.
`),
	)
}

func Task(
	infer func(
		ctx context.Context,
		client krst.Client,
		name string,
		payload io.Reader,
	) (apiserving.InferResponse, error),
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
		name := args[ARG_NAME][0]

		var content []byte
		var err error
		switch {
		case 0 < len(args[ARG_PAYLOAD]):
			if flags.Input != "" {
				return fmt.Errorf("%w: --input and PAYLOAD are exclusive", flarc.ErrUsage)
			}
			content = []byte(args[ARG_PAYLOAD][0])
		case flags.Input == "-":
			content, err = io.ReadAll(cl.Stdin())
		case flags.Input != "":
			content, err = os.ReadFile(flags.Input)
		default:
			return fmt.Errorf("%w: PAYLOAD or --input is required", flarc.ErrUsage)
		}
		if err != nil {
			return fmt.Errorf("cannot read the payload: %w", err)
		}

		req := apiserving.InferRequest{}
		if err := json.Unmarshal(content, &req); err != nil {
			return fmt.Errorf("%w: broken payload: %s", flarc.ErrUsage, err)
		}
		if len(req.Inputs) == 0 {
			return fmt.Errorf("%w: the payload has no inputs", flarc.ErrUsage)
		}

		body, err := json.Marshal(req)
		if err != nil {
			return err
		}

		resp, err := infer(ctx, client, name, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("%w: Endpoint:%s", err, name)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return nil
	}
}

func RunInfer(
	ctx context.Context, client krst.Client, name string, payload io.Reader,
) (apiserving.InferResponse, error) {
	return client.Infer(ctx, name, payload)
}
