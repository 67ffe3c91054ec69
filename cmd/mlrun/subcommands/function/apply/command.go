package apply

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
	"k8s.io/apimachinery/pkg/api/resource"
)

type Flags struct {
	Project     string           `flag:"project" metavar:"NAME" help:"Project name. Default: the name in DIR/project.yaml."`
	Context     string           `flag:"context" alias:"C" metavar:"DIR" help:"Project context directory. Default: current directory."`
	Kind        string           `flag:"kind" metavar:"job|serving" help:"Kind of the Function."`
	Image       string           `flag:"image" metavar:"repository:tag" help:"Container image the Function runs in."`
	Handler     string           `flag:"handler" metavar:"NAME" help:"Entry point of the Function within its source."`
	Requirement *kargs.KeyValues `flag:"requirement" alias:"r" metavar:"cpu=1,memory=1Gi..." help:"Resource requirement of the Function. Repeatable. Wins over mlrunenv requirements."`
}

type Option struct {
	apply func(context.Context, krst.Client, string, apifunctions.Spec) (apifunctions.Detail, error)
}

func WithApply(
	apply func(context.Context, krst.Client, string, apifunctions.Spec) (apifunctions.Detail, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.apply = apply
		return opt
	}
}

const (
	ARG_NAME   = "NAME"
	ARG_SOURCE = "SOURCE"
)

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		apply: RunPutFunction,
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Register (or update) a Function of a Project.",
		Flags{Kind: apifunctions.KindJob.String()},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Function.",
			},
			{
				Name: ARG_SOURCE, Required: false,
				Help: `Source of the Function: a script path in the project context,
or a "hub://" URL of a hub-hosted function.
Serving Functions may have no source at all.`,
			},
		},
		common.NewTask(Task(option.apply)),
		flarc.WithDescription(`
Register a Function so that Workflow Steps can invoke it.

	{{ .Command }} data-prep gen_breast_cancer.py --kind job --image mlrun/mlrun --handler breast_cancer_generator
	{{ .Command }} trainer hub://auto_trainer
	{{ .Command }} serving --kind serving --image mlrun/mlrun

Requirements in the mlrunenv file are applied when the command line
sets none for that resource.
`),
	)
}

func Task(
	apply func(context.Context, krst.Client, string, apifunctions.Spec) (apifunctions.Detail, error),
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

		project, err := projectfile.ResolveName(flags.Project, flags.Context)
		if err != nil {
			return err
		}

		kind, err := apifunctions.ParseKind(flags.Kind)
		if err != nil {
			return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
		}

		spec := apifunctions.Spec{
			Name:    args[ARG_NAME][0],
			Kind:    kind,
			Handler: flags.Handler,
		}
		if s := args[ARG_SOURCE]; 0 < len(s) {
			spec.Source = s[0]
		}
		if flags.Image != "" {
			image := new(apifunctions.Image)
			if err := image.Parse(flags.Image); err != nil {
				return fmt.Errorf("%w: --image: %s", flarc.ErrUsage, err)
			}
			spec.Image = image
		}

		requirements := map[string]string{}
		for k, v := range mlrunEnv.Requirements {
			requirements[k] = v
		}
		if flags.Requirement != nil {
			for k, v := range *flags.Requirement {
				requirements[k] = v
			}
		}
		if 0 < len(requirements) {
			spec.Requirements = apifunctions.Requirements{}
			for k, v := range requirements {
				q, err := resource.ParseQuantity(v)
				if err != nil {
					return fmt.Errorf("%w: requirement %s=%s: %s", flarc.ErrUsage, k, v, err)
				}
				spec.Requirements[k] = q
			}
		}

		detail, err := apply(ctx, client, project, spec)
		if err != nil {
			return fmt.Errorf("failed to apply Function %s: %w", spec.Name, err)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}
		return nil
	}
}

func RunPutFunction(
	ctx context.Context, client krst.Client, project string, spec apifunctions.Spec,
) (apifunctions.Detail, error) {
	return client.PutFunction(ctx, project, spec)
}
