package find

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	apiruns "github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
	kargs "github.com/quaark/mlrun-remote-project/pkg/utils/args"
	ptr "github.com/quaark/mlrun-remote-project/pkg/utils/pointer"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Project  *kargs.Argslice         `flag:"project" alias:"p" metavar:"NAME" help:"Find Runs of this Project. Repeatable."`
	Workflow *kargs.Argslice         `flag:"workflow" alias:"w" metavar:"NAME" help:"Find Runs of this Workflow. Repeatable."`
	Status   *kargs.Argslice         `flag:"status" alias:"s" metavar:"waiting|running|done|failed..." help:"Find Runs in this status. Repeatable."`
	Since    *kargs.LooseRFC3339     `flag:"since" help:"Find Runs only updated at this time or later."`
	Duration *kargs.OptionalDuration `flag:"duration" help:"Find Runs only updated in '--duration' from '--since'."`
}

type Option struct {
	find func(
		ctx context.Context,
		client krst.Client,
		parameter krst.FindRunParameter,
	) ([]apiruns.Summary, error)
}

func WithFinder(
	find func(
		ctx context.Context,
		client krst.Client,
		parameter krst.FindRunParameter,
	) ([]apiruns.Summary, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.find = find
		return opt
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		find: RunFindRun,
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Find Runs that satisfy all specified conditions.",
		Flags{
			Project:  &kargs.Argslice{},
			Workflow: &kargs.Argslice{},
			Status:   &kargs.Argslice{},
			Since:    &kargs.LooseRFC3339{},
			Duration: &kargs.OptionalDuration{},
		},
		flarc.Args{},
		common.NewTask(Task(option.find)),
		flarc.WithDescription(`
Find Runs that satisfy all specified conditions.
If the same flag is passed multiple times, Runs satisfying any of its values are found.

To limit results with a timespan, use '--since' and '--duration'.

'--since' limits a result to Runs which have been updated at equal to or later than '--since'.
It is expected to be formatted in RFC3339, and it is also possible to omit
sub-seconds, seconds, minutes, hours and time offsets.
When the time offset is omitted, it is assumed the local time.
For example: "2024-10-31T01:23:45.987Z", "2024-10-31 01:23" or "2024-10-31+09:00".

'--duration' limits a result to Runs which have been updated in '--duration' from '--since'.
It should be used in conjunction with '--since'.
Supported units are "ms", "s", "m" and "h". For example: "300ms", "1.5h" or "2h45m".

Scan over Runs day by day:

	{{ .Command }} --duration 24h --since 2024-01-01
	{{ .Command }} --duration 24h --since 2024-01-02
	# And so on. There are no overlaps between days.
`),
	)
}

func Task(
	find func(
		ctx context.Context,
		client krst.Client,
		parameter krst.FindRunParameter,
	) ([]apiruns.Summary, error),
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

		since := flags.Since.Time()
		duration := flags.Duration.Duration()
		if since == nil && duration != nil {
			return fmt.Errorf("%w: --duration must be together with --since", flarc.ErrUsage)
		}

		parameter := krst.FindRunParameter{
			ProjectName:  ptr.SafeDeref(flags.Project),
			WorkflowName: ptr.SafeDeref(flags.Workflow),
			Status:       ptr.SafeDeref(flags.Status),
			Since:        since,
			Duration:     duration,
		}

		found, err := find(ctx, client, parameter)
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

func RunFindRun(
	ctx context.Context, client krst.Client, parameter krst.FindRunParameter,
) ([]apiruns.Summary, error) {
	return client.FindRun(ctx, parameter)
}
