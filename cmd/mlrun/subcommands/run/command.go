package run

import (
	run_find "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/run/find"
	run_retry "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/run/retry"
	run_rm "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/run/rm"
	run_show "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/run/show"
	run_stop "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/run/stop"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {

	find, err := run_find.New()
	if err != nil {
		return nil, err
	}
	show, err := run_show.New()
	if err != nil {
		return nil, err
	}
	stop, err := run_stop.New()
	if err != nil {
		return nil, err
	}
	retry, err := run_retry.New()
	if err != nil {
		return nil, err
	}
	rm, err := run_rm.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate pipeline Run.",
		struct{}{},
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("stop", stop),
		flarc.WithSubcommand("retry", retry),
		flarc.WithSubcommand("rm", rm),
	)
}
