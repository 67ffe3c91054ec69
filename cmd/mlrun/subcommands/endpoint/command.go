package endpoint

import (
	endpoint_find "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/endpoint/find"
	endpoint_invoke "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/endpoint/invoke"
	endpoint_retire "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/endpoint/retire"
	endpoint_show "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/endpoint/show"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {

	find, err := endpoint_find.New()
	if err != nil {
		return nil, err
	}
	show, err := endpoint_show.New()
	if err != nil {
		return nil, err
	}
	invoke, err := endpoint_invoke.New()
	if err != nil {
		return nil, err
	}
	retire, err := endpoint_retire.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate model Endpoint.",
		struct{}{},
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("invoke", invoke),
		flarc.WithSubcommand("retire", retire),
	)
}
