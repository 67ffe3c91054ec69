package function

import (
	function_apply "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/function/apply"
	function_find "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/function/find"
	function_show "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/function/show"
	function_template "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/function/template"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {

	apply, err := function_apply.New()
	if err != nil {
		return nil, err
	}
	show, err := function_show.New()
	if err != nil {
		return nil, err
	}
	find, err := function_find.New()
	if err != nil {
		return nil, err
	}
	template, err := function_template.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate mlrun Function.",
		struct{}{},
		flarc.WithSubcommand("apply", apply),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("template", template),
	)
}
