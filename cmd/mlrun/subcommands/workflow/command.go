package workflow

import (
	workflow_apply "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/workflow/apply"
	workflow_show "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/workflow/show"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {

	apply, err := workflow_apply.New()
	if err != nil {
		return nil, err
	}
	show, err := workflow_show.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate mlrun Workflow.",
		struct{}{},
		flarc.WithSubcommand("apply", apply),
		flarc.WithSubcommand("show", show),
	)
}
