package project

import (
	project_create "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/project/create"
	project_find "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/project/find"
	project_load "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/project/load"
	project_push "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/project/push"
	project_run "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/project/run"
	project_show "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/project/show"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {

	create, err := project_create.New()
	if err != nil {
		return nil, err
	}
	load, err := project_load.New()
	if err != nil {
		return nil, err
	}
	push, err := project_push.New()
	if err != nil {
		return nil, err
	}
	show, err := project_show.New()
	if err != nil {
		return nil, err
	}
	find, err := project_find.New()
	if err != nil {
		return nil, err
	}
	run, err := project_run.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate mlrun Project.",
		struct{}{},
		flarc.WithSubcommand("create", create),
		flarc.WithSubcommand("load", load),
		flarc.WithSubcommand("push", push),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("run", run),
	)
}
