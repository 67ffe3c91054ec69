//go:generate go run github.com/Songmu/gocredits/cmd/gocredits@v0.3.0 -w
package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	subendpoint "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/endpoint"
	subfunction "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/function"
	subinit "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/init"
	sublic "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/license"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/logger"
	subproject "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/project"
	subrun "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/run"
	subver "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/version"
	subworkflow "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/workflow"
	"github.com/quaark/mlrun-remote-project/pkg/utils/try"
	"github.com/youta-t/flarc"
)

//go:embed CREDITS
var CREDITS string

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := try.To(common.Flags(".")).OrFatal(logger)
	init := try.To(subinit.New()).OrFatal(logger)
	project := try.To(subproject.New()).OrFatal(logger)
	function := try.To(subfunction.New()).OrFatal(logger)
	workflow := try.To(subworkflow.New()).OrFatal(logger)
	run := try.To(subrun.New()).OrFatal(logger)
	endpoint := try.To(subendpoint.New()).OrFatal(logger)
	license := try.To(sublic.New(CREDITS)).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	mlrun := try.To(
		flarc.NewCommandGroup(
			"mlrun Commandline interface",
			cf,
			flarc.WithSubcommand("init", init),
			flarc.WithSubcommand("project", project),
			flarc.WithSubcommand("function", function),
			flarc.WithSubcommand("workflow", workflow),
			flarc.WithSubcommand("run", run),
			flarc.WithSubcommand("endpoint", endpoint),
			flarc.WithSubcommand("license", license),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, mlrun, flarc.WithHelp(true)))
}
