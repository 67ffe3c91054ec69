//go:generate go run github.com/Songmu/gocredits/cmd/gocredits@v0.3.0 -w
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/quaark/mlrun-remote-project/cmd/loops/loop/recurring"
	configs "github.com/quaark/mlrun-remote-project/pkg/configs/backend"
	cfg_hook "github.com/quaark/mlrun-remote-project/pkg/configs/hook"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform"
	"github.com/quaark/mlrun-remote-project/pkg/utils/args"
	"github.com/quaark/mlrun-remote-project/pkg/utils/filewatch"
	"github.com/quaark/mlrun-remote-project/pkg/utils/try"
)

//go:embed CREDITS
var CREDITS string

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	// call cancel() when this function exits
	defer cancel()

	// define command line flags
	//-- path to config file
	pconfig := flag.String(
		"config", os.Getenv("MLRUN_BACKEND_CONFIG"), "path to config file",
	)
	pSchemaRepo := flag.String(
		"schema-repo", os.Getenv("MLRUN_SCHEMA"), "schema repository path",
	)
	phooks := flag.String(
		"hooks", os.Getenv("MLRUN_HOOK_CONFIG"), "path to hook config file",
	)
	//-- which loop type to run
	loopType := args.Parser(domain.AsLoopType)
	flag.Var(loopType, "type", "one of loop type")
	//-- loop policy
	policy := args.Parser(recurring.ParsePolicy)
	flag.Var(
		policy, "policy",
		`loop policy (syntax: forever[:COOLDOWN]|backlog).`+
			` "forever[:COOLDOWN]" = run forever until error. When backlog is over, `+
			`wait COOLDOWN (optional duration. default: 0) as inteval.`+
			` "backlog" = run until error or backlog is over.`,
	)
	plic := flag.Bool("license", false, "show licenses of dependencies")
	// parse command line flags
	flag.Parse()

	if *plic {
		logger.Println(CREDITS)
		return
	}

	{
		// watch config & hooks
		watchTargets := []string{*pconfig}
		if *phooks != "" {
			watchTargets = append(watchTargets, *phooks)
		}
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, watchTargets...)
		if err != nil {
			logger.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	conf := try.To(configs.LoadBackendConfig(*pconfig)).OrFatal(logger)

	pla := try.To(platform.Default(
		ctx, conf.Cluster(), platform.WithSchemaRepository(*pSchemaRepo),
	)).OrFatal(logger)

	{
		ctx_, ccan := pla.Schema().Database().Context(ctx)
		defer ccan()
		ctx = ctx_
	}

	hooks := cfg_hook.Config{}
	if hookPath := *phooks; hookPath != "" {
		hooks = try.To(cfg_hook.Load(hookPath)).OrFatal(logger)
	}

	logger.Printf(
		`start loop "%s" /w policy "%s"`,
		loopType.Value().String(), policy.Value().String(),
	)

	err := StartLoop(
		ctx, logger, pla,
		LoopManifest{
			Type:   loopType.Value(),
			Policy: recurring.UntilError(policy.Value()),
			Hooks:  hooks,
		},
	)

	if err == nil {
		return
	} else if errors.Is(err, context.Canceled) {
		logger.Fatal(err, "(loop context is cancelled by:", context.Cause(ctx), ")")
	}

	if ctx.Err() != nil {
		logger.Fatal(err)
	}
}
