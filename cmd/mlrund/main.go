//go:generate go run github.com/Songmu/gocredits/cmd/gocredits@v0.3.0 -w
package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	kcf "github.com/quaark/mlrun-remote-project/pkg/configs/frontend"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform"
	"github.com/quaark/mlrun-remote-project/pkg/utils/filewatch"
)

//go:embed CREDITS
var CREDITS string

func main() {

	pconfig := flag.String(
		"config", os.Getenv("MLRUN_CONFIG"), "path to config file",
	)
	schemaRepo := flag.String("schema-repo", os.Getenv("MLRUN_SCHEMA"), "schema repository path")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	plic := flag.Bool("license", false, "show licenses of dependencies")
	flag.Parse()

	if *plic {
		fmt.Println(CREDITS)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	conf, err := kcf.LoadFrontendConfig(*pconfig)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}
	clusterConf := conf.Cluster.TrySeal()

	{
		// stop (and let the supervisor restart) when the config file changes.
		wctx, wcancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			log.Fatalf("can not watch configration: %s", err)
		}
		defer wcancel()
		ctx = wctx
	}

	pla, err := platform.Default(ctx, clusterConf, platform.WithSchemaRepository(*schemaRepo))
	if err != nil {
		log.Fatalf("can not reach the platform: %s", err)
	}
	{
		sctx, scancel := pla.Schema().Database().Context(ctx)
		defer scancel()
		ctx = sctx
	}

	server := BuildServer(pla, *loglevel)
	for _, r := range server.Routes() {
		server.Logger.Debugf("- mount handler: %s %s", strings.ToUpper(r.Method), r.Path)
	}

	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		addr := ":" + conf.ServerPort
		var err error
		if conf.TLS.Enabled() {
			err = server.StartTLS(addr, conf.TLS.CertPath, conf.TLS.KeyPath)
		} else {
			err = server.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			ch <- err
		}
	}()

	exit := 0
	select {
	case <-ctx.Done(): // wait
		if err := ctx.Err(); err != nil {
			server.Logger.Infof("context has been done: %s, cause: %s", err, context.Cause(ctx))
			exit = 1
		}
	case err := <-ch:
		if err != nil {
			server.Logger.Error("server stops with error:", err)
			exit = 1
		}
	}

	{
		server.Logger.Info("shutting down...")
		qctx, qcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer qcancel()

		if err := server.Shutdown(qctx); err != nil {
			server.Logger.Fatalf("Shutdown with error. %+v", err)
			os.Exit(1)
		}
		os.Exit(exit)
	}
}
