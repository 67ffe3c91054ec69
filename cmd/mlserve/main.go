//go:generate go run github.com/Songmu/gocredits/cmd/gocredits@v0.3.0 -w
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/quaark/mlrun-remote-project/cmd/mlserve/model"
	"github.com/quaark/mlrun-remote-project/cmd/mlserve/server"
	"github.com/quaark/mlrun-remote-project/pkg/utils/retry"
	"github.com/quaark/mlrun-remote-project/pkg/utils/try"
)

//go:embed CREDITS
var CREDITS string

func main() {
	pmodelURL := flag.String("model-url", "", "URL of the model artifact to be hosted")
	pmodelName := flag.String("model-name", "", "name the model answers to")
	pport := flag.Int("port", 8501, "port number where mlserve serves on")
	pdeadline := flag.Int("deadline", 180, "deadline duration (in seconds) to load the model and to receive first request")
	plic := flag.Bool("license", false, "show licenses of dependencies")
	flag.Parse()

	if *plic {
		fmt.Println(CREDITS)
		return
	}

	logger := log.Default()

	if *pmodelURL == "" {
		logger.Fatal("flag -model-url is required")
	}
	if *pmodelName == "" {
		logger.Fatal("flag -model-name is required")
	}
	port := *pport
	deadline := time.Second * time.Duration(*pdeadline)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// the artifact route wants the run token of this serving run.
	token := os.Getenv("MLRUN_RUN_TOKEN")

	// load the model before opening the port. until then,
	// readiness probes are refused, and the endpoint stays hidden.
	m := func() *model.Logistic {
		lctx, lcancel := context.WithTimeout(ctx, deadline)
		defer lcancel()
		return try.To(retry.Blocking[*model.Logistic](
			lctx, retry.StaticBackoff(3*time.Second),
			func() (*model.Logistic, error) {
				m, err := model.Fetch(lctx, *pmodelURL, token)
				if err != nil {
					logger.Printf("model is not available yet: %+v", err)
					return nil, retry.ErrRetry
				}
				return m, nil
			},
		)).OrFatal(logger)
	}()
	logger.Printf("model %q loaded: %d features", *pmodelName, m.Arity())

	s := server.Start(
		ctx,
		server.OnPort(port),
		[]server.Endpoint{
			{Method: http.MethodGet, Path: "/ready", Handler: server.Ready()},
			{Method: http.MethodGet, Path: "/v2/models/:name", Handler: server.ModelMetadata(m, *pmodelName, "name")},
			{Method: http.MethodPost, Path: "/v2/models/:name/infer", Handler: server.Infer(m, *pmodelName, "name")},
		},
		server.WithDeadline(deadline),
	)
	logger.Printf(
		"starting mlserve server on port %d, hosting model %q from %s. deadline = %s.",
		port, *pmodelName, *pmodelURL, deadline,
	)

	select {
	case <-ctx.Done():
		logger.Println("server stops by interrupt signal")
	case err := <-s.ServerStop:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server stops by error:\n%+v", err)
		} else {
			logger.Println("server stops...")
		}
		return
	}
	logger.Println("bye")
}
