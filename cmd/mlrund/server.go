package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/quaark/mlrun-remote-project/cmd/mlrund/handlers"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform"
	"github.com/quaark/mlrun-remote-project/pkg/utils/echoutil"
)

var API_ROOT = "/api"

func api(subpath string) string {
	if !strings.HasSuffix(subpath, "/") {
		subpath += "/"
	}
	return fmt.Sprintf("%s/%s", API_ROOT, subpath)
}

func BuildServer(pla platform.Platform, loglevel string) *echo.Echo {

	e := echo.New()

	echoutil.SetLevel(e, loglevel)

	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}

	e.Pre(middleware.AddTrailingSlash())

	// logging for server-side latency.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			meth := c.Request().Method
			path := c.Request().URL
			BEGIN := time.Now()
			c.Logger().Infof(
				"< request @[%s] %s %s", BEGIN, meth, path,
			)

			var err error

			defer func() {
				END := time.Now()
				c.Logger().Infof(
					"> response @[%s] status = %d (for request @[%s] %s %s) in %v / error = %+v",
					END, c.Response().Status, BEGIN, meth, path, END.Sub(BEGIN), err,
				)
			}()

			err = next(c)
			return err
		}
	})

	{
		project := "project"
		e.GET(api("projects"), handlers.FindProjectHandler(pla.Project().Database()))
		e.POST(api("projects"), handlers.RegisterProjectHandler(
			pla.Project().Database(),
			pla.Function().Database(),
			pla.Workflow().Database(),
		))
		e.GET(api("projects/:project"), handlers.GetProjectHandler(
			pla.Project().Database(),
			pla.Function().Database(),
			pla.Workflow().Database(),
			project,
		))
		e.DELETE(api("projects/:project"), handlers.DeleteProjectHandler(
			pla.Project().Database(), project,
		))
		e.POST(api("projects/:project/source"), handlers.PostProjectSourceHandler(
			pla.Project().Database(), pla.Artifact().Store(), project,
		))
		e.GET(api("projects/:project/source"), handlers.GetProjectSourceHandler(
			pla.Artifact().Store(), project,
		))
	}

	{
		project, function := "project", "function"
		e.PUT(api("projects/:project/functions/:function"), handlers.PutFunctionHandler(
			pla.Function().Database(), project, function,
		))
		e.GET(api("projects/:project/functions"), handlers.FindFunctionHandler(
			pla.Function().Database(), project,
		))
		e.GET(api("projects/:project/functions/:function"), handlers.GetFunctionHandler(
			pla.Function().Database(), project, function,
		))
		e.DELETE(api("projects/:project/functions/:function"), handlers.DeleteFunctionHandler(
			pla.Function().Database(), project, function,
		))
	}

	{
		project, workflow := "project", "workflow"
		e.PUT(api("projects/:project/workflows/:workflow"), handlers.PutWorkflowHandler(
			pla.Workflow().Database(), project, workflow,
		))
		e.GET(api("projects/:project/workflows"), handlers.FindWorkflowHandler(
			pla.Workflow().Database(), project,
		))
		e.GET(api("projects/:project/workflows/:workflow"), handlers.GetWorkflowHandler(
			pla.Workflow().Database(), project, workflow,
		))
		e.DELETE(api("projects/:project/workflows/:workflow"), handlers.DeleteWorkflowHandler(
			pla.Workflow().Database(), project, workflow,
		))
		e.POST(api("projects/:project/workflows/:workflow/runs"), handlers.TriggerRunHandler(
			pla.Workflow().Database(), pla.Run().Database(), project, workflow,
		))
	}

	{
		runId := "runId"
		e.GET(api("runs"), handlers.FindRunHandler(pla.Run().Database()))
		e.GET(api("runs/:runId"), handlers.GetRunHandler(pla.Run().Database(), runId))
		e.PUT(api("runs/:runId/abort"), handlers.AbortRunHandler(pla.Run().Database(), runId))
		e.PUT(api("runs/:runId/tearoff"), handlers.TearoffRunHandler(pla.Run().Database(), runId))
		e.PUT(api("runs/:runId/retry"), handlers.RetryRunHandler(pla.Run().Database(), runId))
		e.DELETE(api("runs/:runId"), handlers.DeleteRunHandler(pla.Run().Database(), runId))
		e.GET(api("runs/:runId/log"), handlers.GetRunLogHandler(
			pla.Run().Database(), pla.Run().K8s(), runId,
		))
	}

	{
		// artifact keys contain slashes. mount them on a wildcard.
		key := "*"
		e.GET(api("artifacts"), handlers.FindArtifactHandler(pla.Artifact().Database()))
		e.POST(api("artifacts")+"*", handlers.PostArtifactHandler(
			pla.Artifact().Database(), pla.Artifact().Store(), pla.RunTokenKeys(), key,
		))
		e.GET(api("artifacts")+"*", handlers.GetArtifactHandler(
			pla.Artifact().Store(), pla.RunTokenKeys(), key,
		))
	}

	{
		endpoint := "endpoint"
		conf := pla.Config()
		e.GET(api("endpoints"), handlers.FindEndpointHandler(pla.Serving().Database()))
		e.GET(api("endpoints/:endpoint"), handlers.GetEndpointHandler(
			pla.Serving().Database(), endpoint,
		))
		e.PUT(api("endpoints/:endpoint/retire"), handlers.RetireEndpointHandler(
			pla.Serving().Database(), endpoint,
		))
		e.POST(api("endpoints/:endpoint/infer"), handlers.InferHandler(
			pla.Serving().Database(), conf.Namespace(), conf.Domain(), endpoint,
		))
	}

	return e
}
