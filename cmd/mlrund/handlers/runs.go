package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	binderr "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/errors"
	bindrun "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/runs"
	apiruns "github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kerr "github.com/quaark/mlrun-remote-project/pkg/domain/errors"
	k8serrors "github.com/quaark/mlrun-remote-project/pkg/domain/errors/k8serrors"
	kdbrun "github.com/quaark/mlrun-remote-project/pkg/domain/run/db"
	k8srun "github.com/quaark/mlrun-remote-project/pkg/domain/run/k8s"
	kdbworkflow "github.com/quaark/mlrun-remote-project/pkg/domain/workflow/db"
	"github.com/quaark/mlrun-remote-project/pkg/utils/rfctime"
	kstrings "github.com/quaark/mlrun-remote-project/pkg/utils/strings"
)

func TriggerRunHandler(
	dbWorkflow kdbworkflow.Interface,
	dbRun kdbrun.Interface,
	paramProject string, paramWorkflow string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		projectName := c.Param(paramProject)
		workflowName := c.Param(paramWorkflow)

		trigger := apiruns.Trigger{}
		if req.ContentLength != 0 {
			if strings.ToLower(req.Header.Get("content-type")) != "application/json" {
				return binderr.BadRequest(
					"unexpected content type. it should be application/json", nil,
				)
			}
			if err := json.NewDecoder(req.Body).Decode(&trigger); err != nil {
				return binderr.BadRequest("can not understand the requested json", err)
			}
		}

		workflows, err := dbWorkflow.Get(ctx, projectName, []string{workflowName})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		workflow, ok := workflows[workflowName]
		if !ok {
			return binderr.NotFound()
		}

		// "step.key" scopes the override to the named step.
		// Keys without a known step prefix apply to every step.
		stepNames := map[string]bool{}
		for _, s := range workflow.Steps {
			stepNames[s.Name] = true
		}
		params := map[string]map[string]string{}
		assign := func(step, key, value string) {
			if params[step] == nil {
				params[step] = map[string]string{}
			}
			params[step][key] = value
		}
		for key, value := range trigger.Params {
			if step, rest, found := strings.Cut(key, "."); found && stepNames[step] {
				assign(step, rest, value)
				continue
			}
			for name := range stepNames {
				assign(name, key, value)
			}
		}

		runId, err := dbRun.NewPipeline(ctx, projectName, workflowName, params)
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		pipeline, err := dbRun.GetPipeline(ctx, runId)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		c.Response().Header().Add("Content-Type", "application/json")
		return c.JSON(http.StatusCreated, bindrun.ComposeDetail(pipeline))
	}
}

func FindRunHandler(dbRun kdbrun.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		query, err := func(c echo.Context) (domain.RunFindQuery, error) {
			result := domain.RunFindQuery{
				ProjectName:  kstrings.SplitIfNotEmpty(c.QueryParam("project"), ","),
				WorkflowName: kstrings.SplitIfNotEmpty(c.QueryParam("workflow"), ","),
				Status:       []domain.RunStatus{},
				Scope:        domain.ScopePipeline,
			}

			for _, p := range kstrings.SplitIfNotEmpty(c.QueryParam("status"), ",") {
				s, err := domain.AsRunStatus(p)
				if err != nil || s == domain.Invalidated {
					return domain.RunFindQuery{}, binderr.BadRequest(
						`"status" should be one of "waiting", "ready", "starting", "running", "completing", "aborting", "done" or "failed"`,
						nil,
					)
				}
				result.Status = append(result.Status, s)
			}

			since := c.QueryParam("since")
			if since != "" {
				t, err := rfctime.ParseRFC3339DateTime(since)
				if err != nil {
					return domain.RunFindQuery{}, binderr.BadRequest(
						`"since" should be a RFC3339 date-time format`,
						err,
					)
				}
				_t := t.Time()
				result.UpdatedSince = &_t
			}

			duration := c.QueryParam("duration")
			if duration != "" {
				if result.UpdatedSince == nil {
					return domain.RunFindQuery{}, binderr.BadRequest(
						`"duration" requires "since"`,
						nil,
					)
				}
				d, err := time.ParseDuration(duration)
				if err != nil {
					return domain.RunFindQuery{}, binderr.BadRequest(
						`"duration" should be a Go duration format`,
						err,
					)
				}
				_t := result.UpdatedSince.Add(d)
				result.UpdatedUntil = &_t
			}

			return result, nil
		}(c)

		if err != nil {
			return err
		}
		ctx := c.Request().Context()

		runIds, err := dbRun.Find(ctx, query)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		result, err := dbRun.Get(ctx, runIds)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		resp := make([]apiruns.Summary, 0, len(result))
		for _, r := range runIds {
			run, ok := result[r]
			if !ok {
				continue
			}
			resp = append(resp, bindrun.ComposeSummary(run.RunBody))
		}

		return c.JSON(http.StatusOK, resp)
	}
}

func GetRunHandler(dbRun kdbrun.Interface, paramRunId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		runId := c.Param(paramRunId)
		ctx := c.Request().Context()

		pipeline, err := dbRun.GetPipeline(ctx, runId)
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindrun.ComposeDetail(pipeline))
	}
}

func AbortRunHandler(dbRun kdbrun.Interface, paramRunId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		runId := c.Param(paramRunId)
		ctx := c.Request().Context()

		runs, err := dbRun.Get(ctx, []string{runId})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		run, ok := runs[runId]
		if !ok {
			return binderr.NotFound()
		}
		if run.Scope() != domain.ScopePipeline {
			return binderr.Conflict(
				"not a pipeline run",
				binderr.WithAdvice("Abort the pipeline run which owns this step"),
			)
		}

		if err := dbRun.SetStatus(ctx, runId, domain.Aborting); err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return binderr.NotFound()
			} else if errors.Is(err, domain.ErrInvalidRunStateChanging) {
				return binderr.Conflict("prohibited operation", binderr.WithError(err))
			}
			return binderr.InternalServerError(err)
		}

		if err := dbRun.SetExit(ctx, runId, domain.RunExit{
			Code:    253,
			Message: "aborted by user",
		}); err != nil {
			return binderr.InternalServerError(err)
		}

		pipeline, err := dbRun.GetPipeline(ctx, runId)
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindrun.ComposeDetail(pipeline))
	}
}

func TearoffRunHandler(dbRun kdbrun.Interface, paramRunId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		runId := c.Param(paramRunId)
		ctx := c.Request().Context()

		runs, err := dbRun.Get(ctx, []string{runId})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		run, ok := runs[runId]
		if !ok {
			return binderr.NotFound()
		}
		if run.Scope() != domain.ScopePipeline {
			return binderr.Conflict(
				"not a pipeline run",
				binderr.WithAdvice("Stop the pipeline run which owns this step"),
			)
		}

		if err := dbRun.SetStatus(ctx, runId, domain.Completing); err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return binderr.NotFound()
			} else if errors.Is(err, domain.ErrInvalidRunStateChanging) {
				return binderr.Conflict("prohibited operation", binderr.WithError(err))
			}
			return binderr.InternalServerError(err)
		}

		if err := dbRun.SetExit(ctx, runId, domain.RunExit{
			Code:    0,
			Message: "stopped by user",
		}); err != nil {
			return binderr.InternalServerError(err)
		}

		pipeline, err := dbRun.GetPipeline(ctx, runId)
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindrun.ComposeDetail(pipeline))
	}
}

func RetryRunHandler(dbRun kdbrun.Interface, paramRunId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		runId := c.Param(paramRunId)

		err := dbRun.Retry(ctx, runId)
		if errors.Is(err, kerr.ErrMissing) {
			return binderr.NotFound()
		}
		if errors.Is(err, domain.ErrInvalidRunStateChanging) {
			return binderr.Conflict(
				"the run has not finished yet",
				binderr.WithError(err),
				binderr.WithAdvice("Wait for the run to finish, or abort it"),
			)
		}
		if errors.Is(err, domain.ErrRunIsProtected) {
			message := "prohibited operation"
			options := []binderr.ErrorMessageOption{binderr.WithError(err)}
			if errors.Is(err, domain.ErrWorkerActive) {
				message = "the run may not be finished"
				options = append(
					options,
					binderr.WithAdvice("Wait for the run to finish, or abort it"),
				)
			} else {
				options = append(
					options,
					binderr.WithAdvice("Retry pipeline runs only, after their endpoints are retired"),
				)
			}

			return binderr.Conflict(message, options...)
		}
		if err != nil {
			return binderr.InternalServerError(err)
		}

		return nil
	}
}

func DeleteRunHandler(dbRun kdbrun.Interface, paramRunId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		runId := c.Param(paramRunId)

		if err := dbRun.Delete(ctx, runId); err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return binderr.NotFound()
			} else if errors.Is(err, domain.ErrInvalidRunStateChanging) {
				return binderr.Conflict(
					"the run has not stopped yet",
					binderr.WithError(err),
					binderr.WithAdvice("Wait for the run to finish, or abort it"),
				)
			} else if errors.Is(err, domain.ErrWorkerActive) {
				return binderr.Conflict(
					"the run may not be finished",
					binderr.WithError(err),
					binderr.WithAdvice("Wait for the run to finish, or abort it"),
				)
			} else if errors.Is(err, domain.ErrRunIsProtected) {
				return binderr.Conflict(
					"prohibited operation",
					binderr.WithError(err),
					binderr.WithAdvice("Delete pipeline runs only, after their endpoints are retired"),
				)
			}
			return binderr.InternalServerError(err)
		}

		c.Response().WriteHeader(http.StatusNoContent)
		return nil
	}
}

func GetRunLogHandler(
	dbRun kdbrun.Interface,
	k8sRun k8srun.Interface,
	paramRunId string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		runId := c.Param(paramRunId)

		var run domain.Run
		if rs, err := dbRun.Get(ctx, []string{runId}); err != nil {
			return binderr.InternalServerError(err)
		} else if r, ok := rs[runId]; !ok || r.Status == domain.Invalidated {
			return binderr.NotFound()
		} else {
			run = r
		}

		// pipeline runs have no worker of their own, so no log either.
		if run.Function == nil {
			return binderr.NotFound()
		}

		switch run.Status {
		case domain.Waiting, domain.Ready:
			// = before create container.
			return binderr.ServiceUnavailable("please retry later.", nil)
		}

		worker, err := k8sRun.FindWorker(ctx, run.RunBody)
		if err != nil {
			if k8serrors.AsMissingError(err) {
				// the worker is not on the cluster (not spawned yet, or swept).
				return binderr.ServiceUnavailable("please retry later.", err)
			}
			return binderr.InternalServerError(err)
		}

		stream, err := worker.Log(ctx)
		if err != nil {
			return binderr.InternalServerError(err)
		}
		defer stream.Close()

		var body io.Reader = stream
		if c.QueryParams().Has("follow") {
			body = &lineReader{
				r: stream,
				callback: func() {
					c.Response().Flush()
				},
			}
		}

		return c.Stream(http.StatusOK, "text/plain", body)
	}
}

type lineReader struct {
	r        io.Reader
	callback func()
}

func (lr *lineReader) Read(p []byte) (n int, err error) {
	n, err = lr.r.Read(p)
	if n > 0 {
		if bytes.Contains(p[:n], []byte{'\n'}) {
			lr.callback()
		}
	}
	return
}
