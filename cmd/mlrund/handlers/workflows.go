package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	binderr "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/errors"
	bindworkflow "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/workflows"
	apiworkflows "github.com/quaark/mlrun-remote-project/pkg/api/types/workflows"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kerr "github.com/quaark/mlrun-remote-project/pkg/domain/errors"
	kdbworkflow "github.com/quaark/mlrun-remote-project/pkg/domain/workflow/db"
	"github.com/quaark/mlrun-remote-project/pkg/utils"
)

func PutWorkflowHandler(
	dbWorkflow kdbworkflow.Interface,
	paramProject string, paramWorkflow string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		projectName := c.Param(paramProject)
		name := c.Param(paramWorkflow)

		if strings.ToLower(req.Header.Get("content-type")) != "application/json" {
			return binderr.BadRequest(
				"unexpected content type. it should be application/json", nil,
			)
		}

		spec := new(apiworkflows.Spec)
		if err := json.NewDecoder(req.Body).Decode(spec); err != nil {
			return binderr.BadRequest("can not understand the requested json", err)
		}
		if spec.Name != "" && spec.Name != name {
			return binderr.BadRequest(
				`"name" in the spec does not agree with the path`, nil,
			)
		}

		workflow, err := dbWorkflow.Upsert(ctx, domain.Workflow{
			ProjectName: projectName,
			Name:        name,
			Steps: utils.Map(spec.Steps, func(s apiworkflows.Step) domain.WorkflowStep {
				return domain.WorkflowStep{
					Name:         s.Name,
					FunctionName: s.Function,
					Handler:      s.Handler,
					Params:       s.Params,
					Needs:        s.Needs,
					Models:       s.Models,
				}
			}),
		})
		if err != nil {
			if errors.Is(err, domain.ErrBadWorkflow) {
				return binderr.BadRequest(err.Error(), err)
			}
			if errors.Is(err, kerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		c.Response().Header().Add("Content-Type", "application/json")
		return c.JSON(http.StatusOK, bindworkflow.ComposeDetail(workflow))
	}
}

func FindWorkflowHandler(dbWorkflow kdbworkflow.Interface, paramProject string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()
		projectName := c.Param(paramProject)

		names, err := dbWorkflow.Find(ctx, projectName)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		workflows, err := dbWorkflow.Get(ctx, projectName, names)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		resp := make([]apiworkflows.Detail, 0, len(workflows))
		for _, name := range names {
			w, ok := workflows[name]
			if !ok {
				continue
			}
			resp = append(resp, bindworkflow.ComposeDetail(w))
		}

		return c.JSON(http.StatusOK, resp)
	}
}

func GetWorkflowHandler(
	dbWorkflow kdbworkflow.Interface,
	paramProject string, paramWorkflow string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()
		projectName := c.Param(paramProject)
		name := c.Param(paramWorkflow)

		workflows, err := dbWorkflow.Get(ctx, projectName, []string{name})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		workflow, ok := workflows[name]
		if !ok {
			return binderr.NotFound()
		}

		return c.JSON(http.StatusOK, bindworkflow.ComposeDetail(workflow))
	}
}

func DeleteWorkflowHandler(
	dbWorkflow kdbworkflow.Interface,
	paramProject string, paramWorkflow string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		if err := dbWorkflow.Delete(ctx, c.Param(paramProject), c.Param(paramWorkflow)); err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		c.Response().WriteHeader(http.StatusNoContent)
		return nil
	}
}
