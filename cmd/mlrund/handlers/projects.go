package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	binderr "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/errors"
	bindproject "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/projects"
	apiprojects "github.com/quaark/mlrun-remote-project/pkg/api/types/projects"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kstore "github.com/quaark/mlrun-remote-project/pkg/domain/artifact/store"
	kerr "github.com/quaark/mlrun-remote-project/pkg/domain/errors"
	kdbfunction "github.com/quaark/mlrun-remote-project/pkg/domain/function/db"
	kdbproject "github.com/quaark/mlrun-remote-project/pkg/domain/project/db"
	kdbworkflow "github.com/quaark/mlrun-remote-project/pkg/domain/workflow/db"
	kstrings "github.com/quaark/mlrun-remote-project/pkg/utils/strings"
)

func RegisterProjectHandler(
	dbProject kdbproject.Interface,
	dbFunction kdbfunction.Interface,
	dbWorkflow kdbworkflow.Interface,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		if strings.ToLower(req.Header.Get("content-type")) != "application/json" {
			return binderr.BadRequest(
				"unexpected content type. it should be application/json", nil,
			)
		}

		spec := new(apiprojects.Spec)
		if err := json.NewDecoder(req.Body).Decode(spec); err != nil {
			return binderr.BadRequest("can not understand the requested json", err)
		}
		if spec.Name == "" {
			return binderr.BadRequest(`"name" is required`, nil)
		}

		project, err := dbProject.Register(ctx, spec.Name, spec.Source)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		detail, err := composeProjectDetail(ctx, dbFunction, dbWorkflow, project)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		c.Response().Header().Add("Content-Type", "application/json")
		return c.JSON(http.StatusOK, detail)
	}
}

func FindProjectHandler(dbProject kdbproject.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		names := kstrings.SplitIfNotEmpty(c.QueryParam("name"), ",")
		if len(names) == 0 {
			found, err := dbProject.Find(ctx)
			if err != nil {
				return binderr.InternalServerError(err)
			}
			names = found
		}

		projects, err := dbProject.Get(ctx, names)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		resp := make([]apiprojects.Summary, 0, len(projects))
		for _, name := range names {
			p, ok := projects[name]
			if !ok {
				continue
			}
			resp = append(resp, bindproject.ComposeSummary(p))
		}

		return c.JSON(http.StatusOK, resp)
	}
}

func GetProjectHandler(
	dbProject kdbproject.Interface,
	dbFunction kdbfunction.Interface,
	dbWorkflow kdbworkflow.Interface,
	paramProject string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()
		name := c.Param(paramProject)

		projects, err := dbProject.Get(ctx, []string{name})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		project, ok := projects[name]
		if !ok {
			return binderr.NotFound()
		}

		detail, err := composeProjectDetail(ctx, dbFunction, dbWorkflow, project)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, detail)
	}
}

func DeleteProjectHandler(dbProject kdbproject.Interface, paramProject string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()
		name := c.Param(paramProject)

		if err := dbProject.Delete(ctx, name); err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return binderr.NotFound()
			}
			if errors.Is(err, domain.ErrProjectActive) {
				return binderr.Conflict(
					"the project is in use",
					binderr.WithError(err),
					binderr.WithAdvice("Stop its runs and remove its endpoints first"),
				)
			}
			return binderr.InternalServerError(err)
		}

		c.Response().WriteHeader(http.StatusNoContent)
		return nil
	}
}

// PostProjectSourceHandler stores the request body as the source archive
// of the project.
//
// Unlike artifacts, the source archive is pushed from outside the cluster
// (`mlrun project push --with-source`), so the route takes no run token.
func PostProjectSourceHandler(
	dbProject kdbproject.Interface,
	store kstore.Interface,
	paramProject string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		name := c.Param(paramProject)

		projects, err := dbProject.Get(ctx, []string{name})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		if _, ok := projects[name]; !ok {
			return binderr.NotFound()
		}

		if req.Body == nil {
			return binderr.BadRequest("source archive is required in Body", nil)
		}

		key := domain.ProjectSourceKey(name)
		size, err := store.Put(ctx, key, req.Body, req.ContentLength)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		c.Response().Header().Add("Content-Type", "application/json")
		return c.JSON(http.StatusOK, apiprojects.SourceSummary{
			Project: name, Key: key, Size: size,
		})
	}
}

// GetProjectSourceHandler streams the source archive of the project back.
func GetProjectSourceHandler(
	store kstore.Interface,
	paramProject string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		name := c.Param(paramProject)

		content, size, err := store.Get(ctx, domain.ProjectSourceKey(name))
		if err != nil {
			if errors.Is(err, kstore.ErrNotExist) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}
		defer content.Close()

		c.Response().Header().Set("Content-Length", strconv.FormatInt(size, 10))
		return c.Stream(http.StatusOK, "application/tar+gzip", content)
	}
}

// composeProjectDetail collects the functions and workflows of the project
// for its wire expression.
func composeProjectDetail(
	ctx context.Context,
	dbFunction kdbfunction.Interface,
	dbWorkflow kdbworkflow.Interface,
	project domain.Project,
) (apiprojects.Detail, error) {
	functions, err := dbFunction.Find(ctx, domain.FunctionFindQuery{
		ProjectName: []string{project.Name},
	})
	if err != nil {
		return apiprojects.Detail{}, err
	}

	workflowNames, err := dbWorkflow.Find(ctx, project.Name)
	if err != nil {
		return apiprojects.Detail{}, err
	}
	wfs, err := dbWorkflow.Get(ctx, project.Name, workflowNames)
	if err != nil {
		return apiprojects.Detail{}, err
	}
	workflows := make([]domain.Workflow, 0, len(wfs))
	for _, name := range workflowNames {
		w, ok := wfs[name]
		if !ok {
			continue
		}
		workflows = append(workflows, w)
	}

	return bindproject.ComposeDetail(project, functions, workflows), nil
}
