package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	binderr "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/errors"
	bindfunction "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/functions"
	apifunctions "github.com/quaark/mlrun-remote-project/pkg/api/types/functions"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kerr "github.com/quaark/mlrun-remote-project/pkg/domain/errors"
	kdbfunction "github.com/quaark/mlrun-remote-project/pkg/domain/function/db"
	"github.com/quaark/mlrun-remote-project/pkg/utils"
	kstrings "github.com/quaark/mlrun-remote-project/pkg/utils/strings"
	"k8s.io/apimachinery/pkg/api/resource"
)

func PutFunctionHandler(
	dbFunction kdbfunction.Interface,
	paramProject string, paramFunction string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		projectName := c.Param(paramProject)
		name := c.Param(paramFunction)

		if strings.ToLower(req.Header.Get("content-type")) != "application/json" {
			return binderr.BadRequest(
				"unexpected content type. it should be application/json", nil,
			)
		}

		spec := new(apifunctions.Spec)
		if err := json.NewDecoder(req.Body).Decode(spec); err != nil {
			return binderr.BadRequest("can not understand the requested json", err)
		}
		if spec.Name != "" && spec.Name != name {
			return binderr.BadRequest(
				`"name" in the spec does not agree with the path`, nil,
			)
		}

		kind, err := domain.AsFunctionKind(string(spec.Kind))
		if err != nil {
			return binderr.BadRequest(
				`"kind" should be "job" or "serving"`, err,
			)
		}

		var image *domain.ImageIdentifier
		if spec.Image != nil {
			image = &domain.ImageIdentifier{
				Image:   spec.Image.Repository,
				Version: spec.Image.Tag,
			}
		}

		function, err := dbFunction.Upsert(ctx, domain.FunctionBody{
			ProjectName: projectName,
			Name:        name,
			Kind:        kind,
			Image:       image,
			Handler:     spec.Handler,
			Source:      spec.Source,
			Resources:   map[string]resource.Quantity(spec.Requirements),
		})
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		c.Response().Header().Add("Content-Type", "application/json")
		return c.JSON(http.StatusOK, bindfunction.ComposeDetail(function))
	}
}

func FindFunctionHandler(dbFunction kdbfunction.Interface, paramProject string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		query := domain.FunctionFindQuery{
			ProjectName: []string{c.Param(paramProject)},
		}
		for _, k := range kstrings.SplitIfNotEmpty(c.QueryParam("kind"), ",") {
			kind, err := domain.AsFunctionKind(k)
			if err != nil {
				return binderr.BadRequest(
					`"kind" should be "job" or "serving"`, err,
				)
			}
			query.Kind = append(query.Kind, kind)
		}

		functions, err := dbFunction.Find(ctx, query)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, utils.Map(functions, bindfunction.ComposeDetail))
	}
}

func GetFunctionHandler(
	dbFunction kdbfunction.Interface,
	paramProject string, paramFunction string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()
		projectName := c.Param(paramProject)
		name := c.Param(paramFunction)

		functions, err := dbFunction.Get(ctx, projectName, []string{name})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		function, ok := functions[name]
		if !ok {
			return binderr.NotFound()
		}

		return c.JSON(http.StatusOK, bindfunction.ComposeDetail(function))
	}
}

func DeleteFunctionHandler(
	dbFunction kdbfunction.Interface,
	paramProject string, paramFunction string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		if err := dbFunction.Delete(ctx, c.Param(paramProject), c.Param(paramFunction)); err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		c.Response().WriteHeader(http.StatusNoContent)
		return nil
	}
}
