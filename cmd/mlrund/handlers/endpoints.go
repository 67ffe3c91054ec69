package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	binderr "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/errors"
	bindserving "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/serving"
	apiserving "github.com/quaark/mlrun-remote-project/pkg/api/types/serving"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kerr "github.com/quaark/mlrun-remote-project/pkg/domain/errors"
	kdbserving "github.com/quaark/mlrun-remote-project/pkg/domain/serving/db"
	"github.com/quaark/mlrun-remote-project/pkg/utils/echoutil"
	kstrings "github.com/quaark/mlrun-remote-project/pkg/utils/strings"
)

func FindEndpointHandler(dbServing kdbserving.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		query := domain.EndpointFindQuery{
			ProjectName: kstrings.SplitIfNotEmpty(c.QueryParam("project"), ","),
			ModelName:   kstrings.SplitIfNotEmpty(c.QueryParam("model"), ","),
		}
		for _, s := range kstrings.SplitIfNotEmpty(c.QueryParam("status"), ",") {
			status, err := domain.AsEndpointStatus(s)
			if err != nil {
				return binderr.BadRequest(
					`"status" should be one of "deploying", "ready" or "retired"`, err,
				)
			}
			query.Status = append(query.Status, status)
		}

		names, err := dbServing.Find(ctx, query)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		endpoints, err := dbServing.Get(ctx, names)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		resp := make([]apiserving.Detail, 0, len(endpoints))
		for _, name := range names {
			ep, ok := endpoints[name]
			if !ok {
				continue
			}
			resp = append(resp, bindserving.ComposeDetail(ep))
		}

		return c.JSON(http.StatusOK, resp)
	}
}

func GetEndpointHandler(dbServing kdbserving.Interface, paramName string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()
		name := c.Param(paramName)

		endpoints, err := dbServing.Get(ctx, []string{name})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		ep, ok := endpoints[name]
		if !ok {
			return binderr.NotFound()
		}

		return c.JSON(http.StatusOK, bindserving.ComposeDetail(ep))
	}
}

// RetireEndpointHandler takes the endpoint out of service.
//
// The record stays as retired until the gc loop shuts the model server
// down and deletes it. Retiring a retired endpoint is a no-op.
func RetireEndpointHandler(dbServing kdbserving.Interface, paramName string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()
		name := c.Param(paramName)

		ep, err := dbServing.SetStatus(ctx, name, domain.Retired)
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindserving.ComposeDetail(ep))
	}
}

// InferHandler relays the inference payload to the in-cluster model server
// backing the endpoint, and the model server's response back to the caller.
//
// The target URL is built from the endpoint record, so the handler works
// wherever the cluster DNS resolves `<service>.<namespace>.svc.<domain>`.
func InferHandler(
	dbServing kdbserving.Interface,
	namespace string, clusterDomain string,
	paramName string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		name := c.Param(paramName)

		endpoints, err := dbServing.Get(ctx, []string{name})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		ep, ok := endpoints[name]
		if !ok {
			return binderr.NotFound()
		}
		if ep.Status != domain.EndpointReady {
			return binderr.ServiceUnavailable(
				fmt.Sprintf(`endpoint "%s" is %s. retry when it gets ready`, name, ep.Status),
				nil,
			)
		}

		url := fmt.Sprintf(
			"http://%s.%s.svc.%s:%d/v2/models/%s/infer",
			ep.Service, namespace, clusterDomain, ep.Port, ep.ModelName,
		)
		return echoutil.Proxy(&c, url)
	}
}
