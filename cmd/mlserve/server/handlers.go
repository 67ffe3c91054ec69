package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/quaark/mlrun-remote-project/cmd/mlserve/model"
	apierr "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/errors"
	apiserving "github.com/quaark/mlrun-remote-project/pkg/api/types/serving"
)

// Ready answers the kubelet readiness probe.
//
// The model is loaded before the server opens its port,
// so being reachable is being ready.
func Ready() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"ready": true})
	}
}

type ModelMeta struct {
	Name     string    `json:"name"`
	Features int       `json:"features"`
	Classes  []float64 `json:"classes"`
}

// ModelMetadata describes the model hosted here.
//
// Only the model named `name` is known; asking for anything else is 404.
func ModelMetadata(m *model.Logistic, name string, paramName string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Param(paramName) != name {
			return apierr.NotFound()
		}
		return c.JSON(http.StatusOK, ModelMeta{
			Name:     name,
			Features: m.Arity(),
			Classes:  m.Classes,
		})
	}
}

// Infer scores each input sample and answers one output per sample, in order.
func Infer(m *model.Logistic, name string, paramName string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Param(paramName) != name {
			return apierr.NotFound()
		}

		req := apiserving.InferRequest{}
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest(
				`the request body should be a json like {"inputs": [[1.0, 2.0, ...], ...]}`,
				err,
			)
		}

		outputs := make([]float64, 0, len(req.Inputs))
		for i, x := range req.Inputs {
			y, err := m.Predict(x)
			if err != nil {
				return apierr.BadRequest(
					fmt.Sprintf("inputs[%d]: %s", i, err.Error()),
					err,
				)
			}
			outputs = append(outputs, y)
		}

		return c.JSON(http.StatusOK, apiserving.InferResponse{
			Id:        uuid.NewString(),
			ModelName: name,
			Outputs:   outputs,
		})
	}
}
