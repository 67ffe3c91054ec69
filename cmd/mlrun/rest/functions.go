package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/quaark/mlrun-remote-project/pkg/api/types/functions"
	"github.com/quaark/mlrun-remote-project/pkg/utils/slices"
)

func (c *client) PutFunction(ctx context.Context, project string, spec functions.Spec) (functions.Detail, error) {
	b, err := json.Marshal(spec)
	if err != nil {
		return functions.Detail{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut,
		c.apipath("projects", project, "functions", spec.Name),
		bytes.NewReader(b),
	)
	if err != nil {
		return functions.Detail{}, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return functions.Detail{}, err
	}
	defer resp.Body.Close()

	var detail functions.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: "invalid request",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return functions.Detail{}, err
	}
	return detail, nil
}

func (c *client) FindFunction(ctx context.Context, project string, kinds []functions.Kind) ([]functions.Detail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("projects", project, "functions"), nil,
	)
	if err != nil {
		return nil, err
	}

	if 0 < len(kinds) {
		q := req.URL.Query()
		q.Add("kind", strings.Join(
			slices.Map(kinds, functions.Kind.String), ",",
		))
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	found := make([]functions.Detail, 0, 5)
	if err := unmarshalJsonResponse(
		resp, &found,
		MessageFor{
			Status4xx: fmt.Sprintf("[BUG] client is not compatible with the server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}

	return found, nil
}

func (c *client) GetFunction(ctx context.Context, project string, name string) (functions.Detail, error) {
	resp, err := c.httpclient.Get(c.apipath("projects", project, "functions", name))
	if err != nil {
		return functions.Detail{}, err
	}
	defer resp.Body.Close()

	var detail functions.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: fmt.Sprintf("function:%v is not found in project:%v", name, project),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return functions.Detail{}, err
	}
	return detail, nil
}

func (c *client) DeleteFunction(ctx context.Context, project string, name string) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodDelete,
		c.apipath("projects", project, "functions", name), nil,
	)
	if err != nil {
		return err
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := unmarshalResponseDiscardingPayload(
		resp,
		MessageFor{
			Status4xx: fmt.Sprintf("function:%v cannot be deleted", name),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return err
	}

	return nil
}
