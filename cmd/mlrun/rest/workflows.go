package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/workflows"
)

func (c *client) PutWorkflow(ctx context.Context, project string, spec workflows.Spec) (workflows.Detail, error) {
	b, err := json.Marshal(spec)
	if err != nil {
		return workflows.Detail{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut,
		c.apipath("projects", project, "workflows", spec.Name),
		bytes.NewReader(b),
	)
	if err != nil {
		return workflows.Detail{}, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return workflows.Detail{}, err
	}
	defer resp.Body.Close()

	var detail workflows.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: "invalid request",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return workflows.Detail{}, err
	}
	return detail, nil
}

func (c *client) FindWorkflow(ctx context.Context, project string) ([]workflows.Detail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("projects", project, "workflows"), nil,
	)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	found := make([]workflows.Detail, 0, 5)
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

func (c *client) GetWorkflow(ctx context.Context, project string, name string) (workflows.Detail, error) {
	resp, err := c.httpclient.Get(c.apipath("projects", project, "workflows", name))
	if err != nil {
		return workflows.Detail{}, err
	}
	defer resp.Body.Close()

	var detail workflows.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: fmt.Sprintf("workflow:%v is not found in project:%v", name, project),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return workflows.Detail{}, err
	}
	return detail, nil
}

func (c *client) DeleteWorkflow(ctx context.Context, project string, name string) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodDelete,
		c.apipath("projects", project, "workflows", name), nil,
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
			Status4xx: fmt.Sprintf("workflow:%v cannot be deleted", name),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return err
	}

	return nil
}

func (c *client) TriggerRun(ctx context.Context, project string, workflow string, trigger runs.Trigger) (runs.Detail, error) {
	b, err := json.Marshal(trigger)
	if err != nil {
		return runs.Detail{}, err
	}

	resp, err := c.httpclient.Post(
		c.apipath("projects", project, "workflows", workflow, "runs"),
		"application/json", bytes.NewBuffer(b),
	)
	if err != nil {
		return runs.Detail{}, err
	}
	defer resp.Body.Close()

	var detail runs.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: fmt.Sprintf("workflow:%v cannot be triggered", workflow),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return runs.Detail{}, err
	}
	return detail, nil
}
