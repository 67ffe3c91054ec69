package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/quaark/mlrun-remote-project/pkg/api/types/projects"
)

func (c *client) RegisterProject(ctx context.Context, spec projects.Spec) (projects.Detail, error) {
	b, err := json.Marshal(spec)
	if err != nil {
		return projects.Detail{}, err
	}

	resp, err := c.httpclient.Post(c.apipath("projects"), "application/json", bytes.NewBuffer(b))
	if err != nil {
		return projects.Detail{}, err
	}
	defer resp.Body.Close()

	var detail projects.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: "invalid request",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return projects.Detail{}, err
	}
	return detail, nil
}

func (c *client) FindProject(ctx context.Context, names []string) ([]projects.Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("projects"), nil)
	if err != nil {
		return nil, err
	}

	if 0 < len(names) {
		q := req.URL.Query()
		q.Add("name", strings.Join(names, ","))
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	found := make([]projects.Summary, 0, 5)
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

func (c *client) GetProject(ctx context.Context, name string) (projects.Detail, error) {
	resp, err := c.httpclient.Get(c.apipath("projects", name))
	if err != nil {
		return projects.Detail{}, err
	}
	defer resp.Body.Close()

	var detail projects.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: fmt.Sprintf("project:%v is not found", name),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return projects.Detail{}, err
	}
	return detail, nil
}

func (c *client) DeleteProject(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodDelete, c.apipath("projects", name), nil,
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
			Status4xx: fmt.Sprintf("project:%v cannot be deleted", name),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return err
	}

	return nil
}

func (c *client) PostProjectSource(ctx context.Context, name string, source io.Reader) (projects.SourceSummary, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("projects", name, "source"), source,
	)
	if err != nil {
		return projects.SourceSummary{}, err
	}
	req.Header.Add("Content-Type", "application/tar+gzip")

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return projects.SourceSummary{}, err
	}
	defer resp.Body.Close()

	var summary projects.SourceSummary
	if err := unmarshalJsonResponse(
		resp, &summary,
		MessageFor{
			Status4xx: fmt.Sprintf("sending source is rejected by server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return projects.SourceSummary{}, err
	}
	return summary, nil
}

func (c *client) GetProjectSource(ctx context.Context, name string, handler func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("projects", name, "source"), nil,
	)
	if err != nil {
		return err
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	r, err := unmarshalStreamResponse(
		resp,
		MessageFor{
			Status4xx: fmt.Sprintf("no source found for project:%v", name),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	)
	if err != nil {
		return err
	}

	return handler(r)
}
