package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/quaark/mlrun-remote-project/pkg/api/types/serving"
)

// FindEndpointParameter is the search condition of FindEndpoint.
type FindEndpointParameter struct {
	// ProjectName of the project which the endpoint to be found belongs to.
	ProjectName []string
	// ModelName of the model which the endpoint to be found serves.
	ModelName []string
	// Status which the endpoint to be found is in.
	Status []string
}

func (c *client) FindEndpoint(
	ctx context.Context,
	query FindEndpointParameter,
) ([]serving.Detail, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("endpoints"), nil)
	if err != nil {
		return nil, err
	}

	// set query values
	q := req.URL.Query()
	paramMap := map[string][]string{
		"project": query.ProjectName,
		"model":   query.ModelName,
		"status":  query.Status,
	}

	for key, value := range paramMap {
		if len(value) > 0 {
			q.Add(key, strings.Join(value, ","))
		}
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	found := make([]serving.Detail, 0, 5)
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

func (c *client) GetEndpoint(ctx context.Context, name string) (serving.Detail, error) {
	resp, err := c.httpclient.Get(c.apipath("endpoints", name))
	if err != nil {
		return serving.Detail{}, err
	}
	defer resp.Body.Close()

	var detail serving.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: fmt.Sprintf("endpoint:%v is not found", name),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return serving.Detail{}, err
	}
	return detail, nil
}

func (c *client) RetireEndpoint(ctx context.Context, name string) (serving.Detail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut, c.apipath("endpoints", name, "retire"), nil,
	)
	if err != nil {
		return serving.Detail{}, err
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return serving.Detail{}, err
	}
	defer resp.Body.Close()

	var detail serving.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: fmt.Sprintf("endpoint:%v cannot be retired", name),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return serving.Detail{}, err
	}
	return detail, nil
}

func (c *client) Infer(ctx context.Context, name string, payload io.Reader) (serving.InferResponse, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("endpoints", name, "infer"), payload,
	)
	if err != nil {
		return serving.InferResponse{}, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return serving.InferResponse{}, err
	}
	defer resp.Body.Close()

	var inference serving.InferResponse
	if err := unmarshalJsonResponse(
		resp, &inference,
		MessageFor{
			Status4xx: fmt.Sprintf("endpoint:%v rejected the inference request", name),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return serving.InferResponse{}, err
	}
	return inference, nil
}
