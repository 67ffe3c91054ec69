package model

import (
	"context"
	"fmt"
	"net/http"
)

// Fetch downloads and parses a model artifact.
//
// The artifact route demands the run token of the serving run;
// it rides in the Authorization header.
func Fetch(ctx context.Context, url string, token string) (*Logistic, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"model artifact is not available: %s (status code = %d)",
			url, resp.StatusCode,
		)
	}

	return Parse(resp.Body)
}
