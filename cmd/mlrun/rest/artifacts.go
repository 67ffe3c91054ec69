package rest

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/quaark/mlrun-remote-project/pkg/api/types/artifacts"
	kio "github.com/quaark/mlrun-remote-project/pkg/utils/io"
	"github.com/quaark/mlrun-remote-project/pkg/utils/slices"
)

var ErrChecksumUnmatch = errors.New("checksum unmatch")

// FindArtifactParameter is the search condition of FindArtifact.
type FindArtifactParameter struct {
	// ProjectName of the project which the artifact to be found belongs to.
	ProjectName []string
	// RunId of the run which published the artifact to be found.
	RunId []string
	// Name of the artifact to be found.
	Name []string
	// Kind of the artifact to be found.
	Kind []artifacts.Kind
}

func (c *client) FindArtifact(
	ctx context.Context,
	query FindArtifactParameter,
) ([]artifacts.Summary, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("artifacts"), nil)
	if err != nil {
		return nil, err
	}

	// set query values
	q := req.URL.Query()
	paramMap := map[string][]string{
		"project": query.ProjectName,
		"run":     query.RunId,
		"name":    query.Name,
		"kind":    slices.Map(query.Kind, artifacts.Kind.String),
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

	found := make([]artifacts.Summary, 0, 5)
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

func (c *client) PostArtifact(
	ctx context.Context,
	token string,
	key string,
	kind artifacts.Kind,
	content io.Reader,
) (artifacts.Summary, error) {
	chr := kio.NewMD5Reader(content)
	treader := kio.NewTriggerReader(chr)
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("artifacts", key), treader,
	)
	if err != nil {
		return artifacts.Summary{}, err
	}
	req.Trailer = http.Header{}
	req.Header.Add("Content-Type", "application/octet-stream")
	req.Header.Add("Transfer-Encoding", "chunked")
	req.Header.Add("Trailer", "x-checksum-md5")
	req.Header.Add("Authorization", "Bearer "+token)
	treader.OnEnd(func() {
		req.Trailer.Add("x-checksum-md5", hex.EncodeToString(chr.Sum()))
	})

	q := req.URL.Query()
	q.Add("kind", kind.String())
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return artifacts.Summary{}, err
	}
	defer resp.Body.Close()

	var summary artifacts.Summary
	if err := unmarshalJsonResponse(
		resp, &summary,
		MessageFor{
			Status4xx: fmt.Sprintf("sending artifact is rejected by server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return artifacts.Summary{}, err
	}
	return summary, nil
}

func (c *client) GetArtifact(ctx context.Context, token string, key string, handler func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("artifacts", key), nil,
	)
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", "Bearer "+token)

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	r, err := unmarshalStreamResponse(
		resp,
		MessageFor{
			Status4xx: fmt.Sprintf("artifact:%v is not found", key),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	)
	if err != nil {
		return err
	}

	chr := kio.NewMD5Reader(r)
	treader := kio.NewTriggerReader(chr)
	var hasherr error
	treader.OnEnd(func() {
		serverChecksum := resp.Trailer.Get("x-checksum-md5")
		if serverChecksum == "" {
			hasherr = fmt.Errorf("%w: server response is incompleted", ErrChecksumUnmatch)
			return
		}
		actualChecksum := hex.EncodeToString(chr.Sum())
		if serverChecksum != actualChecksum {
			hasherr = fmt.Errorf(
				"%w: server sent: %s, calcurated: %s",
				ErrChecksumUnmatch, serverChecksum, actualChecksum,
			)
		}
	})

	if err := handler(treader); err != nil {
		return err
	}
	// drain the rest of the entry so the checksum covers the whole stream.
	if _, err := io.Copy(io.Discard, treader); err != nil {
		return err
	}
	return hasherr
}
